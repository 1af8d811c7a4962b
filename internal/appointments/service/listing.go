package service

import (
	"slices"
	"strings"

	"vetslots/pkg/model"
	"vetslots/pkg/sanitizer"
)

func sanitizeBooking(req *model.BookingRequest) {
	req.HospitalID = sanitizer.NormalizeObjectID(req.HospitalID)
	req.DoctorID = sanitizer.NormalizeUUID(req.DoctorID)
	req.PetID = sanitizer.NormalizeObjectID(req.PetID)
	req.Department = sanitizer.NormalizeName(req.Department)
	req.Date = sanitizer.NormalizeID(req.Date)
	for i := range req.Slots {
		req.Slots[i].ID = sanitizer.NormalizeUUID(req.Slots[i].ID)
		req.Slots[i].Time = sanitizer.TrimAndNormalize(req.Slots[i].Time)
	}
}

// normalizeCaller puts a listing caller id in the form booking stores for
// that participant.
func normalizeCaller(role model.ListRole, id string) string {
	switch role {
	case model.RoleDoctor:
		return sanitizer.NormalizeUUID(id)
	case model.RoleHospital:
		return sanitizer.NormalizeObjectID(id)
	default:
		return sanitizer.NormalizeID(id)
	}
}

func startKey(a *model.Appointment) string {
	return a.AppointmentDate + " " + a.AppointmentTime24
}

// sortBucket puts the soonest first for upcoming and pending, and the most
// recent first for past and cancel.
func sortBucket(bucket model.Bucket, items []*model.Appointment) {
	ascending := bucket == model.BucketUpcoming || bucket == model.BucketPending
	slices.SortStableFunc(items, func(a, b *model.Appointment) int {
		c := strings.Compare(startKey(a), startKey(b))
		if !ascending {
			c = -c
		}
		return c
	})
}

func page(items []*model.Appointment, limit int, offset int64) *model.BucketPage {
	p := &model.BucketPage{Count: len(items), Items: []*model.Appointment{}}
	if offset >= int64(len(items)) {
		return p
	}
	end := min(int(offset)+limit, len(items))
	p.Items = items[offset:end]
	return p
}
