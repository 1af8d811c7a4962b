package model

import "time"

type AppointmentStatus string

const (
	StatusPending    AppointmentStatus = "pending"
	StatusAccepted   AppointmentStatus = "accepted"
	StatusInProgress AppointmentStatus = "inProgress"
	StatusCheckedIn  AppointmentStatus = "checkedIn"
	StatusFulfilled  AppointmentStatus = "fulfilled"
	StatusCancelled  AppointmentStatus = "cancelled"
	StatusNoShow     AppointmentStatus = "noshow"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusInProgress, StatusCheckedIn,
		StatusFulfilled, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

type BookingChannel string

const (
	ChannelStandard  BookingChannel = "standard"
	ChannelEmergency BookingChannel = "emergency"
)

// UploadRecord is attachment metadata returned by the external upload service.
type UploadRecord struct {
	Name        string    `json:"name" bson:"name" validate:"required,max=255"`
	URL         string    `json:"url" bson:"url" validate:"required,url"`
	ContentType string    `json:"content_type,omitempty" bson:"content_type,omitempty" validate:"omitempty,max=100"`
	UploadedAt  time.Time `json:"uploaded_at,omitempty" bson:"uploaded_at,omitempty"`
}

// Appointment is a ledger row. IsCanceled mirrors Status for the partial
// unique index: 0 while the slot is held, 1 once cancelled.
type Appointment struct {
	ID                string            `json:"id,omitempty" bson:"_id,omitempty"`
	HospitalID        string            `json:"hospital_id" bson:"hospital_id"`
	HospitalName      string            `json:"hospital_name" bson:"hospital_name"`
	DoctorID          string            `json:"doctor_id" bson:"doctor_id"`
	OwnerID           string            `json:"owner_id" bson:"owner_id"`
	PetID             string            `json:"pet_id" bson:"pet_id"`
	PetName           string            `json:"pet_name" bson:"pet_name"`
	TokenNumber       string            `json:"token_number" bson:"token_number"`
	Channel           BookingChannel    `json:"channel" bson:"channel"`
	Department        string            `json:"department,omitempty" bson:"department,omitempty"`
	AppointmentDate   string            `json:"appointment_date" bson:"appointment_date"`
	AppointmentTime   string            `json:"appointment_time" bson:"appointment_time"`
	AppointmentTime24 string            `json:"appointment_time24" bson:"appointment_time24"`
	Day               string            `json:"day" bson:"day"`
	SlotsID           string            `json:"slots_id,omitempty" bson:"slots_id,omitempty"`
	Status            AppointmentStatus `json:"status" bson:"status"`
	CancelReason      string            `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`
	IsCanceled        int               `json:"is_canceled" bson:"is_canceled"`
	UploadRecords     []UploadRecord    `json:"upload_records,omitempty" bson:"upload_records,omitempty"`
	CreatedAt         time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at" bson:"updated_at"`
}

type SlotRef struct {
	ID   string `json:"id,omitempty" validate:"omitempty,uuid"`
	Time string `json:"time" validate:"required,slot_label"`
}

type BookingRequest struct {
	HospitalID    string            `json:"hospital_id" validate:"required,mongodb"`
	DoctorID      string            `json:"doctor_id" validate:"required,uuid"`
	PetID         string            `json:"pet_id" validate:"required,mongodb"`
	Department    string            `json:"department,omitempty" validate:"omitempty,max=100"`
	Date          string            `json:"appointment_date" validate:"required,date_ymd"`
	Slots         []SlotRef         `json:"slots" validate:"required,min=1,dive"`
	Status        AppointmentStatus `json:"status,omitempty" validate:"omitempty,appointment_status"`
	UploadRecords []UploadRecord    `json:"upload_records,omitempty" validate:"omitempty,max=20,dive"`
}

type RescheduleRequest struct {
	Date          string         `json:"appointment_date" validate:"required,date_ymd"`
	Time          string         `json:"appointment_time" validate:"required,slot_label"`
	Department    string         `json:"department,omitempty" validate:"omitempty,max=100"`
	UploadRecords []UploadRecord `json:"upload_records,omitempty" validate:"omitempty,max=20,dive"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// AppointmentReschedule carries the fields overwritten by a reschedule.
type AppointmentReschedule struct {
	Date          string
	Time          string
	Time24        string
	Day           string
	SlotsID       string
	Department    string
	UploadRecords []UploadRecord
}

type ListRole string

const (
	RoleOwner    ListRole = "owner"
	RoleDoctor   ListRole = "doctor"
	RoleHospital ListRole = "hospital"
)

type Bucket string

const (
	BucketUpcoming Bucket = "upcoming"
	BucketPending  Bucket = "pending"
	BucketPast     Bucket = "past"
	BucketCancel   Bucket = "cancel"
)

var Buckets = []Bucket{BucketUpcoming, BucketPending, BucketPast, BucketCancel}

type BucketPage struct {
	Count int            `json:"count"`
	Items []*Appointment `json:"items"`
}

type AppointmentListing map[Bucket]*BucketPage
