package model

import "time"

// TokenKey identifies one daily counter. Channel keeps emergency and standard
// sequences apart while sharing the hospital and date.
type TokenKey struct {
	HospitalID      string         `bson:"hospital_id"`
	AppointmentDate string         `bson:"appointment_date"`
	Channel         BookingChannel `bson:"channel"`
}

type AppointmentToken struct {
	Key        TokenKey  `bson:"_id"`
	TokenCount int64     `bson:"token_count"`
	ExpireAt   time.Time `bson:"expire_at"`
	CreatedAt  time.Time `bson:"created_at"`
}
