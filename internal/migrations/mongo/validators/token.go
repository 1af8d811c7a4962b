package validators

import "go.mongodb.org/mongo-driver/bson"

// AppointmentTokenValidator keeps the compound key intact; the TTL index
// relies on expire_at being a real date.
var AppointmentTokenValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"token_count",
			"expire_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "object",
				"required": []string{"hospital_id", "appointment_date", "channel"},
			},

			"token_count": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"expire_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
