package validators

import "go.mongodb.org/mongo-driver/bson"

var AppointmentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"hospital_id",
			"doctor_id",
			"pet_id",
			"token_number",
			"channel",
			"appointment_date",
			"appointment_time",
			"appointment_time24",
			"status",
			"is_canceled",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"hospital_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"doctor_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"pet_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"token_number": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"channel": bson.M{
				"bsonType": "string",
				"enum":     []string{"standard", "emergency"},
			},

			"appointment_date": bson.M{
				"bsonType": "string",
				"pattern":  "^[0-9]{4}-[0-9]{2}-[0-9]{2}$",
			},

			"appointment_time24": bson.M{
				"bsonType": "string",
				"pattern":  "^[0-2][0-9]:[0-5][0-9]$",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"accepted",
					"inProgress",
					"checkedIn",
					"fulfilled",
					"cancelled",
					"noshow",
				},
			},

			"is_canceled": bson.M{
				"bsonType": []string{"int", "long"},
				"enum":     []int{0, 1},
			},

			"upload_records": bson.M{
				"bsonType": "array",
				"maxItems": 20,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
