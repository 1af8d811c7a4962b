package validators

import "go.mongodb.org/mongo-driver/bson"

var weekdays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

var SlotTemplateValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"doctor_id",
			"weekday",
			"slots",
			"consultation_duration_min",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"doctor_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"weekday": bson.M{
				"bsonType": "string",
				"enum":     weekdays,
			},

			"slots": bson.M{
				"bsonType": "array",
				"maxItems": 96,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"id", "time", "time24", "active"},
					"properties": bson.M{
						"id":     bson.M{"bsonType": "string", "minLength": 1},
						"time":   bson.M{"bsonType": "string", "minLength": 1},
						"time24": bson.M{"bsonType": "string", "pattern": "^[0-2][0-9]:[0-5][0-9]$"},
						"active": bson.M{"bsonType": "bool"},
					},
				},
			},

			"consultation_duration_min": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  5,
				"maximum":  480,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var UnavailabilityValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"doctor_id",
			"date",
			"weekday",
			"blocked_slots",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"doctor_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  "^[0-9]{4}-[0-9]{2}-[0-9]{2}$",
			},

			"weekday": bson.M{
				"bsonType": "string",
				"enum":     weekdays,
			},

			"blocked_slots": bson.M{
				"bsonType": "array",
				"maxItems": 96,
				"items": bson.M{
					"bsonType": "string",
				},
			},
		},
	},
}
