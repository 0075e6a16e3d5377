package validators

import "go.mongodb.org/mongo-driver/bson"

var DoctorDetailValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"license_number": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"experience_years": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  80,
			},

			"consultation_fee": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"specialization": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"location": bson.M{
				"bsonType":  "string",
				"maxLength": 255,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
