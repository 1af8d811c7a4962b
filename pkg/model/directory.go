package model

type Hospital struct {
	ID           string `json:"id" bson:"_id"`
	BusinessName string `json:"business_name" bson:"business_name"`
}

type Pet struct {
	ID      string `json:"id" bson:"_id"`
	Name    string `json:"name" bson:"name"`
	OwnerID string `json:"owner_id" bson:"owner_id"`
}
