package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is embedded in its post's comment list, newest first.
type Comment struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id"`
	AuthorID       primitive.ObjectID `json:"_author" bson:"_author"`
	AuthorUsername string             `json:"username" bson:"username"`
	Text           string             `json:"text" bson:"text"`
	CreatedAt      time.Time          `json:"date" bson:"date"`
}
