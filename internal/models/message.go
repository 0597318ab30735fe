package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is an inbound chat message handed to the pipeline by the transport layer.
type Message struct {
	UserID         string    `json:"user_id"`
	ConversationID string    `json:"conversation_id"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

// Reply is a generated assistant reply persisted after the pipeline completes.
type Reply struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReplyID        string             `bson:"replyId" json:"reply_id"` // UUID, stable across stores
	UserID         string             `bson:"userId" json:"user_id"`
	ConversationID string             `bson:"conversationId" json:"conversation_id"`
	Content        string             `bson:"content" json:"content"`
	Emotion        string             `bson:"emotion,omitempty" json:"emotion,omitempty"`
	Intensity      int                `bson:"intensity" json:"intensity"`
	Fallback       bool               `bson:"fallback" json:"fallback"` // true when generation failed and a local fallback was returned
	CreatedAt      time.Time          `bson:"createdAt" json:"created_at"`
}
