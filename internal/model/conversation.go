package model

import (
	"time"
)

type ConversationList []Conversation

type Conversation struct {
	ID            string    `db:"id" json:"id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
	LastMessageAt time.Time `db:"last_message_at" json:"last_message_at"`
	IsActive      bool      `db:"is_active" json:"is_active"`

	Participants []ConversationParticipant `db:"-" json:"participants,omitempty"`
}

// ConversationParticipant is the membership row plus a denormalized view of
// the linked profile for display. Exactly two rows exist per conversation.
type ConversationParticipant struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	UserID         string    `db:"user_id" json:"user_id"`
	JoinedAt       time.Time `db:"joined_at" json:"joined_at"`

	Username    *string `db:"username" json:"username,omitempty"`
	IsTherapist bool    `db:"is_therapist" json:"is_therapist"`
	UserType    string  `db:"user_type" json:"user_type"`
}
