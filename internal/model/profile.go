package model

import (
	"time"
)

const (
	ListenerUserType  = "listener"
	SupporterUserType = "supporter"
	TherapistUserType = "therapist"
)

type ProfileList []Profile

type Profile struct {
	ID          string    `db:"id" json:"id"`
	Username    *string   `db:"username" json:"username,omitempty"`
	UserType    string    `db:"user_type" json:"user_type"`
	IsTherapist bool      `db:"is_therapist" json:"is_therapist"`
	Bio         *string   `db:"bio" json:"bio,omitempty"`
	IsOnline    bool      `db:"is_online" json:"is_online"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// PresenceUpdate is the change-feed payload emitted after a presence flag
// write.
type PresenceUpdate struct {
	UserID      string `json:"user_id"`
	IsOnline    bool   `json:"is_online"`
	IsAvailable *bool  `json:"is_available,omitempty"`
}

// ProfileParams is the subset of profile fields owned by the account
// service; presence flags are never touched through this struct.
type ProfileParams struct {
	ID          string  `db:"id"`
	Username    *string `db:"username"`
	UserType    string  `db:"user_type"`
	IsTherapist bool    `db:"is_therapist"`
	Bio         *string `db:"bio"`
}
