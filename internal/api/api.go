// Package api holds the request/response types of the chat HTTP surface.
package api

type Error struct {
	Error string `json:"error"`
}

type FindOrCreateConversationRequest struct {
	PeerId string `json:"peer_id"`
}

type FindOrCreateConversationResponse struct {
	Id string `json:"id"`
}

type Participant struct {
	UserId      string  `json:"user_id"`
	Username    *string `json:"username,omitempty"`
	IsTherapist bool    `json:"is_therapist"`
	UserType    string  `json:"user_type"`
	JoinedAt    string  `json:"joined_at"`
}

type Conversation struct {
	Id            string        `json:"id"`
	CreatedAt     string        `json:"created_at"`
	LastMessageAt string        `json:"last_message_at"`
	IsActive      bool          `json:"is_active"`
	Participants  []Participant `json:"participants"`
}

type GetConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}

type Message struct {
	Id             string  `json:"id"`
	ConversationId string  `json:"conversation_id"`
	SenderId       string  `json:"sender_id"`
	Content        string  `json:"content"`
	CreatedAt      string  `json:"created_at"`
	ReadAt         *string `json:"read_at,omitempty"`
}

type GetConversationMessagesResponse struct {
	Messages []Message `json:"messages"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type SendMessageResponse struct {
	MessageId string `json:"message_id"`
	CreatedAt string `json:"created_at"`
}

type SetPresenceRequest struct {
	IsOnline    bool  `json:"is_online"`
	IsAvailable *bool `json:"is_available,omitempty"`
}

type Listener struct {
	UserId      string `json:"user_id"`
	UserType    string `json:"user_type"`
	IsTherapist bool   `json:"is_therapist"`
}

type GetAvailableListenersResponse struct {
	Listeners []Listener `json:"listeners"`
}

type GetConnectAccessTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type GetConversationSubscribeTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	Channel   string `json:"channel"`
}
