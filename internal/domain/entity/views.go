package entity

type UserSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// MessageView is a message with its sender denormalized for display.
type MessageView struct {
	*Message
	SenderInfo *UserSummary `json:"senderInfo,omitempty"`
}

type ConversationView struct {
	*Conversation
	ParticipantInfo []UserSummary `json:"participantInfo"`
	LastMessage     *MessageView  `json:"lastMessage,omitempty"`
	UnreadCount     int           `json:"unreadCount"`
}
