package model

import "time"

// Conversation is a two-party message thread. PendingResponse is owned by
// the backend: while it is set the viewer may not send another message.
type Conversation struct {
	ID              string    `json:"_id"`
	With            string    `json:"with"`
	PendingResponse bool      `json:"pendingResponse"`
	Blocked         bool      `json:"blocked,omitempty"`
	Messages        []Message `json:"messages,omitempty"`
}

type Message struct {
	ID        string    `json:"_id,omitempty"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type SendMessageRequest struct {
	To   string `json:"to" binding:"required"`
	Text string `json:"text"`
}

type BlockUserRequest struct {
	User string `json:"user" binding:"required"`
}
