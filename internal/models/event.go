package models

import "time"

const (
	EventMessageCreated = "message.created"
	EventMessageRead    = "message.read"
)

type MessageEvent struct {
	Type         string    `json:"type"`
	MessageID    int64     `json:"message_id"`
	FromUsername string    `json:"from_username"`
	ToUsername   string    `json:"to_username"`
	At           time.Time `json:"at"`
}
