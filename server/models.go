package main

import "time"

// Delivery records one dispatch attempt. It carries no submission content:
// the client is identified only by a salted hash of its rate-limit key.
type Delivery struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RequestID  string    `gorm:"index" json:"request_id"`
	ClientHash string    `gorm:"index" json:"client_hash"`
	Outcome    string    `json:"outcome"`
	MessageID  string    `json:"message_id,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

const outcomeSent = "sent"
