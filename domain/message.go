// Package domain contains core concepts of the chat client.
// This file defines Message values and related rules.
// Messages are immutable and append-only: no edit, no delete.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates what the message body carries: literal text or a
// durable media URL returned by the upload service.
type Kind string

const (
	KindText  Kind = "text"
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// Message represents an immutable chat event. Every message belongs to
// exactly one room.
type Message struct {
	ID     uuid.UUID
	Room   RoomID
	Sender string
	Body   string
	Kind   Kind
	At     time.Time
}
