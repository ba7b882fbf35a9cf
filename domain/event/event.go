// Package event defines the events exchanged over the realtime channel.
// Outbound: RoomJoined, MessageSent. Inbound: MessageReceived.
package event

import (
	"time"

	"chat-client/domain"
)

type ChannelEvent interface {
	RoomID() domain.RoomID
}

// RoomJoined announces which room this client is now subscribed to for
// live delivery.
type RoomJoined struct {
	Room domain.RoomID
}

func (e RoomJoined) RoomID() domain.RoomID { return e.Room }

// MessageSent is the outbound message event fanned out live to the
// other participants of the room.
type MessageSent struct {
	Room   domain.RoomID
	Body   string
	Sender string
	Kind   domain.Kind
	At     time.Time
}

func (e MessageSent) RoomID() domain.RoomID { return e.Room }

// MessageReceived is delivered by the channel whenever any participant
// (including this client, echoed back) sends a message.
type MessageReceived struct {
	Room   domain.RoomID
	Body   string
	Sender string
	Kind   domain.Kind
	At     time.Time
}

func (e MessageReceived) RoomID() domain.RoomID { return e.Room }
