// Package realtime implements the persistent bidirectional event
// connection to the chat backend over a websocket. The wire format is a
// JSON envelope {type, payload} with three event types: outbound "join"
// and "sendMessage", inbound "messageReceived".
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"chat-client/contract"
	"chat-client/domain"
	"chat-client/domain/event"
)

const (
	typeJoin            = "join"
	typeSendMessage     = "sendMessage"
	typeMessageReceived = "messageReceived"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type joinPayload struct {
	RoomID string `json:"roomId"`
}

type messagePayload struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
	Sender  string `json:"sender"`
	Kind    string `json:"kind,omitempty"`
	At      int64  `json:"at,omitempty"`
}

// Channel is the single realtime connection of a session. Emission is
// fire-and-forget: there is no acknowledgement, a write error is all the
// caller ever learns. The read loop runs as a supervised worker.
type Channel struct {
	log  *slog.Logger
	conn *websocket.Conn

	mu       sync.Mutex
	handlers map[int]contract.InboundHandler
	nextID   int
}

// Dial opens the websocket connection. The channel stays open for the
// lifetime of the engine, independent of which room is active.
func Dial(url, origin string, log *slog.Logger) (*Channel, error) {
	conn, err := websocket.Dial(url, "", origin)
	if err != nil {
		return nil, fmt.Errorf("dialing realtime channel: %w", err)
	}
	return NewChannel(conn, log), nil
}

// NewChannel wraps an established connection. Split from Dial so tests
// can hand in the server side of an in-process pipe.
func NewChannel(conn *websocket.Conn, log *slog.Logger) *Channel {
	return &Channel{
		log:      log,
		conn:     conn,
		handlers: make(map[int]contract.InboundHandler),
	}
}

// Join announces which room this client wants live delivery for.
func (c *Channel) Join(room domain.RoomID) error {
	return c.emit(typeJoin, joinPayload{RoomID: string(room)})
}

// Send emits an outbound message event for live fan-out.
func (c *Channel) Send(evt event.MessageSent) error {
	return c.emit(typeSendMessage, messagePayload{
		RoomID:  string(evt.Room),
		Message: evt.Body,
		Sender:  evt.Sender,
		Kind:    string(evt.Kind),
		At:      evt.At.UnixMilli(),
	})
}

func (c *Channel) emit(eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return websocket.JSON.Send(c.conn, envelope{Type: eventType, Payload: data})
}

// Subscribe registers an inbound handler and returns the func removing
// it again. The engine holds exactly one subscription for its lifetime.
func (c *Channel) Subscribe(h contract.InboundHandler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.handlers[id] = h

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers, id)
	}
}

// Run is the read loop. It dispatches every messageReceived event to the
// subscribed handlers in delivery order and returns when the context is
// canceled or the connection dies.
func (c *Channel) Run(ctx context.Context) error {
	go func() {
		// Receive has no context support: closing the connection is
		// the only way to unblock it on shutdown.
		<-ctx.Done()
		_ = c.conn.Close()
	}()

	for {
		var env envelope
		if err := websocket.JSON.Receive(c.conn, &env); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("realtime channel receive: %w", err)
		}

		if env.Type != typeMessageReceived {
			c.log.Debug("Ignoring channel event", "type", env.Type)
			continue
		}

		var p messagePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.log.Warn("Malformed messageReceived payload", "error", err)
			continue
		}
		c.dispatch(toInbound(p))
	}
}

// Close tears the connection down; the read loop unwinds with it.
func (c *Channel) Close() error {
	return c.conn.Close()
}

func (c *Channel) dispatch(evt event.MessageReceived) {
	c.mu.Lock()
	handlers := make([]contract.InboundHandler, 0, len(c.handlers))
	for _, h := range c.handlers {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(evt)
	}
}

func toInbound(p messagePayload) event.MessageReceived {
	kind := domain.Kind(p.Kind)
	if kind == "" {
		kind = domain.KindText
	}
	at := time.Now().UTC()
	if p.At > 0 {
		at = time.UnixMilli(p.At).UTC()
	}
	return event.MessageReceived{
		Room:   domain.RoomID(p.RoomID),
		Body:   p.Message,
		Sender: p.Sender,
		Kind:   kind,
		At:     at,
	}
}
