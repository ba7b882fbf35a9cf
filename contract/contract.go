//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-client/domain"
	"chat-client/domain/event"
)

// IRoomDirectory lists the rooms available to this session.
type IRoomDirectory interface {
	FetchRooms(ctx context.Context) ([]domain.Room, error)
}

// IMessageStore is the fetch/persist contract with the backend storage.
// The store is the source of truth for historical replay on room switch;
// live state is purely event driven.
type IMessageStore interface {
	FetchMessages(ctx context.Context, room domain.RoomID) ([]domain.Message, error)
	AddMessage(ctx context.Context, room domain.RoomID, userID, body string, kind domain.Kind) error
}

// IMediaUploader stores a binary attachment externally and returns the
// durable reference URL.
type IMediaUploader interface {
	Upload(ctx context.Context, data []byte) (string, error)
}

// InboundHandler consumes live message events delivered by the channel.
type InboundHandler func(event.MessageReceived)

// IRealtimeChannel is the persistent bidirectional event connection.
// Join and Send are fire-and-forget from the engine's perspective: there
// is no acknowledgement contract, errors are only logged.
type IRealtimeChannel interface {
	Join(room domain.RoomID) error
	Send(evt event.MessageSent) error
	// Subscribe registers the inbound handler and returns the func that
	// removes it again. Engine teardown must call it to avoid leaking a
	// listener across engine instances.
	Subscribe(h InboundHandler) (unsubscribe func())
}

// IIdentityProvider exposes the current identity snapshot, or none when
// sign-in has not completed.
type IIdentityProvider interface {
	Current() (domain.Identity, bool)
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes, avoiding the need
// for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}
