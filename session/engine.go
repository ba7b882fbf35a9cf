// Package session holds the synchronization engine: the single place
// where the room list, the active room selection, the merged timeline
// and the outbound pipeline meet.
package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"chat-client/contract"
	"chat-client/domain"
	"chat-client/domain/event"
	"chat-client/domain/mimetypes"
	"chat-client/errors"
	"chat-client/moderation"
	"chat-client/observability"
	"chat-client/repositories"
)

// Deps wires the engine's collaborators. Moderator, Cache and OnAppend
// are optional; everything else is required.
type Deps struct {
	Directory contract.IRoomDirectory
	Store     contract.IMessageStore
	Uploader  contract.IMediaUploader
	Channel   contract.IRealtimeChannel
	Identity  contract.IIdentityProvider
	Moderator *moderation.Moderator
	Cache     repositories.IMessageCache
	Stats     *observability.SessionStats
	// OnAppend observes every message appended to the live timeline.
	// It runs outside the engine lock and must not call back into it.
	OnAppend func(domain.Message)
	Log      *slog.Logger
}

// Engine owns the session state. All mutation goes through its lock;
// history fetches run asynchronously and are reconciled against the
// selection that requested them, so a stale fetch can never overwrite
// a newer room's timeline.
type Engine struct {
	mu sync.Mutex

	directory contract.IRoomDirectory
	store     contract.IMessageStore
	uploader  contract.IMediaUploader
	channel   contract.IRealtimeChannel
	identity  contract.IIdentityProvider
	moderator *moderation.Moderator
	cache     repositories.IMessageCache
	stats     *observability.SessionStats
	onAppend  func(domain.Message)
	log       *slog.Logger

	rooms    []domain.Room
	active   *domain.Room
	timeline *Timeline

	// fetchSeq tags every history fetch with the selection that issued
	// it. Only the latest tag may touch the timeline.
	fetchSeq    uint64
	unsubscribe func()
}

func NewEngine(deps Deps) *Engine {
	return &Engine{
		directory: deps.Directory,
		store:     deps.Store,
		uploader:  deps.Uploader,
		channel:   deps.Channel,
		identity:  deps.Identity,
		moderator: deps.Moderator,
		cache:     deps.Cache,
		stats:     deps.Stats,
		onAppend:  deps.OnAppend,
		log:       deps.Log,
		timeline:  NewTimeline(),
	}
}

// Initialize fetches the room directory and hooks the engine onto the
// realtime channel. No room is selected afterwards; the caller picks
// one explicitly.
func (e *Engine) Initialize(ctx context.Context) error {
	rooms, err := e.directory.FetchRooms(ctx)
	if err != nil {
		e.log.Error("Fetching room directory failed", "error", err)
		return fmt.Errorf("initializing session: %w", err)
	}

	e.mu.Lock()
	e.rooms = rooms
	if e.unsubscribe == nil {
		e.unsubscribe = e.channel.Subscribe(e.onInbound)
	}
	e.mu.Unlock()

	e.stats.SetRoomsLoaded(len(rooms))
	e.log.Info("Session initialized", "rooms", len(rooms))
	return nil
}

// Rooms returns the directory in the order the backend listed it.
func (e *Engine) Rooms() []domain.Room {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.Room(nil), e.rooms...)
}

// ActiveRoom reports the current selection, if any.
func (e *Engine) ActiveRoom() (domain.Room, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return domain.Room{}, false
	}
	return *e.active, true
}

// Timeline returns a snapshot of the active room's merged view.
func (e *Engine) Timeline() []domain.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeline.Snapshot()
}

// SelectRoom switches the active room, joins it on the channel and
// kicks off an asynchronous history load. An id that is not in the
// directory clears the selection and leaves the timeline untouched.
func (e *Engine) SelectRoom(ctx context.Context, id domain.RoomID) {
	e.mu.Lock()
	room, found := lo.Find(e.rooms, func(r domain.Room) bool { return r.ID == id })
	if !found {
		e.active = nil
		e.mu.Unlock()
		e.log.Warn("Selected room is not in the directory", "room", id)
		return
	}

	e.active = &room
	e.fetchSeq++
	seq := e.fetchSeq
	e.mu.Unlock()

	if err := e.channel.Join(id); err != nil {
		e.log.Error("Joining room on channel failed", "room", id, "error", err)
	}

	go e.loadHistory(ctx, id, seq)
}

// loadHistory fetches the room's history and installs it as the new
// timeline, unless a later selection superseded this fetch meanwhile.
func (e *Engine) loadHistory(ctx context.Context, room domain.RoomID, seq uint64) {
	e.stats.IncrHistoryFetches()

	messages, err := e.store.FetchMessages(ctx, room)
	if err != nil {
		e.log.Error("Fetching history failed, keeping current timeline",
			"room", room, "error", err)
		if e.cache == nil {
			return
		}
		cached, cacheErr := e.cache.GetMessages(room)
		if cacheErr != nil || len(cached) == 0 {
			return
		}
		e.log.Info("Serving cached history", "room", room, "count", len(cached))
		messages = cached
	} else if e.cache != nil {
		if err := e.cache.StoreMessages(room, messages); err != nil {
			e.log.Warn("Caching history failed", "room", room, "error", err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.fetchSeq || e.active == nil || e.active.ID != room {
		e.stats.IncrStaleFetches()
		e.log.Debug("Dropping superseded history fetch", "room", room)
		return
	}
	e.timeline.Replace(messages)
	e.log.Debug("Timeline replaced", "room", room, "count", len(messages))
}

// onInbound applies a live message to the timeline when it targets the
// active room; everything else is dropped on the floor.
func (e *Engine) onInbound(evt event.MessageReceived) {
	e.mu.Lock()
	if e.active == nil || e.active.ID != evt.Room {
		e.mu.Unlock()
		e.stats.IncrInboundDropped()
		e.log.Debug("Dropping inbound message for inactive room", "room", evt.Room)
		return
	}

	msg := domain.Message{
		ID:     uuid.New(),
		Room:   evt.Room,
		Sender: evt.Sender,
		Body:   evt.Body,
		Kind:   evt.Kind,
		At:     evt.At,
	}
	e.timeline.Append(msg)
	e.mu.Unlock()

	e.stats.IncrInboundApplied()
	if e.onAppend != nil {
		e.onAppend(msg)
	}
}

// SendMessage pushes a text message through the outbound pipeline. A
// missing selection or identity makes it a silent no-op.
func (e *Engine) SendMessage(ctx context.Context, body string) error {
	if e.moderator != nil {
		sanitized, found := e.moderator.Censor(body)
		if len(found) > 0 {
			e.log.Warn("Outbound message was censored", "words", len(found))
		}
		body = sanitized
	}
	return e.send(ctx, body, domain.KindText)
}

// SendAttachment runs the two-phase media pipeline: upload first, then
// send the returned URL as a message of the detected kind. Any upload
// failure aborts before a single message leaves the client.
func (e *Engine) SendAttachment(ctx context.Context, data []byte, declaredMIME string) error {
	if !e.sendable() {
		return nil
	}

	var kind domain.Kind
	var err error
	if declaredMIME != "" {
		kind, err = mimetypes.KindOfDeclared(declaredMIME)
	} else {
		var mime string
		kind, mime, err = mimetypes.KindOf(data)
		if err != nil {
			e.log.Error("Rejecting attachment", "mime", mime, "error", err)
			return err
		}
	}
	if err != nil {
		e.log.Error("Rejecting attachment", "declared", declaredMIME, "error", err)
		return err
	}

	url, err := e.uploader.Upload(ctx, data)
	if err != nil {
		e.log.Error("Upload failed, aborting attachment send", "error", err)
		return fmt.Errorf("%w: %w", errors.ErrUpload, err)
	}
	e.stats.IncrUploads(len(data))
	e.log.Info("Attachment uploaded", "kind", kind, "bytes", len(data))

	return e.send(ctx, url, kind)
}

// send emits the message on the channel and persists it to the store.
// The two effects are independent: a failed persist does not retract
// the emit, a failed emit does not block the persist. The local
// timeline is never touched here; the echo arrives as an inbound event.
func (e *Engine) send(ctx context.Context, body string, kind domain.Kind) error {
	identity, signedIn := e.identity.Current()

	e.mu.Lock()
	active := e.active
	e.mu.Unlock()
	if active == nil || !signedIn {
		e.log.Debug("Dropping outbound message without room or identity")
		return nil
	}

	evt := event.MessageSent{
		Room:   active.ID,
		Body:   body,
		Sender: identity.DisplayName,
		Kind:   kind,
		At:     time.Now().UTC(),
	}

	sendErr := e.channel.Send(evt)
	if sendErr != nil {
		e.log.Error("Emitting message on channel failed", "room", active.ID, "error", sendErr)
	}

	persistErr := e.store.AddMessage(ctx, active.ID, identity.ID, body, kind)
	if persistErr != nil {
		e.stats.IncrPersistErrors()
		e.log.Error("Persisting message failed", "room", active.ID, "error", persistErr)
	}

	e.stats.IncrMessagesSent()
	return stderrors.Join(sendErr, persistErr)
}

func (e *Engine) sendable() bool {
	_, signedIn := e.identity.Current()
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active != nil && signedIn
}

// Close detaches the engine from the realtime channel.
func (e *Engine) Close() {
	e.mu.Lock()
	unsubscribe := e.unsubscribe
	e.unsubscribe = nil
	e.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
