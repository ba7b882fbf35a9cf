//go:generate go run go.uber.org/mock/mockgen -source=cache.go -destination=../mocks/mock_cache.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chat-client/domain"
)

// IMessageCache is the local read cache of fetched room history.
type IMessageCache interface {
	StoreMessages(room domain.RoomID, messages []domain.Message) error
	GetMessages(room domain.RoomID) ([]domain.Message, error)
}

// MessageCache persists fetched history in BadgerDB so the inspector
// tooling and the debug server can look at it offline. It is a cache:
// losing it never loses a message, the backend store stays the source
// of truth.
type MessageCache struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageCache(db *badger.DB, log *slog.Logger) MessageCache {
	return MessageCache{db: db, log: log}
}

// cachedMessage is the JSON shape written to disk.
type cachedMessage struct {
	ID     string    `json:"id"`
	Room   string    `json:"room"`
	Sender string    `json:"sender"`
	Body   string    `json:"body"`
	Kind   string    `json:"kind"`
	At     time.Time `json:"at"`
}

// cacheKey formats "msg:{room}:{timestamp_padded}:{uuid}":
//  1. The 19-digit zero padding keeps keys chronologically sorted under
//     lexicographical iteration.
//  2. The UUID disconnects collisions when two messages share the same
//     nanosecond.
func cacheKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", m.Room, m.At.UnixNano(), m.ID))
}

// StoreMessages writes a fetched history batch in one transaction.
func (c MessageCache) StoreMessages(room domain.RoomID, messages []domain.Message) error {
	c.log.Debug("Caching history batch", "room", room, "count", len(messages))
	return c.db.Update(func(txn *badger.Txn) error {
		for _, m := range messages {
			if m.Room == "" {
				m.Room = room
			}
			data, err := json.Marshal(fromDomain(m))
			if err != nil {
				return err
			}
			if err := txn.Set(cacheKey(m), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetMessages reads a room's cached history back via a prefix scan.
// The padded timestamp in the key means messages come out sorted by time.
func (c MessageCache) GetMessages(room domain.RoomID) ([]domain.Message, error) {
	var raw [][]byte
	err := c.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", room))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	for _, b := range raw {
		var cm cachedMessage
		if err := json.Unmarshal(b, &cm); err != nil {
			return nil, err
		}
		m, err := toDomain(cm)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}

func fromDomain(m domain.Message) cachedMessage {
	return cachedMessage{
		ID:     m.ID.String(),
		Room:   string(m.Room),
		Sender: m.Sender,
		Body:   m.Body,
		Kind:   string(m.Kind),
		At:     m.At.UTC(),
	}
}

func toDomain(cm cachedMessage) (domain.Message, error) {
	id, err := uuid.Parse(cm.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:     id,
		Room:   domain.RoomID(cm.Room),
		Sender: cm.Sender,
		Body:   cm.Body,
		Kind:   domain.Kind(cm.Kind),
		At:     cm.At.UTC(),
	}, nil
}

// Rooms lists the room ids that have at least one cached message, in
// key order. Used by the debug server.
func (c MessageCache) Rooms() ([]domain.RoomID, error) {
	seen := make(map[domain.RoomID]struct{})
	var rooms []domain.RoomID
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte("msg:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			name, _, found := strings.Cut(key[len(prefix):], ":")
			if !found {
				continue
			}
			room := domain.RoomID(name)
			if _, ok := seen[room]; !ok {
				seen[room] = struct{}{}
				rooms = append(rooms, room)
			}
		}
		return nil
	})
	return rooms, err
}
