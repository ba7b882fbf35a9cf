package rest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"chat-client/domain"
)

// StoreClient is the fetch/persist contract with the backend message
// storage. Historical replay on room switch reads from here; live state
// never does.
type StoreClient struct {
	*Client
}

func NewStoreClient(c *Client) StoreClient {
	return StoreClient{Client: c}
}

type messageDTO struct {
	ID      string `json:"id,omitempty"`
	RoomID  string `json:"roomId"`
	Sender  string `json:"sender,omitempty"`
	Message string `json:"message"`
	Kind    string `json:"type"`
	At      int64  `json:"at,omitempty"`
}

type addMessageRequest struct {
	RoomID  string `json:"roomId"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
	Kind    string `json:"type"`
}

func (s StoreClient) FetchMessages(ctx context.Context, room domain.RoomID) ([]domain.Message, error) {
	var dtos []messageDTO
	if err := s.getJSON(ctx, "/rooms/"+string(room)+"/messages", &dtos); err != nil {
		return nil, err
	}
	return lo.Map(dtos, func(dto messageDTO, _ int) domain.Message {
		return toMessage(dto)
	}), nil
}

func (s StoreClient) AddMessage(ctx context.Context, room domain.RoomID, userID, body string, kind domain.Kind) error {
	return s.postJSON(ctx, "/messages", addMessageRequest{
		RoomID:  string(room),
		UserID:  userID,
		Message: body,
		Kind:    string(kind),
	}, nil)
}

func toMessage(dto messageDTO) domain.Message {
	// The backend may key messages with ids that are not UUIDs; a fresh
	// one keeps the local invariant without losing the payload.
	id, err := uuid.Parse(dto.ID)
	if err != nil {
		id = uuid.New()
	}

	kind := domain.Kind(dto.Kind)
	if kind == "" {
		kind = domain.KindText
	}

	at := time.Time{}
	if dto.At > 0 {
		at = time.UnixMilli(dto.At).UTC()
	}

	return domain.Message{
		ID:     id,
		Room:   domain.RoomID(dto.RoomID),
		Sender: dto.Sender,
		Body:   dto.Message,
		Kind:   kind,
		At:     at,
	}
}
