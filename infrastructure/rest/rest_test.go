package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-client/domain"
	"chat-client/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second, slog.Default())
}

func Test_DirectoryClient_Preserves_Returned_Order(t *testing.T) {
	req := require.New(t)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/rooms", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":"r2","title":"Random"},{"id":"r1","title":"General"}]`))
	})

	directory := NewDirectoryClient(newTestClient(t, handler))
	rooms, err := directory.FetchRooms(context.Background())
	req.NoError(err)
	req.Equal([]domain.Room{
		{ID: "r2", Title: "Random"},
		{ID: "r1", Title: "General"},
	}, rooms)
}

func Test_DirectoryClient_Wraps_FetchError_On_Server_Failure(t *testing.T) {
	req := require.New(t)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	directory := NewDirectoryClient(newTestClient(t, handler))
	_, err := directory.FetchRooms(context.Background())
	req.ErrorIs(err, errors.ErrFetch)
}

func Test_StoreClient_Fetches_Room_History(t *testing.T) {
	req := require.New(t)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/rooms/r1/messages", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id":"6512bd43d9caa6e02c990b0a","roomId":"r1","sender":"Alice","message":"hi","type":"text"},
			{"roomId":"r1","sender":"Bob","message":"https://cdn.example/a.mp3","type":"audio"}
		]`))
	})

	store := NewStoreClient(newTestClient(t, handler))
	messages, err := store.FetchMessages(context.Background(), "r1")
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal("Alice", messages[0].Sender)
	req.Equal(domain.KindText, messages[0].Kind)
	req.Equal(domain.KindAudio, messages[1].Kind)
	req.Equal(domain.RoomID("r1"), messages[1].Room)
}

func Test_StoreClient_Persists_Message(t *testing.T) {
	req := require.New(t)

	var got addMessageRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal(http.MethodPost, r.Method)
		req.Equal("/messages", r.URL.Path)
		req.NoError(json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	store := NewStoreClient(newTestClient(t, handler))
	err := store.AddMessage(context.Background(), "r1", "u42", "hello", domain.KindText)
	req.NoError(err)
	req.Equal(addMessageRequest{RoomID: "r1", UserID: "u42", Message: "hello", Kind: "text"}, got)
}

func Test_UserClient_Registers_And_Returns_Identity(t *testing.T) {
	req := require.New(t)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/users", r.URL.Path)
		var reg Registration
		req.NoError(json.NewDecoder(r.Body).Decode(&reg))
		req.Equal("alice@example.com", reg.Email)
		_, _ = w.Write([]byte(`{"data":{"_id":"u42","name":"Alice","email":"alice@example.com","uid":"fb-1"}}`))
	})

	users := NewUserClient(newTestClient(t, handler))
	identity, err := users.Register(context.Background(), Registration{
		Name:  "Alice",
		Email: "alice@example.com",
		UID:   "fb-1",
	})
	req.NoError(err)
	req.Equal(domain.Identity{ID: "u42", DisplayName: "Alice"}, identity)
}
