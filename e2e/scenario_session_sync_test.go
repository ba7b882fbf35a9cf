package e2e

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"

	"chat-client/auth"
	"chat-client/domain"
	"chat-client/infrastructure/rest"
	"chat-client/infrastructure/upload"
	"chat-client/observability"
	"chat-client/realtime"
	"chat-client/repositories"
	"chat-client/runtime"
	"chat-client/session"
)

type testSessionSyncSuite struct {
	BaseBackendSuite
}

func TestSessionSyncSuite(t *testing.T) {
	suite.Run(t, &testSessionSyncSuite{})
}

// TestFullSessionFlow drives the real client stack end to end: sign-in,
// room discovery, history replay, live echo and the two-phase
// attachment pipeline, all against the in-process backend.
func (s *testSessionSyncSuite) TestFullSessionFlow() {
	log := logs.GetLoggerFromLevel(slog.LevelError)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Real client stack ---
	client := rest.NewClient(s.REST.URL, 5*time.Second, log)
	directory := rest.NewDirectoryClient(client)
	store := rest.NewStoreClient(client)
	users := rest.NewUserClient(client)
	uploader := upload.NewCloudinaryClient(s.Upload.URL, "e2e-preset", 5*time.Second, log)

	secret := []byte("e2e-secret")
	identity := auth.NewProvider(auth.NewTokenParser(secret), users, log)

	channel, err := realtime.Dial(s.WSURL(), "http://localhost/", log)
	s.Require().NoError(err)
	defer channel.Close()

	db, err := badger.Open(badger.DefaultOptions(s.T().TempDir()).
		WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)
	defer db.Close()
	cache := repositories.NewMessageCache(db, log)

	stats := observability.NewSessionStats()
	engine := session.NewEngine(session.Deps{
		Directory: directory,
		Store:     store,
		Uploader:  uploader,
		Channel:   channel,
		Identity:  identity,
		Cache:     cache,
		Stats:     stats,
		Log:       log,
	})
	defer engine.Close()

	sup := runtime.NewSupervisor(log, time.Second)
	sup.Add(channel)
	go sup.Run(ctx)
	defer sup.Stop()

	// --- STEP 1: SIGN IN ---
	s.Step("Step 1: Sign in and register with the backend")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "fb-1",
		"name":  "Alice",
		"email": "alice@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	s.Require().NoError(err)

	me, err := identity.SignIn(ctx, token)
	s.Require().NoError(err)
	s.Require().Equal("Alice", me.DisplayName)
	s.Require().Equal("u1", me.ID)

	// --- STEP 2: ROOM DISCOVERY ---
	s.Step("Step 2: Initialize session and list rooms")
	s.Require().NoError(engine.Initialize(ctx))
	rooms := engine.Rooms()
	s.Require().Len(rooms, 2)
	s.Require().Equal(domain.RoomID("general"), rooms[0].ID)
	s.Require().Equal(domain.RoomID("random"), rooms[1].ID)

	// --- STEP 3: HISTORY REPLAY ---
	s.Step("Step 3: Select a room and replay its history")
	engine.SelectRoom(ctx, "general")
	s.Require().Eventually(func() bool {
		timeline := engine.Timeline()
		return len(timeline) == 1 && timeline[0].Body == "welcome"
	}, s.Config.StepTimeout, 20*time.Millisecond, "history was not replayed")

	// --- STEP 4: LIVE ECHO ---
	s.Step("Step 4: Send a message and receive the live echo")
	s.Require().NoError(engine.SendMessage(ctx, "hello from the session"))

	s.Require().Eventually(func() bool {
		timeline := engine.Timeline()
		if len(timeline) == 0 {
			return false
		}
		last := timeline[len(timeline)-1]
		return last.Body == "hello from the session" && last.Sender == "Alice"
	}, s.Config.StepTimeout, 20*time.Millisecond, "echo never reached the timeline")

	persisted := s.PersistedMessages("general")
	s.Require().Len(persisted, 2)
	s.Require().Equal("u1", persisted[1].UserID)
	s.Require().Equal("hello from the session", persisted[1].Message)

	// --- STEP 5: ATTACHMENT PIPELINE ---
	s.Step("Step 5: Upload an attachment, then send its media URL")
	mp3 := []byte{0x49, 0x44, 0x33, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	s.Require().NoError(engine.SendAttachment(ctx, mp3, ""))
	s.Require().Equal(1, s.UploadCount())

	s.Require().Eventually(func() bool {
		timeline := engine.Timeline()
		if len(timeline) == 0 {
			return false
		}
		last := timeline[len(timeline)-1]
		return strings.HasPrefix(last.Body, "https://cdn.test/media/") &&
			last.Kind == domain.KindAudio
	}, s.Config.StepTimeout, 20*time.Millisecond, "media echo never reached the timeline")

	// --- STEP 6: LOCAL CACHE ---
	s.Step("Step 6: History is cached locally for offline inspection")
	s.Require().Eventually(func() bool {
		cached, err := cache.GetMessages("general")
		return err == nil && len(cached) >= 1
	}, s.Config.StepTimeout, 20*time.Millisecond, "history cache stayed empty")

	s.Require().GreaterOrEqual(stats.GetLatest().MessagesSent, uint64(2))
}
