package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"golang.org/x/net/websocket"
)

// BaseBackendSuite runs a complete in-process chat backend: the REST
// API (rooms, messages, users), the media upload endpoint and the
// websocket fan-out. Scenarios drive the real client stack against it.
type BaseBackendSuite struct {
	suite.Suite
	Config Config

	REST   *httptest.Server
	Upload *httptest.Server
	WS     *httptest.Server

	mu       sync.Mutex
	rooms    []backendRoom
	messages map[string][]backendMessage
	users    int
	uploads  int

	wsMu    sync.Mutex
	wsConns map[*websocket.Conn]string
}

type backendRoom struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type backendMessage struct {
	RoomID  string `json:"roomId"`
	UserID  string `json:"userId,omitempty"`
	Sender  string `json:"sender,omitempty"`
	Message string `json:"message"`
	Kind    string `json:"type"`
}

type wsEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsMessage struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
	Sender  string `json:"sender"`
	Kind    string `json:"kind,omitempty"`
	At      int64  `json:"at,omitempty"`
}

func (s *BaseBackendSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	s.rooms = []backendRoom{
		{ID: "general", Title: "General"},
		{ID: "random", Title: "Random"},
	}
	s.messages = map[string][]backendMessage{
		"general": {
			{RoomID: "general", Sender: "Bob", Message: "welcome", Kind: "text"},
		},
	}
	s.wsConns = make(map[*websocket.Conn]string)

	s.REST = httptest.NewServer(http.HandlerFunc(s.handleREST))
	s.Upload = httptest.NewServer(http.HandlerFunc(s.handleUpload))
	s.WS = httptest.NewServer(websocket.Handler(s.handleWS))
}

func (s *BaseBackendSuite) TearDownSuite() {
	s.REST.Close()
	s.Upload.Close()
	s.WS.Close()
}

// WSURL is the ws:// address of the fan-out endpoint.
func (s *BaseBackendSuite) WSURL() string {
	return "ws" + strings.TrimPrefix(s.WS.URL, "http")
}

// Step prints a colorized header so scenario logs stay readable.
func (s *BaseBackendSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// PersistedMessages returns what the backend store holds for a room.
func (s *BaseBackendSuite) PersistedMessages(room string) []backendMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]backendMessage(nil), s.messages[room]...)
}

func (s *BaseBackendSuite) UploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

func (s *BaseBackendSuite) handleREST(w http.ResponseWriter, r *http.Request) {
	if s.Config.DebugJSON {
		s.T().Logf("REST %s %s", r.Method, r.URL.Path)
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/rooms":
		s.mu.Lock()
		rooms := s.rooms
		s.mu.Unlock()
		s.writeJSON(w, rooms)

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/rooms/") &&
		strings.HasSuffix(r.URL.Path, "/messages"):
		room := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/rooms/"), "/messages")
		s.writeJSON(w, s.PersistedMessages(room))

	case r.Method == http.MethodPost && r.URL.Path == "/messages":
		var msg backendMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.messages[msg.RoomID] = append(s.messages[msg.RoomID], msg)
		s.mu.Unlock()
		w.WriteHeader(http.StatusCreated)

	case r.Method == http.MethodPost && r.URL.Path == "/users":
		var profile struct {
			Name  string `json:"name"`
			Email string `json:"email"`
			UID   string `json:"uid"`
		}
		if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.users++
		id := fmt.Sprintf("u%d", s.users)
		s.mu.Unlock()
		s.writeJSON(w, map[string]any{"data": map[string]string{
			"_id":   id,
			"name":  profile.Name,
			"email": profile.Email,
			"uid":   profile.UID,
		}})

	default:
		http.NotFound(w, r)
	}
}

func (s *BaseBackendSuite) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.FormValue("upload_preset") == "" {
		http.Error(w, "missing upload_preset", http.StatusBadRequest)
		return
	}
	if _, _, err := r.FormFile("file"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.uploads++
	n := s.uploads
	s.mu.Unlock()
	s.writeJSON(w, map[string]string{
		"secure_url": fmt.Sprintf("https://cdn.test/media/%d", n),
	})
}

// handleWS echoes every sendMessage back to all connections joined to
// the same room, the sender included.
func (s *BaseBackendSuite) handleWS(conn *websocket.Conn) {
	s.wsMu.Lock()
	s.wsConns[conn] = ""
	s.wsMu.Unlock()
	defer func() {
		s.wsMu.Lock()
		delete(s.wsConns, conn)
		s.wsMu.Unlock()
	}()

	for {
		var env wsEnvelope
		if err := websocket.JSON.Receive(conn, &env); err != nil {
			return
		}

		switch env.Type {
		case "join":
			var p struct {
				RoomID string `json:"roomId"`
			}
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				continue
			}
			s.wsMu.Lock()
			s.wsConns[conn] = p.RoomID
			s.wsMu.Unlock()

		case "sendMessage":
			var p wsMessage
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				continue
			}
			s.broadcast(p)
		}
	}
}

func (s *BaseBackendSuite) broadcast(p wsMessage) {
	payload, err := json.Marshal(p)
	if err != nil {
		return
	}
	out := wsEnvelope{Type: "messageReceived", Payload: payload}

	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	for conn, room := range s.wsConns {
		if room != p.RoomID {
			continue
		}
		_ = websocket.JSON.Send(conn, out)
	}
}

func (s *BaseBackendSuite) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
