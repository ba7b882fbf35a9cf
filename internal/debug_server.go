package internal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"chat-client/domain"
	"chat-client/observability"
	"chat-client/repositories"
)

// StartDebugServer exposes the session counters and the local history
// cache as JSON, for poking at a running client from the outside.
// Endpoints: /debug/stats, /debug/cache?room={id}.
func StartDebugServer(port int, stats *observability.SessionStats, cache repositories.MessageCache, log *slog.Logger) {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, stats.GetLatest())
	})

	mux.HandleFunc("/debug/cache", func(w http.ResponseWriter, r *http.Request) {
		room := r.URL.Query().Get("room")
		if room == "" {
			rooms, err := cache.Rooms()
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, rooms)
			return
		}

		messages, err := cache.GetMessages(domain.RoomID(room))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, messages)
	})

	go func() {
		addr := fmt.Sprintf("0.0.0.0:%d", port)
		log.Info("Debug server listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("Debug server stopped", "error", err)
		}
	}()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}
