package devtools

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// Server exposes a recorder over HTTP: JSON snapshots for poking around,
// and a WebSocket stream of msgpack-encoded events for live tooling.
type Server struct {
	rec      *Recorder
	log      *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a server over a recorder. A nil logger uses
// slog.Default.
func NewServer(rec *Recorder, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		rec: rec,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Handler returns the devtools routes:
//
//	GET /api/containers                  - observed container names
//	GET /api/containers/{name}           - current snapshot
//	GET /api/containers/{name}/events    - recorded ring for one container
//	GET /api/events                      - recorded ring, all containers
//	GET /stream                          - WebSocket, msgpack-encoded events
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/api/containers", s.handleContainers)
	r.Get("/api/containers/{name}", s.handleSnapshot)
	r.Get("/api/containers/{name}/events", s.handleEvents)
	r.Get("/api/events", s.handleEvents)
	r.Get("/stream", s.handleStream)

	return r
}

func (s *Server) handleContainers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.rec.Containers())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	snap, ok := s.rec.Snapshot(name)
	if !ok {
		http.Error(w, "unknown container", http.StatusNotFound)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.rec.Events(chi.URLParam(r, "name")))
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("devtools stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	id, events := s.rec.stream()
	defer s.rec.unstream(id)

	// Reader goroutine: we send only, but reading is what surfaces close
	// frames.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseNormalClosure) {
					s.log.Debug("devtools stream closed unexpectedly", "error", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case ev := <-events:
			data, err := msgpack.Marshal(ev)
			if err != nil {
				s.log.Error("devtools event encode failed", "error", err)
				continue
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
