// Package display serves the live room page to display browsers and turns
// their interactions into page actions.
package display

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/park285/arcadescore-live/internal/page"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeTimeout  = 3 * time.Second
	maxImportSize = 64 << 20
)

// Server owns the HTTP routes for one room page.
type Server struct {
	page    *page.Page
	actions *Actions
	log     *zap.Logger
}

func New(p *page.Page, actions *Actions, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{page: p, actions: actions, log: log}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", healthz)
	r.Route("/rooms/{room}", func(r chi.Router) {
		r.Use(s.roomOnly)
		r.Get("/", s.renderPage)
		r.Get("/ws", s.stream)
		r.Post("/import", s.importFile)
	})
	return r
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) roomOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.page.Context().SameRoom(chi.URLParam(r, "room")) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) renderPage(w http.ResponseWriter, _ *http.Request) {
	_, markup := s.page.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(markup))
}

// importFile forwards an uploaded archive to the backend import. Progress
// and the result are shown on the page itself.
func (s *Server) importFile(w http.ResponseWriter, r *http.Request) {
	if s.actions == nil || s.actions.transfer == nil {
		http.Error(w, ErrUnavailable.Error(), http.StatusNotImplemented)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	if err := s.actions.transfer.Import(r.Context(), header.Filename, header.Size, file); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// stream pushes page frames to one display and reads its interactions.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("display_accept_failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	frames, unsubscribe := s.page.Subscribe()
	defer unsubscribe()
	replies := make(chan page.Frame, 4)

	writeCtx, writeCancel := context.WithCancel(r.Context())
	defer writeCancel()
	go func() {
		for {
			var f page.Frame
			select {
			case <-writeCtx.Done():
				return
			case f = <-frames:
			case f = <-replies:
			}
			ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
			err := wsjson.Write(ctx, conn, f)
			cancel()
			if err != nil {
				s.log.Debug("display_write_failed", zap.Error(err))
				return
			}
		}
	}()

	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				s.log.Debug("display_read_failed", zap.Error(err))
			}
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			reply(replies, "bad json")
			continue
		}
		if err := s.actions.Handle(msg); err != nil {
			reply(replies, err.Error())
		}
	}
}

func reply(ch chan<- page.Frame, message string) {
	select {
	case ch <- page.Frame{Type: page.FrameError, Message: message}:
	default:
	}
}
