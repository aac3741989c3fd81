// Package server exposes editor sessions to browsers over socket.io. Every
// connected socket owns one session; events from a socket are applied to its
// session in arrival order and each one is answered with the resulting scene.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/specialistvlad/flowcanvas/internal/canvas"
	"github.com/specialistvlad/flowcanvas/internal/catalog"
	"github.com/specialistvlad/flowcanvas/internal/ctxlog"
	"github.com/specialistvlad/flowcanvas/internal/persist"
	"github.com/specialistvlad/flowcanvas/internal/session"
	"github.com/specialistvlad/flowcanvas/internal/workflow"
	"github.com/zishang520/socket.io/v2/socket"
)

// Events emitted to the browser.
const (
	EventScene      = "scene"
	EventOpenConfig = "open_config"
	EventNotice     = "notice"
	EventCatalog    = "catalog"
)

// Loader reads stored workflows by id.
type Loader interface {
	Load(id string) (*workflow.Document, error)
}

// Options configures a Server.
type Options struct {
	Size        canvas.Size
	Catalog     *catalog.Catalog
	Saver       persist.Saver
	Loader      Loader
	SaveTimeout time.Duration
}

// Server routes socket.io events to per-socket sessions.
type Server struct {
	opts Options
	ctx  context.Context
	io   *socket.Server
	mux  *http.ServeMux

	mu       sync.Mutex
	sessions map[string]*session.Session
}

// New creates the server. ctx carries the logger and bounds the lifetime of
// save calls.
func New(ctx context.Context, opts Options) *Server {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 30 * time.Second
	}
	s := &Server{
		opts:     opts,
		ctx:      ctx,
		io:       socket.NewServer(nil, nil),
		mux:      http.NewServeMux(),
		sessions: make(map[string]*session.Session),
	}
	s.io.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		s.connect(client)
	})

	s.mux.Handle("/socket.io/", s.io.ServeHandler(nil))
	s.mux.HandleFunc("/health", s.healthHandler)
	s.mux.HandleFunc("/catalog", s.catalogHandler)
	return s
}

// Handler returns the HTTP handler serving socket.io, /health and /catalog.
func (s *Server) Handler() http.Handler { return s.mux }

// Sessions reports the number of connected editors.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close disconnects every socket.
func (s *Server) Close() {
	s.io.Close(nil)
}

func (s *Server) newSession() *session.Session {
	return session.New(session.Options{
		Size:    s.opts.Size,
		Catalog: s.opts.Catalog,
		Saver:   s.opts.Saver,
		Logger:  ctxlog.FromContext(s.ctx),
	})
}

func (s *Server) connect(client *socket.Socket) {
	id := string(client.Id())
	ctx := ctxlog.With(s.ctx, "socket", id)
	logger := ctxlog.FromContext(ctx)

	sess := s.newSession()
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	logger.Info("Editor connected.")

	for _, event := range clientEvents {
		client.On(event, func(args ...any) {
			u, err := s.dispatch(ctx, sess, event, args)
			if err != nil {
				logger.Warn("Rejected event.", "event", event, "error", err)
				emit(ctx, client, EventNotice, session.Notice{Level: session.LevelError, Message: err.Error()})
				return
			}
			send(ctx, client, u)
		})
	}
	client.On("disconnect", func(reason ...any) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		logger.Info("Editor disconnected.", "reason", fmt.Sprint(reason...))
	})

	emit(ctx, client, EventCatalog, s.opts.Catalog.All())
	send(ctx, client, sess.Scene())
}

// send emits the parts of an update. open_config is always sent so the
// browser can close a form that is no longer open.
func send(ctx context.Context, client *socket.Socket, u session.Update) {
	emit(ctx, client, EventScene, u.Scene)
	emit(ctx, client, EventOpenConfig, u.OpenConfig)
	if u.Notice != nil {
		emit(ctx, client, EventNotice, u.Notice)
	}
}

// emit sends v as plain JSON data so that the wire format follows the json
// tags of the domain types.
func emit(ctx context.Context, client *socket.Socket, event string, v any) {
	data, err := toWire(v)
	if err != nil {
		ctxlog.FromContext(ctx).Error("Failed to encode event.", "event", event, "error", err)
		return
	}
	if err := client.Emit(event, data); err != nil {
		ctxlog.FromContext(ctx).Debug("Failed to emit event.", "event", event, "error", err)
	}
}

func toWire(v any) (any, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(buf, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctxlog.FromContext(s.ctx).Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) catalogHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.opts.Catalog.All()); err != nil {
		ctxlog.FromContext(s.ctx).Error("Failed to write catalog.", "error", err)
	}
}
