// Package httpadapter exposes invokables over HTTP: one POST endpoint
// per invokable, plus a /trace WebSocket endpoint that sends one event per
// completed invocation; progress within an invocation is not streamed. This is the
// out-of-scope "notebook/CLI host" collaborator the core engine never
// depends on.
package httpadapter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/relayrun/enact/internal/invoke"
	"github.com/relayrun/enact/internal/resource"
	"github.com/relayrun/enact/internal/store"
)

// InvokableFactory builds a fresh Invokable and its input resource from
// a decoded JSON request body, for registration under a route.
type InvokableFactory func(body map[string]any) (invoke.Invokable, resource.Resource, error)

// Server serves one POST route per registered invokable and a /trace
// WebSocket stream of invocation events.
type Server struct {
	st        *store.Store
	log       *slog.Logger
	upgrader  websocket.Upgrader
	mu        sync.Mutex
	factories map[string]InvokableFactory
	listeners []chan TraceEvent
}

// TraceEvent is broadcast to every connected /trace client whenever an
// invocation started through this server completes.
type TraceEvent struct {
	RequestID    string `json:"request_id"`
	InvokableRef string `json:"invokable_ref"`
	InvocationID string `json:"invocation_id"`
	Successful   bool   `json:"successful"`
}

// New constructs a Server backed by st, logging with log (a nil logger
// falls back to slog.Default()).
func New(st *store.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		st:        st,
		log:       log,
		factories: map[string]InvokableFactory{},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Register exposes factory under path /invoke/{route}.
func (s *Server) Register(route string, factory InvokableFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factories[route] = factory
}

// Handler returns the server's http.Handler, wiring /invoke/{route} for
// every registered route and /trace for the live WebSocket feed.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/trace", s.handleTrace)
	mux.HandleFunc("/invoke/", s.handleInvoke)
	return mux
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	route := r.URL.Path[len("/invoke/"):]

	s.mu.Lock()
	factory, ok := s.factories[route]
	s.mu.Unlock()
	if !ok {
		http.Error(w, fmt.Sprintf("no invokable registered at %q", route), http.StatusNotFound)
		return
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	invokable, input, err := factory(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	requestID := r.Header.Get("X-Request-Id")

	inv, err := invoke.Invoke(r.Context(), s.st, invokable, input)
	if err != nil {
		s.log.Error("invocation failed", "route", route, "request_id", requestID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	invokableRef, err := s.st.Commit(r.Context(), invokable)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	successful, err := inv.Successful(r.Context(), s.st)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.broadcast(TraceEvent{
		RequestID:    requestID,
		InvokableRef: invokableRef.String(),
		InvocationID: inv.ResponseRef.Digest,
		Successful:   successful,
	})

	output, raised, err := invoke.Outcome(r.Context(), s.st, inv)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if successful {
		writePackedJSON(w, http.StatusOK, output)
	} else {
		writePackedJSON(w, http.StatusConflict, raised)
	}
}

func writePackedJSON(w http.ResponseWriter, status int, r resource.Resource) {
	packed, err := resource.Pack(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data, err := resource.Encode(packed)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	w.Write(data)
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("trace websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch := make(chan TraceEvent, 16)
	s.mu.Lock()
	s.listeners = append(s.listeners, ch)
	s.mu.Unlock()
	defer s.removeListener(ch)

	for event := range ch {
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}

func (s *Server) removeListener(ch chan TraceEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.listeners {
		if l == ch {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

func (s *Server) broadcast(event TraceEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.listeners {
		select {
		case ch <- event:
		default:
			s.log.Warn("trace listener backlogged, dropping event")
		}
	}
}
