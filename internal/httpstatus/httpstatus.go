// Package httpstatus implements the read-only HTTP status surface:
// GET /status and GET /healthz, bounded to a configured maximum
// number of simultaneous requests.
package httpstatus

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/net/netutil"

	"github.com/screenlink/screenlink/internal/logger"
)

// StateProvider is the subset of control.Server this surface reads
// from; kept as an interface so httpstatus never imports control
// (control imports httpstatus instead, not the other way around).
type StateProvider interface {
	PrimaryScreenName() string
	ActiveScreenName() string
	ScreenNames() []string
}

// StatusResponse is the JSON body served by GET /status.
type StatusResponse struct {
	PrimaryScreen string   `json:"primary_screen"`
	ActiveScreen  string   `json:"active_screen"`
	Screens       []string `json:"screens"`
}

// Server is the HTTP status surface's listener and handler set.
type Server struct {
	port                    int
	maxSimultaneousRequests int
	state                   StateProvider
	httpServer              *http.Server
	listener                net.Listener
}

// New creates a status server bound to port, reading live state from
// state, accepting at most maxSimultaneousRequests requests in flight
// (excess requests block at the listener rather than being served a
// partial response).
func New(port, maxSimultaneousRequests int, state StateProvider) *Server {
	s := &Server{
		port:                    port,
		maxSimultaneousRequests: maxSimultaneousRequests,
		state:                   state,
	}

	router := mux.NewRouter()
	router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)

	s.httpServer = &http.Server{Handler: router}
	return s
}

// Start binds the listener and begins serving in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("httpstatus: listen: %w", err)
	}

	bounded := ln
	if s.maxSimultaneousRequests > 0 {
		bounded = netutil.LimitListener(ln, s.maxSimultaneousRequests)
	}
	s.listener = bounded

	go func() {
		if err := s.httpServer.Serve(bounded); err != nil && err != http.ErrServerClosed {
			logger.Errorf("httpstatus: serve error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		PrimaryScreen: s.state.PrimaryScreenName(),
		ActiveScreen:  s.state.ActiveScreenName(),
		Screens:       s.state.ScreenNames(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Errorf("httpstatus: encode status response: %v", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
