// Package server exposes the agent over a small REST API: a health probe, a
// service description and POST /prompt, which runs one conversation turn
// for the caller identified by the bearer token.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"agent-blueprint/internal/auth"
	"agent-blueprint/internal/conversation"
)

const (
	maxBodyBytes    = 1 << 20
	requestIDHeader = "X-Request-ID"
)

// Turner runs one conversation turn for a user.
type Turner interface {
	Turn(ctx context.Context, userID, prompt string) (string, error)
}

type Options struct {
	AgentName string
	// Debug exposes internal error messages in 500 responses.
	Debug bool
}

type Server struct {
	turner   Turner
	resolver auth.Resolver
	opts     Options
}

func New(turner Turner, resolver auth.Resolver, opts Options) *Server {
	return &Server{turner: turner, resolver: resolver, opts: opts}
}

type promptRequest struct {
	Text string `json:"text"`
}

type promptResponse struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/prompt", s.handlePrompt)
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	return Serve(ctx, srv, "rest")
}

// Serve runs srv until ctx is done. It is shared by every HTTP front-end.
func Serve(ctx context.Context, srv *http.Server, component string) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("component", component).Str("addr", srv.Addr).Msg("starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrapf(err, "%s server", component)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Str("component", component).Msg("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrapf(err, "%s shutdown", component)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Welcome to %s API", s.opts.AgentName),
		"endpoints": map[string]string{
			"health": "/health",
			"prompt": "/prompt",
		},
	})
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	requestID := r.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, requestID)
	logger := log.With().Str("request_id", requestID).Logger()

	identity, err := s.resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		detail := "Invalid authorization token"
		if errors.Is(err, auth.ErrMissingToken) {
			detail = "Authorization header required"
		}
		logger.Warn().Err(err).Msg("rejected prompt request")
		writeError(w, http.StatusUnauthorized, detail)
		return
	}

	var req promptRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Text cannot be empty")
		return
	}

	reply, err := s.turner.Turn(r.Context(), identity.UserID, req.Text)
	switch {
	case err == nil:
	case errors.Is(err, conversation.ErrEmptyPrompt):
		writeError(w, http.StatusBadRequest, "Text cannot be empty")
		return
	default:
		logger.Error().Err(err).Str("user_id", identity.UserID).Msg("failed to process prompt request")
		detail := "Internal server error"
		if s.opts.Debug {
			detail = "Failed to process prompt request: " + err.Error()
		}
		writeError(w, http.StatusInternalServerError, detail)
		return
	}

	writeJSON(w, http.StatusOK, promptResponse{Text: reply})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
