// ABOUTME: HTTP server wiring for the voicegate JSON API
// ABOUTME: Registers routes on a ServeMux and maps service errors to responses

package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/2389/voicegate/internal/agents"
	"github.com/2389/voicegate/internal/auth"
	"github.com/2389/voicegate/internal/store"
)

// UserStore defines what the server needs from storage for account handling
type UserStore interface {
	CreateUser(ctx context.Context, user *store.User) error
	GetUser(ctx context.Context, id string) (*store.User, error)
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
}

// CallScheduler persists deferred outbound calls
type CallScheduler interface {
	Schedule(ctx context.Context, call *store.ScheduledCall) error
}

// Server handles the public HTTP API
type Server struct {
	users     UserStore
	agents    *agents.Service
	scheduler CallScheduler
	verifier  *auth.JWTVerifier
	tokenTTL  time.Duration
	logger    *slog.Logger
}

// NewServer creates an API server.
func NewServer(users UserStore, agentSvc *agents.Service, scheduler CallScheduler, verifier *auth.JWTVerifier, tokenTTL time.Duration) *Server {
	return &Server{
		users:     users,
		agents:    agentSvc,
		scheduler: scheduler,
		verifier:  verifier,
		tokenTTL:  tokenTTL,
		logger:    slog.Default().With("component", "api"),
	}
}

// RegisterRoutes registers all API routes on the given mux
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := auth.Middleware(s.users, s.verifier)

	// Public routes
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /signup", s.handleSignup)
	mux.HandleFunc("POST /login", s.handleLogin)

	// Protected routes
	mux.Handle("GET /me", requireAuth(http.HandlerFunc(s.handleMe)))
	mux.Handle("GET /agents", requireAuth(http.HandlerFunc(s.handleListAgents)))
	mux.Handle("POST /agents", requireAuth(http.HandlerFunc(s.handleCreateAgent)))
	mux.Handle("DELETE /agents/{agent_id}", requireAuth(http.HandlerFunc(s.handleDeleteAgent)))
	mux.Handle("POST /leads/analyze-and-schedule", requireAuth(http.HandlerFunc(s.handleScheduleLead)))

	s.logger.Info("api routes registered")
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status
func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
