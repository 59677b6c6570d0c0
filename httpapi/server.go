// Package httpapi mounts the coursegate service on an HTTP surface: the
// provider webhook, checkout creation, entitlement reads, a live SSE
// watch stream, and the lesson catalog.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coursegate/coursegate"
	"github.com/coursegate/coursegate/entitlement"
)

// Server serves the coursegate HTTP API.
type Server struct {
	svc        *coursegate.Service
	webhook    http.Handler
	authSecret string
	logger     *slog.Logger

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger.With("component", "httpapi") }
}

// WithWebhook mounts the payment-confirmation handler at POST /webhook.
func WithWebhook(h http.Handler) Option {
	return func(s *Server) { s.webhook = h }
}

// WithAuthSecret enables bearer-token auth on uid-scoped endpoints.
func WithAuthSecret(secret string) Option {
	return func(s *Server) { s.authSecret = secret }
}

// NewServer builds the API server around svc, listening on addr once
// started.
func NewServer(svc *coursegate.Service, addr string, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		logger: slog.Default().With("component", "httpapi"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	if s.webhook != nil {
		mux.Handle("POST /webhook", s.webhook)
	}
	mux.HandleFunc("POST /create-checkout", s.handleCreateCheckout)
	mux.HandleFunc("GET /api/v1/entitlements/{uid}", s.requireAuth(s.handleGetEntitlement))
	mux.HandleFunc("GET /api/v1/entitlements/{uid}/watch", s.requireAuth(s.handleWatch))
	mux.HandleFunc("GET /api/v1/lessons", s.handleLessons)
	mux.HandleFunc("GET /health", s.handleHealth)

	return mux
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// ListenAndServe runs the server until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ──────────────────────────────────────────────────────────────
// Handlers
// ──────────────────────────────────────────────────────────────

type createCheckoutRequest struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req createCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UID == "" {
		writeError(w, http.StatusBadRequest, "Missing uid")
		return
	}

	sess, err := s.svc.CreateCheckout(r.Context(), req.UID, req.Email)
	if err != nil {
		s.logger.Error("checkout creation failed", "uid", req.UID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not create checkout session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": sess.URL})
}

func (s *Server) handleGetEntitlement(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")

	record, err := s.svc.Entitled(r.Context(), uid)
	if err != nil {
		status := http.StatusInternalServerError
		if coursegate.IsRejected(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, "could not read entitlement")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"uid":  record.UID,
		"paid": record.Paid,
	})
}

// handleWatch streams entitlement changes for a user as server-sent
// events. The current value is sent immediately, then every change until
// the client disconnects.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	changes := make(chan entitlement.Change, 8)
	sub, err := s.svc.Watch(r.Context(), uid, func(c entitlement.Change) {
		select {
		case changes <- c:
		default:
			// Client is too slow to drain; it will catch up from the
			// next change, and the value is monotonic anyway.
		}
	})
	if err != nil {
		status := http.StatusInternalServerError
		if coursegate.IsRejected(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, "could not open watch")
		return
	}
	defer sub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case c := <-changes:
			if _, err := w.Write([]byte("data: ")); err != nil {
				return
			}
			if err := enc.Encode(c); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleLessons(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")

	views, err := s.svc.Lessons(r.Context(), uid)
	if err != nil {
		if errors.Is(err, coursegate.ErrLessonNotFound) {
			writeError(w, http.StatusNotFound, "no catalog configured")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not load lessons")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"lessons": views})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
