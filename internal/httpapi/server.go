// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

// Package httpapi exposes the portal's authentication operations over
// HTTP. A browser is tied to its session by an opaque client-context
// cookie; the session record itself lives server-side.
package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/tutordesk/tutordesk/internal/auth"
	"github.com/tutordesk/tutordesk/internal/observability"
)

// ClientCookieName carries the opaque client-context ID.
const ClientCookieName = "tutordesk_client"

// Server is the public HTTP API server.
type Server struct {
	addr       string
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool

	authSvc  *auth.Service
	otpSvc   *auth.OTPService
	sessions *auth.SessionManager

	// adminByEmail maps allowlisted emails to the user ID a passcode
	// login signs in as.
	adminByEmail map[string]string

	metrics *observability.Metrics
	logger  *slog.Logger
}

// Options configures a Server.
type Options struct {
	Addr           string
	AuthService    *auth.Service
	OTPService     *auth.OTPService
	SessionManager *auth.SessionManager

	// AdminUserIDs maps allowlisted emails (lowercase) to user IDs.
	AdminUserIDs map[string]string

	// Metrics is optional; nil disables metric recording.
	Metrics *observability.Metrics

	// Logger is optional; nil uses the default logger.
	Logger *slog.Logger
}

// NewServer creates the API server.
func NewServer(opts Options) (*Server, error) {
	if opts.AuthService == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if opts.OTPService == nil {
		return nil, oops.Errorf("otp service is required")
	}
	if opts.SessionManager == nil {
		return nil, oops.Errorf("session manager is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		addr:         opts.Addr,
		authSvc:      opts.AuthService,
		otpSvc:       opts.OTPService,
		sessions:     opts.SessionManager,
		adminByEmail: opts.AdminUserIDs,
		metrics:      opts.Metrics,
		logger:       logger,
	}, nil
}

// Handler returns the routed handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/login", s.handleLogin)
	mux.HandleFunc("POST /v1/logout", s.handleLogout)
	mux.HandleFunc("GET /v1/session", s.handleSession)

	mux.HandleFunc("POST /v1/otp/send", s.handleOTPSend)
	mux.HandleFunc("POST /v1/otp/verify", s.handleOTPVerify)

	mux.HandleFunc("POST /v1/admin/credentials", s.requireAdmin(s.handleCreateCredentials))
	mux.HandleFunc("PUT /v1/admin/credentials/{username}/password", s.requireAdmin(s.handleUpdatePassword))
	mux.HandleFunc("DELETE /v1/admin/credentials/{userId}", s.requireAdmin(s.handleDeleteCredentials))
	mux.HandleFunc("GET /v1/admin/credentials/by-user/{userId}", s.requireAdmin(s.handleFindUsername))

	return mux
}

// Start begins serving the API. It returns an error channel that
// receives any error from the HTTP server after it starts; the channel
// is closed when the server stops gracefully.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_api_server").Wrap(err)
		}
	}

	s.logger.Info("api server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// clientID returns the client-context ID from the request cookie, or ""
// for a client that has never been issued one.
func clientID(r *http.Request) string {
	cookie, err := r.Cookie(ClientCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// ensureClientID returns the request's client-context ID, issuing a new
// one via Set-Cookie when the client has none.
func (s *Server) ensureClientID(w http.ResponseWriter, r *http.Request) (string, error) {
	if id := clientID(r); id != "" {
		return id, nil
	}

	id, err := auth.GenerateClientID()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     ClientCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}

// requireAdmin wraps a handler to demand an authenticated admin session.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := clientID(r)
		if id == "" {
			writeError(w, s.logger, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound))
			return
		}

		session, err := s.sessions.Get(r.Context(), id)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		if session.Role != auth.RoleAdmin {
			writeError(w, s.logger, oops.Code("AUTH_FORBIDDEN").
				Errorf("administrator access required"))
			return
		}
		next(w, r)
	}
}
