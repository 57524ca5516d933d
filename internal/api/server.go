// Package api exposes the HTTP interface: sessions, accounts and files.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/filesmanager/internal/files"
	"github.com/dharsanguruparan/filesmanager/internal/model"
)

// maxBodyBytes bounds JSON request bodies, which carry base64 file content.
const maxBodyBytes = 32 << 20

// Sessions issues and resolves bearer tokens.
type Sessions interface {
	Issue(ctx context.Context, userID string) (string, error)
	Resolve(ctx context.Context, token string) (string, bool, error)
	Revoke(ctx context.Context, token string) error
}

// UserService manages accounts.
type UserService interface {
	Register(ctx context.Context, email, password string) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
}

// FileService manages file metadata and content.
type FileService interface {
	Create(ctx context.Context, owner string, req files.CreateRequest) (*model.File, error)
	Get(ctx context.Context, id, requester string) (*model.File, error)
	List(ctx context.Context, owner string, parent model.Parent, page int) ([]model.File, error)
	SetVisibility(ctx context.Context, id, requester string, isPublic bool) (*model.File, error)
	ReadContent(ctx context.Context, id, requester, size string) (*model.File, []byte, error)
}

// Counter reports how many rows a table holds.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Probe checks that a backing service answers.
type Probe func(ctx context.Context) error

// Deps are the collaborators of a Server.
type Deps struct {
	Sessions   Sessions
	Users      UserService
	Files      FileService
	UserCount  Counter
	FileCount  Counter
	RedisProbe Probe
	DBProbe    Probe
	Logger     *zap.Logger
}

// Server exposes HTTP endpoints.
type Server struct {
	addr    string
	deps    Deps
	log     *zap.Logger
	handler http.Handler
	server  *http.Server
	once    sync.Once
}

// New constructs a Server listening on addr.
func New(addr string, deps Deps) *Server {
	s := &Server{addr: addr, deps: deps, log: deps.Logger}
	s.handler = corsMiddleware(s.loggingMiddleware(s.routes()))
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)

	r.HandleFunc("/connect", s.handleConnect).Methods(http.MethodGet)
	r.HandleFunc("/disconnect", s.requireUser(s.handleDisconnect)).Methods(http.MethodGet)

	r.HandleFunc("/users", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/users/me", s.requireUser(s.handleMe)).Methods(http.MethodGet)

	r.HandleFunc("/files", s.requireUser(s.handleCreateFile)).Methods(http.MethodPost)
	r.HandleFunc("/files", s.requireUser(s.handleListFiles)).Methods(http.MethodGet)
	r.HandleFunc("/files/{id}", s.requireUser(s.handleGetFile)).Methods(http.MethodGet)
	r.HandleFunc("/files/{id}/publish", s.requireUser(s.handleVisibility(true))).Methods(http.MethodPut)
	r.HandleFunc("/files/{id}/unpublish", s.requireUser(s.handleVisibility(false))).Methods(http.MethodPut)
	r.HandleFunc("/files/{id}/data", s.optionalUser(s.handleFileData)).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(handleUnknownRoute)
	r.MethodNotAllowedHandler = http.HandlerFunc(handleUnknownRoute)
	return r
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		s.server = &http.Server{
			Addr:              s.addr,
			Handler:           s.handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	s.log.Info("api listening", zap.String("addr", s.addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func handleUnknownRoute(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path))
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,X-Token")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
