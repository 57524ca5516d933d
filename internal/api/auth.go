package api

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dharsanguruparan/filesmanager/internal/model"
	"github.com/dharsanguruparan/filesmanager/internal/users"
)

// tokenHeader carries the session token on authenticated requests.
const tokenHeader = "X-Token"

type userKey struct{}

func withUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// userFrom returns the authenticated user, or nil for anonymous requests.
func userFrom(ctx context.Context) *model.User {
	u, _ := ctx.Value(userKey{}).(*model.User)
	return u
}

// resolveUser maps the request token to a user. A nil user with a nil error
// means the token is absent, unknown or expired.
func (s *Server) resolveUser(r *http.Request) (*model.User, error) {
	token := r.Header.Get(tokenHeader)
	if token == "" {
		return nil, nil
	}
	userID, ok, err := s.deps.Sessions.Resolve(r.Context(), token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	u, err := s.deps.Users.Get(r.Context(), userID)
	if errors.Is(err, users.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := s.resolveUser(r)
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		if u == nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r.WithContext(withUser(r.Context(), u)))
	}
}

func (s *Server) optionalUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := s.resolveUser(r)
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		if u != nil {
			r = r.WithContext(withUser(r.Context(), u))
		}
		next(w, r)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	respondError(w, http.StatusInternalServerError, "Internal server error")
}
