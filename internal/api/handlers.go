package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/dharsanguruparan/filesmanager/internal/files"
	"github.com/dharsanguruparan/filesmanager/internal/model"
	"github.com/dharsanguruparan/filesmanager/internal/thumbnail"
	"github.com/dharsanguruparan/filesmanager/internal/users"
)

const probeTimeout = 2 * time.Second

// writeError maps service errors onto status codes. Anything unrecognised is
// an infrastructure failure and is logged, not echoed.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case files.IsValidation(err),
		errors.Is(err, users.ErrMissingEmail),
		errors.Is(err, users.ErrMissingPassword),
		errors.Is(err, users.ErrAlreadyExists):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, files.ErrNotFound),
		errors.Is(err, files.ErrVariantNotFound),
		errors.Is(err, users.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, users.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "Unauthorized")
	default:
		s.internalError(w, r, err)
	}
}

func probe(ctx context.Context, p Probe) bool {
	if p == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return p(ctx) == nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{
		"redis": probe(r.Context(), s.deps.RedisProbe),
		"db":    probe(r.Context(), s.deps.DBProbe),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	nUsers, err := s.deps.UserCount.Count(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	nFiles, err := s.deps.FileCount.Count(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"users": nUsers, "files": nFiles})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	u, err := s.deps.Users.Authenticate(r.Context(), email, password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	token, err := s.deps.Sessions.Issue(r.Context(), u.ID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Sessions.Revoke(r.Context(), r.Header.Get(tokenHeader)); err != nil {
		s.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	u, err := s.deps.Users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, userFrom(r.Context()))
}

func (s *Server) handleCreateFile(w http.ResponseWriter, r *http.Request) {
	var req files.CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	f, err := s.deps.Files.Create(r.Context(), userFrom(r.Context()).ID, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, f)
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	f, err := s.deps.Files.Get(r.Context(), mux.Vars(r)["id"], userFrom(r.Context()).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, f)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil {
		page = 0
	}
	list, err := s.deps.Files.List(r.Context(), userFrom(r.Context()).ID, model.ParseParent(q.Get("parentId")), page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []model.File{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleVisibility(isPublic bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := s.deps.Files.SetVisibility(r.Context(), mux.Vars(r)["id"], userFrom(r.Context()).ID, isPublic)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, f)
	}
}

func (s *Server) handleFileData(w http.ResponseWriter, r *http.Request) {
	requester := ""
	if u := userFrom(r.Context()); u != nil {
		requester = u.ID
	}
	size := r.URL.Query().Get("size")
	f, data, err := s.deps.Files.ReadContent(r.Context(), mux.Vars(r)["id"], requester, size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	contentType := files.ContentType(f.Name)
	if size != "" {
		contentType = thumbnail.ContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
