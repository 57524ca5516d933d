// Package files owns file and folder metadata: creation with its hierarchy
// checks, visibility changes, paginated listing and content reads.
package files

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"mime"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/filesmanager/internal/access"
	"github.com/dharsanguruparan/filesmanager/internal/ident"
	"github.com/dharsanguruparan/filesmanager/internal/model"
	"github.com/dharsanguruparan/filesmanager/internal/queue"
	"github.com/dharsanguruparan/filesmanager/internal/repository"
	"github.com/dharsanguruparan/filesmanager/internal/storage"
	"github.com/dharsanguruparan/filesmanager/internal/thumbnail"
)

// PageSize is the maximum number of files returned by List.
const PageSize = 20

// Store is the metadata persistence used by Service.
type Store interface {
	Insert(ctx context.Context, f *model.File) error
	Get(ctx context.Context, id string) (*model.File, error)
	List(ctx context.Context, owner string, parent model.Parent, offset, limit int) ([]model.File, error)
	SetPublic(ctx context.Context, id, owner string, isPublic bool) (*model.File, error)
}

// ThumbnailQueue hands image uploads to the thumbnail worker.
type ThumbnailQueue interface {
	EnqueueThumbnail(ctx context.Context, payload queue.ThumbnailPayload) error
}

// CreateRequest describes a new file or folder. Data is the base64 encoded
// content and must be empty only for folders.
type CreateRequest struct {
	Name     string         `json:"name"`
	Type     model.FileType `json:"type"`
	IsPublic bool           `json:"isPublic"`
	ParentID model.Parent   `json:"parentId"`
	Data     string         `json:"data"`
}

// Service implements the file hierarchy operations.
type Service struct {
	store  Store
	blobs  storage.BlobStore
	thumbs ThumbnailQueue
	logger *zap.Logger
}

// NewService constructs a Service.
func NewService(store Store, blobs storage.BlobStore, thumbs ThumbnailQueue, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		blobs:  blobs,
		thumbs: thumbs,
		logger: logger,
	}
}

// Create validates req and stores a new file owned by owner. For files and
// images the content blob is written before the metadata record.
func (s *Service) Create(ctx context.Context, owner string, req CreateRequest) (*model.File, error) {
	if req.Name == "" {
		return nil, ErrMissingName
	}
	if !req.Type.Valid() {
		return nil, ErrMissingType
	}
	if req.Type != model.TypeFolder && req.Data == "" {
		return nil, ErrMissingData
	}
	if !req.ParentID.IsRoot() {
		if err := s.checkParent(ctx, req.ParentID.ID()); err != nil {
			return nil, err
		}
	}

	f := &model.File{
		UserID:   owner,
		Name:     req.Name,
		Type:     req.Type,
		IsPublic: req.IsPublic,
		ParentID: req.ParentID,
	}
	if req.Type != model.TypeFolder {
		content, err := base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			return nil, ErrInvalidData
		}
		name := uuid.NewString()
		if err := s.blobs.Write(ctx, name, content); err != nil {
			return nil, fmt.Errorf("write blob: %w", err)
		}
		f.LocalPath = name
	}
	if err := s.store.Insert(ctx, f); err != nil {
		// The blob is not removed; its name is logged for reclamation.
		if f.LocalPath != "" {
			s.logger.Warn("orphaned blob after failed insert",
				zap.String("blob", f.LocalPath),
				zap.String("user_id", owner),
				zap.Error(err),
			)
		}
		return nil, err
	}
	if f.Type == model.TypeImage {
		payload := queue.ThumbnailPayload{UserID: owner, FileID: f.ID}
		if err := s.thumbs.EnqueueThumbnail(ctx, payload); err != nil {
			s.logger.Error("enqueue thumbnail failed",
				zap.String("file_id", f.ID),
				zap.String("user_id", owner),
				zap.Error(err),
			)
		}
	}
	return f, nil
}

func (s *Service) checkParent(ctx context.Context, parentID string) error {
	if !ident.Valid(parentID) {
		return ErrParentNotFound
	}
	parent, err := s.store.Get(ctx, parentID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrParentNotFound
	}
	if err != nil {
		return err
	}
	if parent.Type != model.TypeFolder {
		return ErrParentNotFolder
	}
	return nil
}

// Get returns the file if requester may see it.
func (s *Service) Get(ctx context.Context, id, requester string) (*model.File, error) {
	f, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.Allowed(f, requester) {
		return nil, ErrNotFound
	}
	return f, nil
}

// List returns one page of owner's files directly under parent, newest first.
// page is zero based.
func (s *Service) List(ctx context.Context, owner string, parent model.Parent, page int) ([]model.File, error) {
	if page < 0 {
		page = 0
	}
	if page > math.MaxInt/PageSize {
		return []model.File{}, nil
	}
	if !parent.IsRoot() && !ident.Valid(parent.ID()) {
		return []model.File{}, nil
	}
	return s.store.List(ctx, owner, parent, page*PageSize, PageSize)
}

// SetVisibility sets is_public on a file owned by requester.
func (s *Service) SetVisibility(ctx context.Context, id, requester string, isPublic bool) (*model.File, error) {
	if !ident.Valid(id) || !ident.Valid(requester) {
		return nil, ErrNotFound
	}
	f, err := s.store.SetPublic(ctx, id, requester, isPublic)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ReadContent returns the file and its bytes. size selects a thumbnail
// variant; "" means the original upload.
func (s *Service) ReadContent(ctx context.Context, id, requester, size string) (*model.File, []byte, error) {
	f, err := s.Get(ctx, id, requester)
	if err != nil {
		return nil, nil, err
	}
	if f.Type == model.TypeFolder {
		return nil, nil, ErrNoContent
	}
	name := f.LocalPath
	if size != "" {
		width, err := strconv.Atoi(size)
		if err != nil || !thumbnail.SupportedWidth(width) {
			return nil, nil, ErrInvalidSize
		}
		name = thumbnail.VariantName(f.LocalPath, width)
	}
	data, err := s.blobs.Read(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		if size != "" {
			return nil, nil, ErrVariantNotFound
		}
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read blob: %w", err)
	}
	return f, data, nil
}

func (s *Service) lookup(ctx context.Context, id string) (*model.File, error) {
	if !ident.Valid(id) {
		return nil, ErrNotFound
	}
	f, err := s.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ContentType derives a MIME type from the file name extension.
func ContentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "text/plain; charset=utf-8"
}
