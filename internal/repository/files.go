package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dharsanguruparan/filesmanager/internal/ident"
	"github.com/dharsanguruparan/filesmanager/internal/model"
)

const fileColumns = `id, user_id, name, type, is_public, parent_id, local_path`

// FileRepository persists file and folder metadata in the files table.
type FileRepository struct {
	db DBTX
}

// NewFileRepository constructs a repository.
func NewFileRepository(db DBTX) *FileRepository {
	return &FileRepository{db: db}
}

// Insert assigns f a new id and stores it.
func (r *FileRepository) Insert(ctx context.Context, f *model.File) error {
	id := ident.New()
	_, err := r.db.Exec(ctx, `
		INSERT INTO files (id, user_id, name, type, is_public, parent_id, local_path, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, id, f.UserID, f.Name, string(f.Type), f.IsPublic, nullable(f.ParentID.ID()), nullable(f.LocalPath), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	f.ID = id
	return nil
}

// Get returns the file with the given id regardless of its owner.
func (r *FileRepository) Get(ctx context.Context, id string) (*model.File, error) {
	row := r.db.QueryRow(ctx, `SELECT `+fileColumns+` FROM files WHERE id=$1`, id)
	return scanFile(row)
}

// GetOwned returns the file with the given id only when owner owns it.
func (r *FileRepository) GetOwned(ctx context.Context, id, owner string) (*model.File, error) {
	row := r.db.QueryRow(ctx, `SELECT `+fileColumns+` FROM files WHERE id=$1 AND user_id=$2`, id, owner)
	return scanFile(row)
}

// List returns owner's files directly under parent, newest first.
func (r *FileRepository) List(ctx context.Context, owner string, parent model.Parent, offset, limit int) ([]model.File, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if parent.IsRoot() {
		rows, err = r.db.Query(ctx, `
			SELECT `+fileColumns+` FROM files
			WHERE user_id=$1 AND parent_id IS NULL
			ORDER BY id DESC OFFSET $2 LIMIT $3
		`, owner, offset, limit)
	} else {
		rows, err = r.db.Query(ctx, `
			SELECT `+fileColumns+` FROM files
			WHERE user_id=$1 AND parent_id=$2
			ORDER BY id DESC OFFSET $3 LIMIT $4
		`, owner, parent.ID(), offset, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()
	out := make([]model.File, 0, limit)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return out, nil
}

// SetPublic updates is_public on a file owned by owner and returns the
// updated record.
func (r *FileRepository) SetPublic(ctx context.Context, id, owner string, isPublic bool) (*model.File, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE files SET is_public=$1
		WHERE id=$2 AND user_id=$3
		RETURNING `+fileColumns, isPublic, id, owner)
	return scanFile(row)
}

// Count returns the number of stored files and folders.
func (r *FileRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM files`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return n, nil
}

func scanFile(row pgx.Row) (*model.File, error) {
	var (
		f         model.File
		fileType  string
		parentID  *string
		localPath *string
	)
	if err := row.Scan(&f.ID, &f.UserID, &f.Name, &fileType, &f.IsPublic, &parentID, &localPath); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan file: %w", err)
	}
	f.Type = model.FileType(fileType)
	if parentID != nil {
		f.ParentID = model.InFolder(*parentID)
	}
	if localPath != nil {
		f.LocalPath = *localPath
	}
	return &f, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
