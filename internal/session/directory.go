// Package session maps opaque bearer tokens to user ids in Redis.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "auth_"

// ErrUnavailable wraps failures of the underlying key-value store. It is a
// transient infrastructure condition, never "token unknown".
var ErrUnavailable = errors.New("session store unavailable")

// Directory issues, resolves and revokes tokens.
type Directory struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewDirectory returns a Directory storing tokens in rdb for ttl. A
// non-positive ttl selects DefaultTTL.
func NewDirectory(rdb redis.Cmdable, ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Directory{rdb: rdb, ttl: ttl}
}

// Issue creates a token for userID.
func (d *Directory) Issue(ctx context.Context, userID string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	if err := d.rdb.Set(ctx, key(token), userID, d.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: set token: %v", ErrUnavailable, err)
	}
	return token, nil
}

// Resolve returns the user id bound to token. ok is false when the token is
// unknown or expired. Resolving does not extend the token's lifetime.
func (d *Directory) Resolve(ctx context.Context, token string) (userID string, ok bool, err error) {
	if token == "" {
		return "", false, nil
	}
	userID, err = d.rdb.Get(ctx, key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get token: %v", ErrUnavailable, err)
	}
	return userID, true, nil
}

// Revoke deletes token. Revoking an unknown token is not an error.
func (d *Directory) Revoke(ctx context.Context, token string) error {
	if err := d.rdb.Del(ctx, key(token)).Err(); err != nil {
		return fmt.Errorf("%w: delete token: %v", ErrUnavailable, err)
	}
	return nil
}

func key(token string) string { return keyPrefix + token }

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
