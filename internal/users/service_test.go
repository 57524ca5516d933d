package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/dharsanguruparan/filesmanager/internal/ident"
	"github.com/dharsanguruparan/filesmanager/internal/model"
	"github.com/dharsanguruparan/filesmanager/internal/queue"
	"github.com/dharsanguruparan/filesmanager/internal/repository"
)

type memStore struct {
	byID map[string]model.User
}

func (m *memStore) Create(_ context.Context, u *model.User) error {
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = ident.New()
	m.byID[u.ID] = *u
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeWelcome struct {
	payloads []queue.WelcomePayload
	err      error
}

func (f *fakeWelcome) EnqueueWelcome(_ context.Context, p queue.WelcomePayload) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, p)
	return nil
}

func newTestService(logger *zap.Logger) (*Service, *fakeWelcome) {
	welcome := &fakeWelcome{}
	svc := NewService(&memStore{byID: map[string]model.User{}}, welcome, logger)
	svc.cost = bcrypt.MinCost
	return svc, welcome
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc, welcome := newTestService(zap.NewNop())

	u, err := svc.Register(ctx, "bob@dylan.com", "toto1234!")
	require.NoError(t, err)
	require.True(t, ident.Valid(u.ID))
	require.NotEqual(t, "toto1234!", u.PasswordHash)
	require.Equal(t, []queue.WelcomePayload{{UserID: u.ID}}, welcome.payloads)

	_, err = svc.Register(ctx, "bob@dylan.com", "other")
	require.ErrorIs(t, err, ErrAlreadyExists)
	require.Len(t, welcome.payloads, 1)
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(zap.NewNop())

	_, err := svc.Register(ctx, "", "")
	require.ErrorIs(t, err, ErrMissingEmail)
	_, err = svc.Register(ctx, "a@b.c", "")
	require.ErrorIs(t, err, ErrMissingPassword)
}

func TestRegister_EnqueueFailureLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	svc, welcome := newTestService(zap.New(core))
	welcome.err = errors.New("redis down")

	u, err := svc.Register(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.Equal(t, 1, logs.FilterMessage("enqueue welcome failed").Len())
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(zap.NewNop())
	registered, err := svc.Register(ctx, "a@b.c", "secret")
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "a@b.c", "secret")
	require.NoError(t, err)
	require.Equal(t, registered.ID, u.ID)

	_, err = svc.Authenticate(ctx, "a@b.c", "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Authenticate(ctx, "nobody@b.c", "secret")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Authenticate(ctx, "", "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(zap.NewNop())
	registered, err := svc.Register(ctx, "a@b.c", "secret")
	require.NoError(t, err)

	u, err := svc.Get(ctx, registered.ID)
	require.NoError(t, err)
	require.Equal(t, "a@b.c", u.Email)

	_, err = svc.Get(ctx, ident.New())
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(ctx, "garbage")
	require.ErrorIs(t, err, ErrNotFound)
}
