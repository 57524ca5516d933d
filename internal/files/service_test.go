package files

import (
	"context"
	"encoding/base64"
	"errors"
	"math"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dharsanguruparan/filesmanager/internal/ident"
	"github.com/dharsanguruparan/filesmanager/internal/model"
	"github.com/dharsanguruparan/filesmanager/internal/queue"
	"github.com/dharsanguruparan/filesmanager/internal/repository"
	"github.com/dharsanguruparan/filesmanager/internal/storage"
	"github.com/dharsanguruparan/filesmanager/internal/thumbnail"
)

// memStore mimics repository.FileRepository on a map.
type memStore struct {
	mu        sync.Mutex
	files     map[string]model.File
	inserts   int
	gets      int
	offsets   []int
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{files: make(map[string]model.File)}
}

func (m *memStore) Insert(_ context.Context, f *model.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	f.ID = ident.New()
	m.files[f.ID] = *f
	m.inserts++
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*model.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	f, ok := m.files[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &f, nil
}

func (m *memStore) List(_ context.Context, owner string, parent model.Parent, offset, limit int) ([]model.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offsets = append(m.offsets, offset)
	var out []model.File
	for _, f := range m.files {
		if f.UserID == owner && f.ParentID == parent {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return []model.File{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) SetPublic(_ context.Context, id, owner string, isPublic bool) (*model.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok || f.UserID != owner {
		return nil, repository.ErrNotFound
	}
	f.IsPublic = isPublic
	m.files[id] = f
	return &f, nil
}

type fakeThumbs struct {
	payloads []queue.ThumbnailPayload
	err      error
}

func (q *fakeThumbs) EnqueueThumbnail(_ context.Context, p queue.ThumbnailPayload) error {
	if q.err != nil {
		return q.err
	}
	q.payloads = append(q.payloads, p)
	return nil
}

type failingBlobs struct{ storage.MemoryStore }

func (f *failingBlobs) Write(context.Context, string, []byte) error {
	return errors.New("disk full")
}

type fixture struct {
	svc    *Service
	store  *memStore
	blobs  *storage.MemoryStore
	thumbs *fakeThumbs
	logs   *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	f := &fixture{
		store:  newMemStore(),
		blobs:  storage.NewMemoryStore(),
		thumbs: &fakeThumbs{},
		logs:   logs,
	}
	f.svc = NewService(f.store, f.blobs, f.thumbs, zap.New(core))
	return f
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

var (
	alice = ident.New()
	bob   = ident.New()
)

func TestCreate_FolderThenGet(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	folder, err := fx.svc.Create(ctx, alice, CreateRequest{Name: "docs", Type: model.TypeFolder})
	require.NoError(t, err)
	require.True(t, ident.Valid(folder.ID))
	require.Empty(t, folder.LocalPath)
	require.Empty(t, fx.blobs.Names())

	got, err := fx.svc.Get(ctx, folder.ID, alice)
	require.NoError(t, err)
	require.Equal(t, folder, got)
}

func TestCreate_FileWritesBlobFirst(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	f, err := fx.svc.Create(ctx, alice, CreateRequest{Name: "a.txt", Type: model.TypeFile, Data: b64("hello")})
	require.NoError(t, err)
	require.NotEmpty(t, f.LocalPath)

	data, err := fx.blobs.Read(ctx, f.LocalPath)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)
	require.Empty(t, fx.thumbs.payloads)
}

func TestCreate_ImageEnqueuesThumbnail(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	f, err := fx.svc.Create(ctx, alice, CreateRequest{Name: "p.png", Type: model.TypeImage, Data: b64("png")})
	require.NoError(t, err)
	require.Equal(t, []queue.ThumbnailPayload{{UserID: alice, FileID: f.ID}}, fx.thumbs.payloads)
}

func TestCreate_EnqueueFailureKeepsRecord(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	fx.thumbs.err = errors.New("redis down")

	f, err := fx.svc.Create(ctx, alice, CreateRequest{Name: "p.png", Type: model.TypeImage, Data: b64("png")})
	require.NoError(t, err)

	_, err = fx.svc.Get(ctx, f.ID, alice)
	require.NoError(t, err)
	require.Equal(t, 1, fx.logs.FilterMessage("enqueue thumbnail failed").Len())
}

func TestCreate_BlobFailureLeavesNoMetadata(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	fx.svc.blobs = &failingBlobs{}

	_, err := fx.svc.Create(ctx, alice, CreateRequest{Name: "a.txt", Type: model.TypeFile, Data: b64("x")})
	require.ErrorContains(t, err, "disk full")
	require.Zero(t, fx.store.inserts)
}

func TestCreate_ValidationOrder(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	file, err := fx.svc.Create(ctx, alice, CreateRequest{Name: "a.txt", Type: model.TypeFile, Data: b64("x")})
	require.NoError(t, err)
	missing := model.InFolder(ident.New())

	tests := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"name first", CreateRequest{Type: "bogus", ParentID: missing}, ErrMissingName},
		{"type before data", CreateRequest{Name: "x", Type: "bogus", ParentID: missing}, ErrMissingType},
		{"empty type", CreateRequest{Name: "x"}, ErrMissingType},
		{"data before parent", CreateRequest{Name: "x", Type: model.TypeImage, ParentID: missing}, ErrMissingData},
		{"file without data", CreateRequest{Name: "x", Type: model.TypeFile, IsPublic: true}, ErrMissingData},
		{"missing parent", CreateRequest{Name: "x", Type: model.TypeFolder, ParentID: missing}, ErrParentNotFound},
		{"malformed parent", CreateRequest{Name: "x", Type: model.TypeFolder, ParentID: model.InFolder("12")}, ErrParentNotFound},
		{"parent is a file", CreateRequest{Name: "x", Type: model.TypeFolder, ParentID: model.InFolder(file.ID)}, ErrParentNotFolder},
		{"bad base64", CreateRequest{Name: "x", Type: model.TypeFile, Data: "%%%"}, ErrInvalidData},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := fx.store.inserts
			_, err := fx.svc.Create(ctx, alice, tc.req)
			require.ErrorIs(t, err, tc.want)
			require.True(t, IsValidation(err))
			require.Equal(t, before, fx.store.inserts)
		})
	}
}

func TestCreate_InForeignFolder(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	folder, err := fx.svc.Create(ctx, bob, CreateRequest{Name: "shared", Type: model.TypeFolder})
	require.NoError(t, err)

	f, err := fx.svc.Create(ctx, alice, CreateRequest{Name: "a.txt", Type: model.TypeFile, Data: b64("x"), ParentID: model.InFolder(folder.ID)})
	require.NoError(t, err)
	require.Equal(t, model.InFolder(folder.ID), f.ParentID)
}

func TestGet_Visibility(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	private, err := fx.svc.Create(ctx, alice, CreateRequest{Name: "p", Type: model.TypeFolder})
	require.NoError(t, err)
	public, err := fx.svc.Create(ctx, alice, CreateRequest{Name: "q", Type: model.TypeFolder, IsPublic: true})
	require.NoError(t, err)

	_, err = fx.svc.Get(ctx, private.ID, bob)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = fx.svc.Get(ctx, private.ID, "")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = fx.svc.Get(ctx, public.ID, bob)
	require.NoError(t, err)
	_, err = fx.svc.Get(ctx, ident.New(), alice)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMalformedIDsNeverReachStore(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	_, err := fx.svc.Get(ctx, "not-an-id", alice)
	require.ErrorIs(t, err, ErrNotFound)
	_, _, err = fx.svc.ReadContent(ctx, "0", "", "")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = fx.svc.SetVisibility(ctx, "xyz", alice, true)
	require.ErrorIs(t, err, ErrNotFound)
	files, err := fx.svc.List(ctx, alice, model.InFolder("nope"), 0)
	require.NoError(t, err)
	require.Empty(t, files)
	require.Zero(t, fx.store.gets)
}

func TestSetVisibility(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	f, err := fx.svc.Create(ctx, alice, CreateRequest{Name: "a.txt", Type: model.TypeFile, Data: b64("x")})
	require.NoError(t, err)

	once, err := fx.svc.SetVisibility(ctx, f.ID, alice, true)
	require.NoError(t, err)
	twice, err := fx.svc.SetVisibility(ctx, f.ID, alice, true)
	require.NoError(t, err)
	require.Equal(t, once, twice)
	require.True(t, twice.IsPublic)
	require.Equal(t, f.LocalPath, twice.LocalPath)

	_, err = fx.svc.SetVisibility(ctx, f.ID, bob, false)
	require.ErrorIs(t, err, ErrNotFound)

	got, err := fx.svc.Get(ctx, f.ID, bob)
	require.NoError(t, err)
	require.True(t, got.IsPublic)
}

func TestReadContent(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	f, err := fx.svc.Create(ctx, alice, CreateRequest{Name: "notes.txt", Type: model.TypeFile, Data: b64("secret")})
	require.NoError(t, err)

	_, _, err = fx.svc.ReadContent(ctx, f.ID, "", "")
	require.ErrorIs(t, err, ErrNotFound)
	_, _, err = fx.svc.ReadContent(ctx, f.ID, bob, "")
	require.ErrorIs(t, err, ErrNotFound)

	got, data, err := fx.svc.ReadContent(ctx, f.ID, alice, "")
	require.NoError(t, err)
	require.Equal(t, f.ID, got.ID)
	require.Equal(t, []byte("secret"), data)

	_, err = fx.svc.SetVisibility(ctx, f.ID, alice, true)
	require.NoError(t, err)
	_, data, err = fx.svc.ReadContent(ctx, f.ID, "", "")
	require.NoError(t, err)
	require.Equal(t, []byte("secret"), data)
}

func TestReadContent_Folder(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	folder, err := fx.svc.Create(ctx, alice, CreateRequest{Name: "docs", Type: model.TypeFolder, IsPublic: true})
	require.NoError(t, err)

	_, _, err = fx.svc.ReadContent(ctx, folder.ID, alice, "")
	require.ErrorIs(t, err, ErrNoContent)
}

func TestReadContent_Sizes(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	img, err := fx.svc.Create(ctx, alice, CreateRequest{Name: "p.png", Type: model.TypeImage, Data: b64("original")})
	require.NoError(t, err)

	_, _, err = fx.svc.ReadContent(ctx, img.ID, alice, "500")
	require.ErrorIs(t, err, ErrVariantNotFound)
	require.NotErrorIs(t, err, ErrNotFound)

	require.NoError(t, fx.blobs.Write(ctx, thumbnail.VariantName(img.LocalPath, 250), []byte("small")))
	_, data, err := fx.svc.ReadContent(ctx, img.ID, alice, "250")
	require.NoError(t, err)
	require.Equal(t, []byte("small"), data)

	for _, size := range []string{"300", "abc", "-1"} {
		_, _, err = fx.svc.ReadContent(ctx, img.ID, alice, size)
		require.ErrorIs(t, err, ErrInvalidSize, size)
	}

	_, _, err = fx.svc.ReadContent(ctx, img.ID, bob, "300")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestList_Pagination(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	folder, err := fx.svc.Create(ctx, alice, CreateRequest{Name: "docs", Type: model.TypeFolder})
	require.NoError(t, err)

	var created []string
	for i := 0; i < 45; i++ {
		f, err := fx.svc.Create(ctx, alice, CreateRequest{Name: "f", Type: model.TypeFile, Data: b64("x"), ParentID: model.InFolder(folder.ID)})
		require.NoError(t, err)
		created = append(created, f.ID)
	}
	_, err = fx.svc.Create(ctx, bob, CreateRequest{Name: "other", Type: model.TypeFolder})
	require.NoError(t, err)

	var seen []string
	for page, want := range []int{20, 20, 5, 0} {
		files, err := fx.svc.List(ctx, alice, model.InFolder(folder.ID), page)
		require.NoError(t, err)
		require.Len(t, files, want)
		for _, f := range files {
			seen = append(seen, f.ID)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(created)))
	require.Equal(t, created, seen)

	root, err := fx.svc.List(ctx, alice, model.Root, 0)
	require.NoError(t, err)
	require.Len(t, root, 1)
	require.Equal(t, folder.ID, root[0].ID)

	neg, err := fx.svc.List(ctx, alice, model.Root, -3)
	require.NoError(t, err)
	require.Len(t, neg, 1)
}

func TestList_PageBeyondRange(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	_, err := fx.svc.Create(ctx, alice, CreateRequest{Name: "docs", Type: model.TypeFolder})
	require.NoError(t, err)

	for _, page := range []int{461168601842738791, math.MaxInt} {
		files, err := fx.svc.List(ctx, alice, model.Root, page)
		require.NoError(t, err)
		require.Empty(t, files)
	}
	for _, offset := range fx.store.offsets {
		require.GreaterOrEqual(t, offset, 0)
	}

	last, err := fx.svc.List(ctx, alice, model.Root, math.MaxInt/PageSize)
	require.NoError(t, err)
	require.Empty(t, last)
	require.Equal(t, (math.MaxInt/PageSize)*PageSize, fx.store.offsets[len(fx.store.offsets)-1])
}

func TestCreate_InsertFailureLogsBlob(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	fx.store.insertErr = errors.New("db down")

	_, err := fx.svc.Create(ctx, alice, CreateRequest{Name: "a.txt", Type: model.TypeFile, Data: b64("x")})
	require.ErrorContains(t, err, "db down")

	names := fx.blobs.Names()
	require.Len(t, names, 1)
	logged := fx.logs.FilterMessage("orphaned blob after failed insert").All()
	require.Len(t, logged, 1)
	require.Equal(t, names[0], logged[0].ContextMap()["blob"])
}

func TestContentType(t *testing.T) {
	require.Equal(t, "image/png", ContentType("a.png"))
	require.Contains(t, ContentType("report.html"), "text/html")
	require.Equal(t, "text/plain; charset=utf-8", ContentType("README"))
	require.Equal(t, "text/plain; charset=utf-8", ContentType("data.unknownext"))
}
