package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"os"
	"sync"
	"testing"
	"time"

	"taskhub/internal/models"
	"taskhub/internal/repository/memstore"
	"taskhub/internal/storage"
	"taskhub/pkg/crypto"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memCache adalah TaskCache di memori dengan semantik yang sama seperti
// versi Redis: Add tidak menimpa entry yang sudah ada.
type memCache struct {
	mu    sync.Mutex
	tasks map[int64]models.Task
}

func newMemCache() *memCache {
	return &memCache{tasks: map[int64]models.Task{}}
}

func (c *memCache) Get(_ context.Context, id int64) (models.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tasks[id]
	return t, ok
}

func (c *memCache) Set(_ context.Context, t models.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks[t.ID] = t
}

func (c *memCache) Add(_ context.Context, t models.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tasks[t.ID]; !ok {
		c.tasks[t.ID] = t
	}
}

func (c *memCache) Invalidate(_ context.Context, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tasks, id)
}

type testEnv struct {
	store       *memstore.Store
	cache       *memCache
	blobs       *storage.Local
	tokens      *TokenIssuer
	auth        *AuthService
	tasks       *TaskService
	attachments *AttachmentService
	users       *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memstore.New()
	blobs, err := storage.NewLocal(t.TempDir(), "/storage")
	require.NoError(t, err)
	sealer, err := crypto.NewSealer("test-session-key")
	require.NoError(t, err)

	tokens := NewTokenIssuer(TokenConfig{
		AccessSecret:  []byte("access-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshSecret: []byte("refresh-secret"),
		RefreshTTL:    time.Hour,
	})
	auth, err := NewAuthService(store.Users(), store.Counters(), AuthOptions{
		Tokens:     tokens,
		Sealer:     sealer,
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	cache := newMemCache()

	return &testEnv{
		store:       store,
		cache:       cache,
		blobs:       blobs,
		tokens:      tokens,
		auth:        auth,
		tasks:       NewTaskService(store.Tasks(), store.Counters(), blobs, cache),
		attachments: NewAttachmentService(store.Users(), store.Tasks(), blobs, cache),
		users:       NewUserService(auth, store.Users(), store.Tasks(), blobs, cache),
	}
}

// register membuat user dengan role user dan mengembalikan identitasnya.
func (e *testEnv) register(t *testing.T, username string) models.Identity {
	t.Helper()
	u, err := e.auth.Register(context.Background(), RegisterInput{Username: username, Password: "secret1"})
	require.NoError(t, err)
	return models.Identity{ID: u.ID, Username: u.Username, Role: u.Role}
}

func (e *testEnv) admin(t *testing.T, username string) models.Identity {
	t.Helper()
	u, err := e.users.Create(context.Background(), CreateUserInput{Username: username, Password: "secret1", Role: models.RoleAdmin})
	require.NoError(t, err)
	return models.Identity{ID: u.ID, Username: u.Username, Role: u.Role}
}

// blobExists memeriksa apakah file untuk referensi ref masih ada di disk.
func (e *testEnv) blobExists(t *testing.T, ref string) bool {
	t.Helper()
	full, err := e.blobs.Resolve(ref)
	require.NoError(t, err)
	_, err = os.Stat(full)
	return err == nil
}

// uploadFile membangun *multipart.FileHeader seperti yang diterima handler.
func uploadFile(t *testing.T, field, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	require.Len(t, form.File[field], 1)
	return form.File[field][0]
}
