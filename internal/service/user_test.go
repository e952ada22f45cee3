package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"taskhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserRoles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.users.Create(ctx, CreateUserInput{Username: "carol", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)

	_, err = env.users.Create(ctx, CreateUserInput{Username: "dave", Password: "secret1", Role: "superuser"})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = env.users.Create(ctx, CreateUserInput{Username: "carol", Password: "secret1"})
	assert.ErrorIs(t, err, models.ErrDuplicateUsername)
}

func TestListUsersExcludesAdmins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.admin(t, "root")
	for i := 0; i < 3; i++ {
		env.register(t, fmt.Sprintf("member%d", i))
	}
	env.register(t, "someone")

	page, err := env.users.List(ctx, models.UserQuery{})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Pagination.Total)
	for _, u := range page.Users {
		assert.Equal(t, models.RoleUser, u.Role)
	}

	page, err = env.users.List(ctx, models.UserQuery{Search: "MEMBER", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Users, 2)
	assert.Equal(t, models.Pagination{Total: 3, Page: 1, Limit: 2, TotalPages: 2}, page.Pagination)
}

func TestDeleteUserCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	task, err := env.tasks.Create(ctx, alice.ID, CreateTaskInput{Title: "Alice task"})
	require.NoError(t, err)
	att, err := env.attachments.UploadTaskAttachment(ctx, alice, task.ID, uploadFile(t, "attachment", "a.txt", []byte("a")))
	require.NoError(t, err)
	profile, err := env.attachments.UploadProfileImage(ctx, alice.ID, uploadFile(t, "profilePicture", "a.png", []byte("p")))
	require.NoError(t, err)
	bobTask, err := env.tasks.Create(ctx, bob.ID, CreateTaskInput{Title: "Bob task"})
	require.NoError(t, err)

	require.NoError(t, env.users.Delete(ctx, alice.ID))

	_, err = env.store.Users().FindByID(ctx, alice.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = env.store.Tasks().FindByID(ctx, task.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.False(t, env.blobExists(t, att.Path))
	assert.False(t, env.blobExists(t, profile))

	_, err = env.tasks.Get(ctx, bob.ID, bobTask.ID)
	assert.NoError(t, err)

	err = env.users.Delete(ctx, alice.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteAdminForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	root := env.admin(t, "root")

	err := env.users.Delete(ctx, root.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = env.store.Users().FindByID(ctx, root.ID)
	assert.NoError(t, err)
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.users.SeedAdmin(ctx, "root", "rootpass"))
	require.NoError(t, env.users.SeedAdmin(ctx, "root", "rootpass"))
	require.NoError(t, env.users.SeedAdmin(ctx, "", ""))

	u, err := env.store.Users().FindByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
}

func TestDeleteUserInvalidatesCachedTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	task, err := env.tasks.Create(ctx, alice.ID, CreateTaskInput{Title: "Alice task"})
	require.NoError(t, err)
	_, err = env.tasks.Get(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	_, ok := env.cache.Get(ctx, task.ID)
	require.True(t, ok)

	require.NoError(t, env.users.Delete(ctx, alice.ID))

	_, ok = env.cache.Get(ctx, task.ID)
	assert.False(t, ok)
	_, err = env.tasks.Get(ctx, alice.ID, task.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// brokenUsers gagal saat menghapus baris user.
type brokenUsers struct {
	UserRepository
}

func (brokenUsers) Delete(context.Context, int64) error {
	return errors.New("db down")
}

func TestDeleteUserRemovesBlobsWhenUserDeleteFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	task, err := env.tasks.Create(ctx, alice.ID, CreateTaskInput{Title: "Alice task"})
	require.NoError(t, err)
	att, err := env.attachments.UploadTaskAttachment(ctx, alice, task.ID, uploadFile(t, "attachment", "a.txt", []byte("a")))
	require.NoError(t, err)
	_, err = env.tasks.Get(ctx, alice.ID, task.ID)
	require.NoError(t, err)

	users := NewUserService(env.auth, brokenUsers{env.store.Users()}, env.store.Tasks(), env.blobs, env.cache)
	err = users.Delete(ctx, alice.ID)
	assert.EqualError(t, err, "db down")

	_, err = env.store.Tasks().FindByID(ctx, task.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.False(t, env.blobExists(t, att.Path))
	_, ok := env.cache.Get(ctx, task.ID)
	assert.False(t, ok)

	_, err = env.store.Users().FindByID(ctx, alice.ID)
	assert.NoError(t, err)
}
