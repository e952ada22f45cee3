package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"taskhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTaskDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	task, err := env.tasks.Create(ctx, alice.ID, CreateTaskInput{Title: "  Write report  "})
	require.NoError(t, err)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, models.StatusPending, task.Status)
	assert.Equal(t, alice.ID, task.OwnerID)
	assert.NotNil(t, task.Attachments)
	assert.Empty(t, task.Attachments)

	_, err = env.tasks.Create(ctx, alice.ID, CreateTaskInput{Title: "   "})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = env.tasks.Create(ctx, alice.ID, CreateTaskInput{Title: "x", Status: "done"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestTasksAreIsolatedByOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	task, err := env.tasks.Create(ctx, alice.ID, CreateTaskInput{Title: "Alice task"})
	require.NoError(t, err)

	page, err := env.tasks.List(ctx, bob.ID, models.TaskQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Tasks)
	assert.Equal(t, 0, page.Pagination.Total)

	// task milik orang lain terlihat sama seperti task yang tidak ada
	_, err = env.tasks.Get(ctx, bob.ID, task.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	err = env.tasks.Update(ctx, bob.ID, task.ID, models.TaskPatch{Title: "hijacked"})
	assert.ErrorIs(t, err, models.ErrNotFound)
	err = env.tasks.Delete(ctx, bob.ID, task.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = env.tasks.Get(ctx, bob.ID, 9999)
	assert.ErrorIs(t, err, models.ErrNotFound)

	got, err := env.tasks.Get(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice task", got.Title)
}

func TestUpdateTaskPartial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	task, err := env.tasks.Create(ctx, alice.ID, CreateTaskInput{Title: "Draft", Description: "first"})
	require.NoError(t, err)

	require.NoError(t, env.tasks.Update(ctx, alice.ID, task.ID, models.TaskPatch{Status: models.StatusCompleted}))
	got, err := env.tasks.Get(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Draft", got.Title)
	assert.Equal(t, "first", got.Description)
	assert.Equal(t, models.StatusCompleted, got.Status)

	empty := ""
	require.NoError(t, env.tasks.Update(ctx, alice.ID, task.ID, models.TaskPatch{Description: &empty}))
	got, err = env.tasks.Get(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.Description)

	err = env.tasks.Update(ctx, alice.ID, task.ID, models.TaskPatch{Status: "archived"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestListTasksSearchAndPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	for i := 0; i < 12; i++ {
		_, err := env.tasks.Create(ctx, alice.ID, CreateTaskInput{Title: fmt.Sprintf("Task %d", i)})
		require.NoError(t, err)
	}
	_, err := env.tasks.Create(ctx, alice.ID, CreateTaskInput{Title: "Groceries", Description: "buy MILK"})
	require.NoError(t, err)

	page, err := env.tasks.List(ctx, alice.ID, models.TaskQuery{Page: 2, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 5)
	assert.Equal(t, models.Pagination{Total: 13, Page: 2, Limit: 5, TotalPages: 3}, page.Pagination)

	page, err = env.tasks.List(ctx, alice.ID, models.TaskQuery{Search: "milk"})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, "Groceries", page.Tasks[0].Title)
	assert.Equal(t, models.DefaultPageSize, page.Pagination.Limit)
}

func TestDeleteTaskRemovesAttachmentFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	task, err := env.tasks.Create(ctx, alice.ID, CreateTaskInput{Title: "With file"})
	require.NoError(t, err)
	att, err := env.attachments.UploadTaskAttachment(ctx, alice, task.ID, uploadFile(t, "attachment", "notes.txt", []byte("hi")))
	require.NoError(t, err)
	require.True(t, env.blobExists(t, att.Path))

	require.NoError(t, env.tasks.Delete(ctx, alice.ID, task.ID))
	assert.False(t, env.blobExists(t, att.Path))
	_, err = env.tasks.Get(ctx, alice.ID, task.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// staleReadTasks menjalankan hook di antara pembacaan database dan
// kembalinya FindOwned, meniru Update yang selesai di tengah Get.
type staleReadTasks struct {
	TaskRepository
	once   sync.Once
	during func()
}

func (r *staleReadTasks) FindOwned(ctx context.Context, ownerID, taskID int64) (models.Task, error) {
	t, err := r.TaskRepository.FindOwned(ctx, ownerID, taskID)
	r.once.Do(r.during)
	return t, err
}

func TestGetDoesNotOverwriteFresherCacheEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	task, err := env.tasks.Create(ctx, alice.ID, CreateTaskInput{Title: "Draft"})
	require.NoError(t, err)

	writer := NewTaskService(env.store.Tasks(), env.store.Counters(), env.blobs, env.cache)
	repo := &staleReadTasks{TaskRepository: env.store.Tasks()}
	repo.during = func() {
		assert.NoError(t, writer.Update(ctx, alice.ID, task.ID, models.TaskPatch{Title: "Final"}))
	}
	reader := NewTaskService(repo, env.store.Counters(), env.blobs, env.cache)

	got, err := reader.Get(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Draft", got.Title)

	cached, ok := env.cache.Get(ctx, task.ID)
	require.True(t, ok)
	assert.Equal(t, "Final", cached.Title)

	got, err = reader.Get(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
}
