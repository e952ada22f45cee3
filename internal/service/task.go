package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskhub/internal/models"
	"taskhub/pkg/logger"

	"go.uber.org/zap"
)

type CreateTaskInput struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      models.Status `json:"status"`
}

type TaskPage struct {
	Tasks      []models.Task     `json:"tasks"`
	Pagination models.Pagination `json:"pagination"`
}

// TaskService menerapkan aturan kepemilikan: user hanya bisa melihat dan
// mengubah task miliknya sendiri.
type TaskService struct {
	tasks TaskRepository
	seq   Sequencer
	blobs BlobStore
	cache TaskCache
}

func NewTaskService(tasks TaskRepository, seq Sequencer, blobs BlobStore, cache TaskCache) *TaskService {
	if cache == nil {
		cache = nopCache{}
	}
	return &TaskService{tasks: tasks, seq: seq, blobs: blobs, cache: cache}
}

func (s *TaskService) List(ctx context.Context, ownerID int64, q models.TaskQuery) (TaskPage, error) {
	q = q.Normalize()
	q.Search = strings.TrimSpace(q.Search)
	tasks, total, err := s.tasks.List(ctx, ownerID, q)
	if err != nil {
		return TaskPage{}, fmt.Errorf("list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return TaskPage{Tasks: tasks, Pagination: models.NewPagination(total, q.Page, q.Limit)}, nil
}

// Get membaca satu task milik owner, memakai cache jika tersedia.
func (s *TaskService) Get(ctx context.Context, ownerID, taskID int64) (models.Task, error) {
	if t, ok := s.cache.Get(ctx, taskID); ok {
		if t.OwnerID != ownerID {
			return models.Task{}, models.ErrNotFound
		}
		return t, nil
	}
	t, err := s.tasks.FindOwned(ctx, ownerID, taskID)
	if err != nil {
		return models.Task{}, err
	}
	s.cache.Add(ctx, t)
	return t, nil
}

func (s *TaskService) Create(ctx context.Context, ownerID int64, in CreateTaskInput) (models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Task{}, models.NewValidationError("Title is required")
	}
	status := in.Status
	if status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		return models.Task{}, models.NewValidationError("Invalid status")
	}

	id, err := s.seq.NextValue(ctx, SeqTaskID)
	if err != nil {
		return models.Task{}, fmt.Errorf("next task id: %w", err)
	}
	now := time.Now().UTC()
	task := models.Task{
		ID:          id,
		OwnerID:     ownerID,
		Title:       title,
		Description: in.Description,
		Status:      status,
		Attachments: models.Attachments{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.Create(ctx, &task); err != nil {
		return models.Task{}, fmt.Errorf("create task: %w", err)
	}
	logger.AuditLogger.Info("Task created successfully", zap.Int64("task_id", id), zap.Int64("user_id", ownerID))
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, ownerID, taskID int64, patch models.TaskPatch) error {
	patch.Title = strings.TrimSpace(patch.Title)
	if patch.Status != "" && !patch.Status.Valid() {
		return models.NewValidationError("Invalid status")
	}
	if err := s.tasks.Update(ctx, ownerID, taskID, patch); err != nil {
		return err
	}
	s.refreshCache(ctx, ownerID, taskID)
	logger.AuditLogger.Info("Task updated", zap.Int64("task_id", taskID))
	return nil
}

// Delete menghapus task lalu file lampirannya. Kegagalan menghapus file
// hanya dicatat; metadata task tetap terhapus.
func (s *TaskService) Delete(ctx context.Context, ownerID, taskID int64) error {
	atts, err := s.tasks.Delete(ctx, ownerID, taskID)
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, taskID)
	removeBlobs(s.blobs, atts)
	logger.AuditLogger.Info("Task deleted", zap.Int64("task_id", taskID))
	return nil
}

// refreshCache menulis ulang entry cache dengan isi terbaru. Get yang sedang
// berjalan dengan salinan lama memakai Add, jadi tidak bisa menimpanya.
func (s *TaskService) refreshCache(ctx context.Context, ownerID, taskID int64) {
	t, err := s.tasks.FindOwned(ctx, ownerID, taskID)
	if err != nil {
		s.cache.Invalidate(ctx, taskID)
		return
	}
	s.cache.Set(ctx, t)
}

func removeBlobs(blobs BlobStore, atts models.Attachments) {
	for _, att := range atts {
		removeBlob(blobs, att.Path)
	}
}

func removeBlob(blobs BlobStore, ref string) {
	if ref == "" {
		return
	}
	if err := blobs.Remove(ref); err != nil {
		logger.ErrorLogger.Error("Error removing file", zap.String("path", ref), zap.Error(err))
	}
}
