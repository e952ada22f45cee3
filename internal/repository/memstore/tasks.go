package memstore

import (
	"context"
	"time"

	"taskhub/internal/models"
)

type Tasks struct{ s *Store }

func cloneTask(t *models.Task) models.Task {
	out := *t
	out.Attachments = t.Attachments.Clone()
	return out
}

func (r *Tasks) Create(_ context.Context, t *models.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := cloneTask(t)
	r.s.tasks[t.ID] = &cp
	return nil
}

func (r *Tasks) List(_ context.Context, ownerID int64, q models.TaskQuery) ([]models.Task, int, error) {
	r.s.mu.Lock()
	var matched []models.Task
	for _, t := range r.s.tasks {
		if t.OwnerID != ownerID {
			continue
		}
		if q.Search != "" && !containsFold(t.Title, q.Search) && !containsFold(t.Description, q.Search) {
			continue
		}
		matched = append(matched, cloneTask(t))
	}
	r.s.mu.Unlock()

	sortNewestFirst(matched, func(t models.Task) (int64, int64) { return t.CreatedAt.UnixNano(), t.ID })
	return page(matched, q.Offset(), q.Limit), len(matched), nil
}

func (r *Tasks) FindByID(_ context.Context, id int64) (models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return models.Task{}, models.ErrNotFound
	}
	return cloneTask(t), nil
}

func (r *Tasks) owned(ownerID, id int64) (*models.Task, error) {
	t, ok := r.s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}
	return t, nil
}

func (r *Tasks) FindOwned(_ context.Context, ownerID, id int64) (models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, err := r.owned(ownerID, id)
	if err != nil {
		return models.Task{}, err
	}
	return cloneTask(t), nil
}

func (r *Tasks) Update(_ context.Context, ownerID, id int64, patch models.TaskPatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, err := r.owned(ownerID, id)
	if err != nil {
		return err
	}
	if patch.Title != "" {
		t.Title = patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Status != "" {
		t.Status = patch.Status
	}
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *Tasks) Delete(_ context.Context, ownerID, id int64) (models.Attachments, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, err := r.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	delete(r.s.tasks, id)
	return t.Attachments.Clone(), nil
}

func (r *Tasks) DeleteByOwner(_ context.Context, ownerID int64) ([]models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	deleted := []models.Task{}
	for id, t := range r.s.tasks {
		if t.OwnerID == ownerID {
			deleted = append(deleted, cloneTask(t))
			delete(r.s.tasks, id)
		}
	}
	return deleted, nil
}

func (r *Tasks) AppendAttachment(_ context.Context, taskID int64, att models.Attachment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[taskID]
	if !ok {
		return models.ErrNotFound
	}
	t.Attachments = append(t.Attachments.Clone(), att)
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *Tasks) RemoveAttachment(_ context.Context, taskID int64, attachmentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[taskID]
	if !ok {
		return models.ErrNotFound
	}
	if _, found := t.Attachments.Find(attachmentID); !found {
		return models.ErrNotFound
	}
	t.Attachments = t.Attachments.Without(attachmentID)
	t.UpdatedAt = time.Now().UTC()
	return nil
}
