package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"taskhub/internal/models"
)

const taskColumns = "id, user_id, title, description, status, attachments, created_at, updated_at"

// TaskRepository menyimpan task di Postgres. Lampiran disimpan sebagai array
// JSONB di baris task sehingga setiap perubahan lampiran cukup satu UPDATE.
type TaskRepository struct {
	db      *sql.DB
	timeout time.Duration
}

func NewTaskRepository(db *sql.DB, timeout time.Duration) *TaskRepository {
	return &TaskRepository{db: db, timeout: timeout}
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		t      models.Task
		status string
		raw    []byte
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &status, &raw, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, models.ErrNotFound
	}
	if err != nil {
		return models.Task{}, err
	}
	t.Status = models.Status(status)
	t.Attachments, err = decodeAttachments(raw)
	if err != nil {
		return models.Task{}, err
	}
	return t, nil
}

func decodeAttachments(raw []byte) (models.Attachments, error) {
	atts := models.Attachments{}
	if len(raw) == 0 {
		return atts, nil
	}
	if err := json.Unmarshal(raw, &atts); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}
	return atts, nil
}

func (r *TaskRepository) Create(ctx context.Context, t *models.Task) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	atts := t.Attachments
	if atts == nil {
		atts = models.Attachments{}
	}
	raw, err := json.Marshal(atts)
	if err != nil {
		return err
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO tasks (id, user_id, title, description, status, attachments)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		t.ID, t.OwnerID, t.Title, t.Description, string(t.Status), string(raw),
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *TaskRepository) List(ctx context.Context, ownerID int64, q models.TaskQuery) ([]models.Task, int, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	where := "user_id = $1"
	args := []any{ownerID}
	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		where += " AND (title ILIKE $2 OR description ILIKE $2)"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		taskColumns, where, n+1, n+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, total, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id int64) (models.Task, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	return scanTask(r.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = $1", id))
}

func (r *TaskRepository) FindOwned(ctx context.Context, ownerID, id int64) (models.Task, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	return scanTask(r.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = $1 AND user_id = $2", id, ownerID))
}

// Update hanya mengubah field yang diisi. Owner dicek di klausa WHERE yang
// sama sehingga pengecekan dan perubahan terjadi atomik.
func (r *TaskRepository) Update(ctx context.Context, ownerID, id int64, patch models.TaskPatch) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = COALESCE(NULLIF($3, ''), title),
			description = COALESCE($4, description),
			status = COALESCE(NULLIF($5, ''), status),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2`,
		id, ownerID, patch.Title, patch.Description, string(patch.Status),
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectOne(res)
}

func (r *TaskRepository) Delete(ctx context.Context, ownerID, id int64) (models.Attachments, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var raw []byte
	err := r.db.QueryRowContext(ctx,
		"DELETE FROM tasks WHERE id = $1 AND user_id = $2 RETURNING attachments", id, ownerID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete task: %w", err)
	}
	return decodeAttachments(raw)
}

func (r *TaskRepository) DeleteByOwner(ctx context.Context, ownerID int64) ([]models.Task, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, "DELETE FROM tasks WHERE user_id = $1 RETURNING "+taskColumns, ownerID)
	if err != nil {
		return nil, fmt.Errorf("delete tasks: %w", err)
	}
	defer rows.Close()

	deleted := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deleted task: %w", err)
		}
		deleted = append(deleted, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deleted tasks: %w", err)
	}
	return deleted, nil
}

func (r *TaskRepository) AppendAttachment(ctx context.Context, taskID int64, att models.Attachment) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := json.Marshal(models.Attachments{att})
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET attachments = attachments || $2::jsonb, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`, taskID, string(raw))
	if err != nil {
		return fmt.Errorf("append attachment: %w", err)
	}
	return expectOne(res)
}

// RemoveAttachment membuang satu elemen dari array lampiran dengan urutan
// elemen lain tetap sama.
func (r *TaskRepository) RemoveAttachment(ctx context.Context, taskID int64, attachmentID string) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET attachments = COALESCE((
				SELECT jsonb_agg(e.a ORDER BY e.ord)
				FROM jsonb_array_elements(attachments) WITH ORDINALITY AS e(a, ord)
				WHERE e.a->>'id' <> $2
			), '[]'::jsonb),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND attachments @> jsonb_build_array(jsonb_build_object('id', $2::text))`,
		taskID, attachmentID)
	if err != nil {
		return fmt.Errorf("remove attachment: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
