package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskhub/internal/models"

	"github.com/lib/pq"
)

const userColumns = "ref, id, username, email, password, role, session_token, profile_picture, created_at, updated_at"

type UserRepository struct {
	db      *sql.DB
	timeout time.Duration
}

func NewUserRepository(db *sql.DB, timeout time.Duration) *UserRepository {
	return &UserRepository{db: db, timeout: timeout}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		u       models.User
		id      sql.NullInt64
		email   sql.NullString
		token   sql.NullString
		picture sql.NullString
		role    string
	)
	err := row.Scan(&u.Ref, &id, &u.Username, &email, &u.PasswordHash, &role, &token, &picture, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	u.ID = id.Int64
	u.Role = models.Role(role)
	u.Email = nullableString(email)
	u.SessionToken = nullableString(token)
	u.ProfileImage = nullableString(picture)
	return u, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// Create menyimpan user baru. Unique violation diterjemahkan menjadi
// ErrDuplicateUsername atau ErrDuplicateEmail.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var id sql.NullInt64
	if u.ID != 0 {
		id = sql.NullInt64{Int64: u.ID, Valid: true}
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (ref, id, username, email, password, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		u.Ref, id, u.Username, u.Email, u.PasswordHash, string(u.Role),
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if strings.Contains(pqErr.Constraint, "email") {
				return models.ErrDuplicateEmail
			}
			return models.ErrDuplicateUsername
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (models.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	return scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg))
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (models.User, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *UserRepository) FindByRef(ctx context.Context, ref string) (models.User, error) {
	return r.findOne(ctx, "ref = $1", ref)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, "username = $1", username)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, "email = $1", email)
}

func (r *UserRepository) AssignID(ctx context.Context, ref string, id int64) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET id = $1, updated_at = CURRENT_TIMESTAMP WHERE ref = $2 AND id IS NULL", id, ref)
	if err != nil {
		return false, fmt.Errorf("assign id: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *UserRepository) SetSessionToken(ctx context.Context, id int64, token *string) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, "UPDATE users SET session_token = $1 WHERE id = $2", token, id); err != nil {
		return fmt.Errorf("set session token: %w", err)
	}
	return nil
}

// SwapProfileImage mengunci baris user, mengganti referensi foto, dan
// mengembalikan referensi lama dalam satu statement.
func (r *UserRepository) SwapProfileImage(ctx context.Context, id int64, path *string) (*string, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var old sql.NullString
	err := r.db.QueryRowContext(ctx, `
		WITH prev AS (
			SELECT id, profile_picture FROM users WHERE id = $2 FOR UPDATE
		)
		UPDATE users u SET profile_picture = $1, updated_at = CURRENT_TIMESTAMP
		FROM prev WHERE u.id = prev.id
		RETURNING prev.profile_picture`, path, id).Scan(&old)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("swap profile picture: %w", err)
	}
	return nullableString(old), nil
}

func (r *UserRepository) List(ctx context.Context, q models.UserQuery) ([]models.User, int, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	where := "role = 'user'"
	args := []any{}
	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		where += " AND username ILIKE $1"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf("SELECT %s FROM users WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		userColumns, where, n+1, n+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}
	return users, total, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// escapeLike meng-escape karakter wildcard LIKE agar pencarian bersifat substring biasa.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
