package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskhub/internal/models"
	"taskhub/pkg/logger"

	"go.uber.org/zap"
)

type CreateUserInput struct {
	Username string      `json:"username" validate:"required"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=admin user"`
}

type UserPage struct {
	Users      []models.PublicUser `json:"users"`
	Pagination models.Pagination   `json:"pagination"`
}

// UserService adalah operasi administrasi akun, hanya untuk admin.
type UserService struct {
	auth  *AuthService
	users UserRepository
	tasks TaskRepository
	blobs BlobStore
	cache TaskCache
}

func NewUserService(auth *AuthService, users UserRepository, tasks TaskRepository, blobs BlobStore, cache TaskCache) *UserService {
	if cache == nil {
		cache = nopCache{}
	}
	return &UserService{auth: auth, users: users, tasks: tasks, blobs: blobs, cache: cache}
}

// List hanya menampilkan akun dengan role user.
func (s *UserService) List(ctx context.Context, q models.UserQuery) (UserPage, error) {
	q = q.Normalize()
	q.Search = strings.TrimSpace(q.Search)
	users, total, err := s.users.List(ctx, q)
	if err != nil {
		return UserPage{}, fmt.Errorf("list users: %w", err)
	}
	out := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return UserPage{Users: out, Pagination: models.NewPagination(total, q.Page, q.Limit)}, nil
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (models.PublicUser, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := s.auth.validate.Struct(in); err != nil {
		return models.PublicUser{}, validationMessage(err)
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	user, err := s.auth.createUser(ctx, in.Username, in.Password, "", in.Role)
	if err != nil {
		return models.PublicUser{}, err
	}
	logger.AuditLogger.Info("User created by admin", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user.Public(), nil
}

// Delete menghapus akun user beserta semua task dan filenya. Akun admin
// tidak bisa dihapus.
func (s *UserService) Delete(ctx context.Context, targetID int64) error {
	user, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return err
	}
	if user.Role.IsAdmin() {
		logger.SecurityLogger.Warn("Attempt to delete admin user", zap.Int64("target_id", targetID))
		return fmt.Errorf("cannot delete admin user: %w", models.ErrForbidden)
	}

	deleted, err := s.tasks.DeleteByOwner(ctx, targetID)
	if err != nil {
		return fmt.Errorf("delete user tasks: %w", err)
	}
	// task sudah hilang dari database: bersihkan cache dan file lampirannya
	// sekarang, walaupun hapus baris user di bawah gagal
	removed := 0
	for _, t := range deleted {
		s.cache.Invalidate(ctx, t.ID)
		removeBlobs(s.blobs, t.Attachments)
		removed += len(t.Attachments)
	}

	if err := s.users.Delete(ctx, targetID); err != nil {
		return err
	}
	if user.ProfileImage != nil {
		removeBlob(s.blobs, *user.ProfileImage)
	}
	logger.AuditLogger.Info("User deleted successfully",
		zap.Int64("user_id", targetID), zap.Int("tasks_removed", len(deleted)), zap.Int("attachments_removed", removed))
	return nil
}

// SeedAdmin membuat akun admin pertama jika username tersebut belum ada.
func (s *UserService) SeedAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	_, err := s.Create(ctx, CreateUserInput{Username: username, Password: password, Role: models.RoleAdmin})
	if errors.Is(err, models.ErrDuplicateUsername) {
		return nil
	}
	if err != nil {
		return err
	}
	logger.SystemLogger.Info("Admin user created", zap.String("username", username))
	return nil
}
