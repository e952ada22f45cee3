package service

import (
	"context"
	"fmt"
	"math/rand"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"taskhub/internal/models"
	"taskhub/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	CategoryProfiles    = "profiles"
	CategoryAttachments = "attachments"

	MaxProfileImageSize = 10 << 20
	MaxAttachmentSize   = 50 << 20
)

// AttachmentService mengatur file yang terikat ke user (foto profil) dan
// ke task (lampiran). Setiap perubahan metadata disertai tulis/hapus file.
type AttachmentService struct {
	users UserRepository
	tasks TaskRepository
	blobs BlobStore
	cache TaskCache
	now   func() time.Time
}

func NewAttachmentService(users UserRepository, tasks TaskRepository, blobs BlobStore, cache TaskCache) *AttachmentService {
	if cache == nil {
		cache = nopCache{}
	}
	return &AttachmentService{users: users, tasks: tasks, blobs: blobs, cache: cache, now: time.Now}
}

// UploadProfileImage menyimpan foto profil baru dan menghapus file lama.
func (s *AttachmentService) UploadProfileImage(ctx context.Context, userID int64, file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", models.ErrNoFile
	}
	if file.Size > MaxProfileImageSize {
		return "", models.ErrFileTooLarge
	}

	name := fmt.Sprintf("profile-%d-%s%s", userID, s.uniqueSuffix(), safeExt(file.Filename))
	ref, err := s.save(CategoryProfiles, name, file)
	if err != nil {
		return "", err
	}

	old, err := s.users.SwapProfileImage(ctx, userID, &ref)
	if err != nil {
		// metadata tidak berubah, jadi file baru tidak boleh tertinggal
		removeBlob(s.blobs, ref)
		return "", err
	}
	if old != nil {
		removeBlob(s.blobs, *old)
	}

	logger.AuditLogger.Info("Profile picture uploaded", zap.Int64("user_id", userID), zap.String("path", ref))
	return ref, nil
}

func (s *AttachmentService) DeleteProfileImage(ctx context.Context, userID int64) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.ProfileImage == nil {
		return models.ErrNothingToDelete
	}
	old, err := s.users.SwapProfileImage(ctx, userID, nil)
	if err != nil {
		return err
	}
	if old == nil {
		// dihapus request lain di antara FindByID dan Swap
		return models.ErrNothingToDelete
	}
	removeBlob(s.blobs, *old)
	logger.AuditLogger.Info("Profile picture deleted", zap.Int64("user_id", userID))
	return nil
}

// UploadTaskAttachment menambahkan lampiran ke task. Hanya pemilik task atau
// admin yang boleh.
func (s *AttachmentService) UploadTaskAttachment(ctx context.Context, actor models.Identity, taskID int64, file *multipart.FileHeader) (models.Attachment, error) {
	if file == nil {
		return models.Attachment{}, models.ErrNoFile
	}
	if file.Size > MaxAttachmentSize {
		return models.Attachment{}, models.ErrFileTooLarge
	}
	if _, err := s.ownedOrAdmin(ctx, actor, taskID); err != nil {
		return models.Attachment{}, err
	}

	name := fmt.Sprintf("attachment-%s%s", s.uniqueSuffix(), safeExt(file.Filename))
	ref, err := s.save(CategoryAttachments, name, file)
	if err != nil {
		return models.Attachment{}, err
	}

	att := models.Attachment{
		ID:           uuid.NewString(),
		Filename:     name,
		OriginalName: file.Filename,
		Path:         ref,
		Size:         file.Size,
		MimeType:     mimeType(file),
		UploadedAt:   s.now().UTC(),
	}
	if err := s.tasks.AppendAttachment(ctx, taskID, att); err != nil {
		removeBlob(s.blobs, ref)
		return models.Attachment{}, err
	}
	s.refreshCache(ctx, taskID)

	logger.AuditLogger.Info("Attachment uploaded",
		zap.Int64("task_id", taskID), zap.String("attachment_id", att.ID), zap.Int64("user_id", actor.ID))
	return att, nil
}

// DeleteTaskAttachment menghapus record lampiran lebih dulu, baru filenya,
// sehingga tidak pernah ada record yang menunjuk ke file yang sudah hilang.
func (s *AttachmentService) DeleteTaskAttachment(ctx context.Context, actor models.Identity, taskID int64, attachmentID string) error {
	task, err := s.ownedOrAdmin(ctx, actor, taskID)
	if err != nil {
		return err
	}
	att, ok := task.Attachments.Find(attachmentID)
	if !ok {
		return models.ErrAttachmentNotFound
	}
	if err := s.tasks.RemoveAttachment(ctx, taskID, attachmentID); err != nil {
		return err
	}
	s.refreshCache(ctx, taskID)
	removeBlob(s.blobs, att.Path)

	logger.AuditLogger.Info("Attachment deleted", zap.Int64("task_id", taskID), zap.String("attachment_id", attachmentID))
	return nil
}

func (s *AttachmentService) ownedOrAdmin(ctx context.Context, actor models.Identity, taskID int64) (models.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if task.OwnerID != actor.ID && !actor.Role.IsAdmin() {
		logger.SecurityLogger.Warn("Task access denied",
			zap.Int64("user_id", actor.ID), zap.Int64("task_id", taskID), zap.String("role", string(actor.Role)))
		return models.Task{}, models.ErrForbidden
	}
	return task, nil
}

func (s *AttachmentService) refreshCache(ctx context.Context, taskID int64) {
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		s.cache.Invalidate(ctx, taskID)
		return
	}
	s.cache.Set(ctx, t)
}

func (s *AttachmentService) save(category, name string, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()
	ref, err := s.blobs.Save(category, name, src)
	if err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return ref, nil
}

func (s *AttachmentService) uniqueSuffix() string {
	return fmt.Sprintf("%d-%d", s.now().UnixMilli(), rand.Intn(1_000_000_000))
}

// safeExt hanya menyisakan ekstensi alfanumerik, huruf kecil.
func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > 16 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

func mimeType(file *multipart.FileHeader) string {
	if ct := file.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	if ct := mime.TypeByExtension(filepath.Ext(file.Filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
