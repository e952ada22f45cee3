// Package service berisi logika domain: autentikasi, kepemilikan task,
// siklus hidup lampiran, dan administrasi user. Penyimpanan diakses lewat
// interface di file ini; implementasinya ada di internal/repository
// (Postgres) dan internal/repository/memstore.
package service

import (
	"context"
	"io"

	"taskhub/internal/models"
)

// Sequencer memberikan nilai integer yang naik terus per nama counter.
type Sequencer interface {
	NextValue(ctx context.Context, name string) (int64, error)
}

const (
	SeqUserID = "userId"
	SeqTaskID = "taskId"
)

// UserRepository adalah credential store. Method Find* mengembalikan
// models.ErrNotFound jika tidak ada baris yang cocok.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id int64) (models.User, error)
	FindByRef(ctx context.Context, ref string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	// AssignID mengisi id numerik hanya jika masih kosong. false berarti
	// user sudah punya id (misalnya diisi request lain lebih dulu).
	AssignID(ctx context.Context, ref string, id int64) (bool, error)
	SetSessionToken(ctx context.Context, id int64, token *string) error
	// SwapProfileImage mengganti referensi foto profil dan mengembalikan nilai lama.
	SwapProfileImage(ctx context.Context, id int64, path *string) (*string, error)
	List(ctx context.Context, q models.UserQuery) ([]models.User, int, error)
	Delete(ctx context.Context, id int64) error
}

// TaskRepository menyimpan task. Semua operasi yang menerima ownerID hanya
// menyentuh baris milik owner tersebut; baris milik orang lain diperlakukan
// sama dengan baris yang tidak ada (models.ErrNotFound).
type TaskRepository interface {
	Create(ctx context.Context, t *models.Task) error
	List(ctx context.Context, ownerID int64, q models.TaskQuery) ([]models.Task, int, error)
	FindByID(ctx context.Context, id int64) (models.Task, error)
	FindOwned(ctx context.Context, ownerID, id int64) (models.Task, error)
	Update(ctx context.Context, ownerID, id int64, patch models.TaskPatch) error
	Delete(ctx context.Context, ownerID, id int64) (models.Attachments, error)
	// DeleteByOwner menghapus semua task milik owner dan mengembalikan
	// task yang terhapus beserta lampirannya.
	DeleteByOwner(ctx context.Context, ownerID int64) ([]models.Task, error)
	AppendAttachment(ctx context.Context, taskID int64, att models.Attachment) error
	RemoveAttachment(ctx context.Context, taskID int64, attachmentID string) error
}

// BlobStore menyimpan file di luar database. Referensi yang dikembalikan
// Save adalah path publik seperti "/storage/attachments/x.pdf".
type BlobStore interface {
	Save(category, filename string, src io.Reader) (string, error)
	// Remove tidak mengembalikan error jika file sudah tidak ada.
	Remove(ref string) error
}

// TaskCache adalah cache baca untuk task tunggal. Set menimpa entry yang
// ada; Add hanya menulis jika key belum ada, dipakai oleh jalur baca agar
// salinan lama tidak menimpa hasil tulis yang lebih baru.
type TaskCache interface {
	Get(ctx context.Context, id int64) (models.Task, bool)
	Set(ctx context.Context, t models.Task)
	Add(ctx context.Context, t models.Task)
	Invalidate(ctx context.Context, id int64)
}

type nopCache struct{}

func (nopCache) Get(context.Context, int64) (models.Task, bool) { return models.Task{}, false }
func (nopCache) Set(context.Context, models.Task)                {}
func (nopCache) Add(context.Context, models.Task)                {}
func (nopCache) Invalidate(context.Context, int64)               {}
