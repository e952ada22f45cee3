package models

import (
	"time"
)

// Role adalah peran akun. Hanya ada dua nilai: admin dan user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// IsAdmin hanya true untuk role admin.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// IsAtLeastUser true untuk user dan admin.
func (r Role) IsAtLeastUser() bool { return r == RoleUser || r == RoleAdmin }

func (r Role) Valid() bool { return r.IsAtLeastUser() }

// Status adalah status task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Valid mengembalikan true jika status salah satu dari pending, in-progress, completed.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

type Counter struct {
	Name  string
	Value int64
}

// User adalah record pada credential store.
//
// Ref adalah referensi baris yang tidak pernah berubah (UUID untuk user baru,
// 24 karakter hex untuk data lama). ID adalah identitas numerik; nilai 0
// berarti belum diberikan dan hanya mungkin terjadi pada data lama.
type User struct {
	Ref          string
	ID           int64
	Username     string
	Email        *string
	PasswordHash string
	Role         Role
	SessionToken *string
	ProfileImage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Public mengembalikan ringkasan user yang aman untuk dikirim ke client.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		Username:       u.Username,
		Role:           u.Role,
		ProfilePicture: u.ProfileImage,
		CreatedAt:      u.CreatedAt,
	}
}

type PublicUser struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Role           Role      `json:"role"`
	ProfilePicture *string   `json:"profilePicture"`
	CreatedAt      time.Time `json:"created_at"`
}

// Identity adalah identitas yang sudah diverifikasi untuk satu request.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

type Task struct {
	ID          int64       `json:"id"`
	OwnerID     int64       `json:"user_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Status      Status      `json:"status"`
	Attachments Attachments `json:"attachments"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type Attachment struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	Path         string    `json:"filePath"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mimetype"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// Attachments adalah daftar lampiran milik satu task, berurutan sesuai waktu upload.
type Attachments []Attachment

// Find mencari lampiran berdasarkan id.
func (a Attachments) Find(id string) (Attachment, bool) {
	for _, att := range a {
		if att.ID == id {
			return att, true
		}
	}
	return Attachment{}, false
}

// Without mengembalikan salinan daftar tanpa lampiran dengan id tersebut.
func (a Attachments) Without(id string) Attachments {
	out := make(Attachments, 0, len(a))
	for _, att := range a {
		if att.ID != id {
			out = append(out, att)
		}
	}
	return out
}

// Clone mengembalikan salinan yang tidak berbagi backing array.
func (a Attachments) Clone() Attachments {
	if a == nil {
		return Attachments{}
	}
	out := make(Attachments, len(a))
	copy(out, a)
	return out
}

// Pagination dikirim bersama hasil list agar client bisa menghitung halaman.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

func NewPagination(total, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Total: total, Page: page, Limit: limit, TotalPages: pages}
}
