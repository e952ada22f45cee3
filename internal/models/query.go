package models

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxPage menjaga (page-1)*limit tetap muat di int.
	MaxPage = math.MaxInt / MaxPageSize
)

// TaskQuery adalah parameter list task milik satu owner.
type TaskQuery struct {
	Search string
	Page   int
	Limit  int
}

// UserQuery adalah parameter list user untuk admin.
type UserQuery struct {
	Search string
	Page   int
	Limit  int
}

// normalize mengisi default page (1) dan limit (10), lalu membatasi keduanya.
func normalize(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func (q TaskQuery) Normalize() TaskQuery {
	q.Page, q.Limit = normalize(q.Page, q.Limit)
	return q
}

func (q TaskQuery) Offset() int { return (q.Page - 1) * q.Limit }

func (q UserQuery) Normalize() UserQuery {
	q.Page, q.Limit = normalize(q.Page, q.Limit)
	return q
}

func (q UserQuery) Offset() int { return (q.Page - 1) * q.Limit }

// TaskPatch berisi field yang ingin diubah. Title dan Status kosong diabaikan;
// Description boleh di-set menjadi string kosong.
type TaskPatch struct {
	Title       string
	Description *string
	Status      Status
}

func (p TaskPatch) Empty() bool {
	return p.Title == "" && p.Description == nil && p.Status == ""
}
