package memstore

import (
	"context"
	"time"

	"taskhub/internal/models"
)

type Users struct{ s *Store }

func cloneUser(u *models.User) models.User {
	out := *u
	if u.Email != nil {
		e := *u.Email
		out.Email = &e
	}
	if u.SessionToken != nil {
		t := *u.SessionToken
		out.SessionToken = &t
	}
	if u.ProfileImage != nil {
		p := *u.ProfileImage
		out.ProfileImage = &p
	}
	return out
}

// Insert menyimpan user apa adanya, termasuk ID 0. Dipakai untuk menyiapkan
// data lama di test.
func (r *Users) Insert(u models.User) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := cloneUser(&u)
	r.s.users[u.Ref] = &cp
}

func (r *Users) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Username == u.Username {
			return models.ErrDuplicateUsername
		}
		if u.Email != nil && existing.Email != nil && *existing.Email == *u.Email {
			return models.ErrDuplicateEmail
		}
	}
	cp := cloneUser(u)
	r.s.users[u.Ref] = &cp
	return nil
}

func (r *Users) find(match func(*models.User) bool) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return models.User{}, models.ErrNotFound
}

func (r *Users) byID(id int64) *models.User {
	for _, u := range r.s.users {
		if id != 0 && u.ID == id {
			return u
		}
	}
	return nil
}

func (r *Users) FindByID(_ context.Context, id int64) (models.User, error) {
	return r.find(func(u *models.User) bool { return id != 0 && u.ID == id })
}

func (r *Users) FindByRef(_ context.Context, ref string) (models.User, error) {
	return r.find(func(u *models.User) bool { return u.Ref == ref })
}

func (r *Users) FindByUsername(_ context.Context, username string) (models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username })
}

func (r *Users) FindByEmail(_ context.Context, email string) (models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email != nil && *u.Email == email })
}

func (r *Users) AssignID(_ context.Context, ref string, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[ref]
	if !ok {
		return false, models.ErrNotFound
	}
	if u.ID != 0 {
		return false, nil
	}
	u.ID = id
	u.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *Users) SetSessionToken(_ context.Context, id int64, token *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.byID(id)
	if u == nil {
		return nil
	}
	if token == nil {
		u.SessionToken = nil
	} else {
		t := *token
		u.SessionToken = &t
	}
	return nil
}

func (r *Users) SwapProfileImage(_ context.Context, id int64, path *string) (*string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.byID(id)
	if u == nil {
		return nil, models.ErrNotFound
	}
	old := u.ProfileImage
	if path == nil {
		u.ProfileImage = nil
	} else {
		p := *path
		u.ProfileImage = &p
	}
	u.UpdatedAt = time.Now().UTC()
	return old, nil
}

func (r *Users) List(_ context.Context, q models.UserQuery) ([]models.User, int, error) {
	r.s.mu.Lock()
	var matched []models.User
	for _, u := range r.s.users {
		if u.Role != models.RoleUser {
			continue
		}
		if q.Search != "" && !containsFold(u.Username, q.Search) {
			continue
		}
		matched = append(matched, cloneUser(u))
	}
	r.s.mu.Unlock()

	sortNewestFirst(matched, func(u models.User) (int64, int64) { return u.CreatedAt.UnixNano(), u.ID })
	return page(matched, q.Offset(), q.Limit), len(matched), nil
}

func (r *Users) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.byID(id)
	if u == nil {
		return models.ErrNotFound
	}
	delete(r.s.users, u.Ref)
	return nil
}
