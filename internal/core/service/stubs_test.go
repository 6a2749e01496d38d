package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/clinictrack/user-service/internal/core/domain"
	"github.com/clinictrack/user-service/internal/core/ports"
)

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	calls map[string]int
	// failWith, when set, is returned by every write.
	failWith error
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]*domain.User), calls: make(map[string]int)}
	for _, u := range users {
		r.users[u.ID] = cloneUser(u)
	}
	return r
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	if u.ProfileImageURL != nil {
		v := *u.ProfileImageURL
		clone.ProfileImageURL = &v
	}
	return &clone
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["FindByID"]++
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["FindByEmail"]++
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["List"]++

	search := strings.ToLower(f.Search)
	var matched []*domain.User
	for _, u := range r.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.FullName), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		matched = append(matched, cloneUser(u))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (f.Page - 1) * f.Limit
	if start >= len(matched) {
		return []*domain.User{}, total, nil
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["Create"]++
	if r.failWith != nil {
		return r.failWith
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrUserExists
		}
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, id string, c domain.UserChanges) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["Update"]++
	if r.failWith != nil {
		return r.failWith
	}
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if c.Email.Set {
		for otherID, other := range r.users {
			if otherID != id && other.Email == c.Email.Value {
				return domain.ErrUserExists
			}
		}
	}
	u.FullName = c.FullName.Or(u.FullName)
	u.Email = c.Email.Or(u.Email)
	u.PasswordHash = c.PasswordHash.Or(u.PasswordHash)
	u.Role = c.Role.Or(u.Role)
	u.ProfileImageURL = c.ProfileImageURL.Or(u.ProfileImageURL)
	u.ProfileImageKey = c.ProfileImageKey.Or(u.ProfileImageKey)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["Delete"]++
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) count(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

func (r *stubUserRepo) writes() int {
	return r.count("Create") + r.count("Update") + r.count("Delete")
}

// stubHasher prefixes instead of hashing so tests stay fast.
type stubHasher struct{}

func (stubHasher) Hash(plaintext string) (string, error) {
	return "hashed:" + plaintext, nil
}

func (stubHasher) Compare(plaintext, digest string) bool {
	return digest == "hashed:"+plaintext
}

type stubCleanup struct {
	mu   sync.Mutex
	jobs []ports.CleanupJob
}

func (c *stubCleanup) Enqueue(job ports.CleanupJob) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs = append(c.jobs, job)
}

func (c *stubCleanup) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.jobs))
	for _, j := range c.jobs {
		out = append(out, j.Key)
	}
	return out
}

type stubLimiter struct {
	max      int
	failures map[string]int
	err      error
}

func newStubLimiter(max int) *stubLimiter {
	return &stubLimiter{max: max, failures: make(map[string]int)}
}

func (l *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	return l.failures[key] < l.max, nil
}

func (l *stubLimiter) RecordFailure(_ context.Context, key string) error {
	l.failures[key]++
	return nil
}

func (l *stubLimiter) Reset(_ context.Context, key string) error {
	delete(l.failures, key)
	return nil
}

type storedObject struct {
	data        []byte
	contentType string
}

type stubStorage struct {
	mu      sync.Mutex
	objects map[string]storedObject
	err     error
}

func newStubStorage() *stubStorage {
	return &stubStorage{objects: make(map[string]storedObject)}
}

func (s *stubStorage) Upload(_ context.Context, key string, reader io.Reader, _ int64, contentType string) error {
	if s.err != nil {
		return s.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = storedObject{data: data, contentType: contentType}
	return nil
}

func (s *stubStorage) Download(_ context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", domain.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.contentType, nil
}

func (s *stubStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

var errStoreDown = errors.New("store unavailable")

func strPtr(s string) *string { return &s }

func superadmin(id string) domain.Principal {
	return domain.Principal{ID: id, Role: domain.RoleSuperadmin}
}

func assistant(id string) domain.Principal {
	return domain.Principal{ID: id, Role: domain.RoleClinicAssistant}
}

func seedUser(id, email string, role domain.Role, created time.Time) *domain.User {
	return &domain.User{
		ID:           id,
		Email:        email,
		FullName:     "User " + id,
		PasswordHash: "hashed:pw-" + id,
		Role:         role,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}
