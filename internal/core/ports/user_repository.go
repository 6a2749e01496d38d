package ports

import (
	"context"

	"github.com/clinictrack/user-service/internal/core/domain"
)

// ListUsersFilter carries the already narrowed query for a user page.
type ListUsersFilter struct {
	Search string      // optional: case-insensitive substring of full name OR email
	Role   domain.Role // optional: exact role; empty = any
	Page   int         // 1-based
	Limit  int         // rows per page
}

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	// FindByID returns domain.ErrUserNotFound when no user has the id.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByEmail returns domain.ErrUserNotFound when no user has the email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// List returns one page ordered by creation time, newest first, and the total match count.
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
	// Create inserts user; a duplicate email yields domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User) error
	// Update writes only the set fields of changes and bumps updated_at.
	Update(ctx context.Context, id string, changes domain.UserChanges) error
	// Delete permanently removes the user.
	Delete(ctx context.Context, id string) error
}

// PasswordHasher is a one-way salted hash.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, digest string) bool
}
