package ports

import (
	"context"

	"github.com/clinictrack/user-service/internal/core/domain"
)

// ListUsersInput carries the raw query parameters of the list endpoint.
type ListUsersInput struct {
	Page   int
	Limit  int
	Search string
	Role   domain.Role
}

// ListUsersResult is one page of users plus pagination arithmetic.
type ListUsersResult struct {
	Users       []*domain.User
	Page        int
	Limit       int
	TotalItems  int64
	TotalPages  int
	HasNextPage bool
	HasPrevPage bool
}

// CreateUserInput carries a new account. An empty Role means domain.DefaultRole.
type CreateUserInput struct {
	FullName        string
	Email           string
	Password        string
	Role            domain.Role
	ProfileImageURL *string
}

// UpdateUserInput is a partial update; only set fields change.
type UpdateUserInput struct {
	FullName        domain.Field[string]
	Email           domain.Field[string]
	Password        domain.Field[string]
	Role            domain.Field[domain.Role]
	ProfileImageURL domain.Field[*string]
}

// UserService defines the user-management use cases.
type UserService interface {
	List(ctx context.Context, p domain.Principal, in ListUsersInput) (*ListUsersResult, error)
	GetByID(ctx context.Context, p domain.Principal, id string) (*domain.User, error)
	Create(ctx context.Context, p domain.Principal, in CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, p domain.Principal, id string, in UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, p domain.Principal, id string) error
}
