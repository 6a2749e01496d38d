package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinictrack/user-service/internal/core/domain"
	"github.com/clinictrack/user-service/internal/core/policy"
	"github.com/clinictrack/user-service/internal/core/ports"
	"github.com/clinictrack/user-service/internal/pkg/metrics"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
	// maxPage keeps (page-1)*limit far from overflow; later pages are empty anyway.
	maxPage = 1 << 20
)

// UserService implements the user-management use cases on top of the role policy.
type UserService struct {
	repo    ports.UserRepository
	hasher  ports.PasswordHasher
	cleanup ports.CleanupQueue
	newID   func() string
	logger  zerolog.Logger
}

// NewUserService wires the service. cleanup may be nil, in which case stored
// profile images of deleted users are left in place.
func NewUserService(repo ports.UserRepository, hasher ports.PasswordHasher, cleanup ports.CleanupQueue, logger zerolog.Logger) *UserService {
	return &UserService{
		repo:    repo,
		hasher:  hasher,
		cleanup: cleanup,
		newID:   uuid.NewString,
		logger:  logger,
	}
}

// List returns one page of the users the caller is allowed to see.
func (s *UserService) List(ctx context.Context, p domain.Principal, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	page, limit := normalizePage(in.Page, in.Limit)

	scope := policy.NarrowList(p, in.Role)
	if scope.Empty {
		s.logger.Debug().Str("caller_id", p.ID).Msg("superadmin listing hidden from assistant")
		return &ports.ListUsersResult{Users: []*domain.User{}, Page: page, Limit: limit}, nil
	}

	users, total, err := s.repo.List(ctx, ports.ListUsersFilter{
		Search: strings.TrimSpace(in.Search),
		Role:   scope.Role,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []*domain.User{}
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListUsersResult{
		Users:       users,
		Page:        page,
		Limit:       limit,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}, nil
}

// GetByID loads a single user. Records the caller may not see are reported as missing.
func (s *UserService) GetByID(ctx context.Context, p domain.Principal, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupErr("get user", err)
	}
	if !policy.CanView(p, user) {
		s.logger.Warn().Str("caller_id", p.ID).Str("target_id", id).Msg("hidden user requested by id")
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// Create validates, authorizes and stores a new account.
func (s *UserService) Create(ctx context.Context, p domain.Principal, in ports.CreateUserInput) (*domain.User, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := normalizeEmail(in.Email)
	if fullName == "" || email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: full name, email, and password are required", domain.ErrInvalidArgument)
	}

	role := in.Role
	if role == "" {
		role = domain.DefaultRole
	}
	if !role.Valid() {
		return nil, invalidRole()
	}

	if err := policy.AuthorizeCreate(p, role); err != nil {
		return nil, s.denied(policy.OpCreate, p, err)
	}

	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:              s.newID(),
		Email:           email,
		FullName:        fullName,
		PasswordHash:    hash,
		Role:            role,
		ProfileImageURL: nonEmpty(in.ProfileImageURL),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("failed to create user")
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.UsersCreatedTotal.WithLabelValues(string(role)).Inc()
	s.logger.Info().Str("user_id", user.ID).Str("role", string(role)).Str("created_by", p.ID).Msg("user created")

	return user, nil
}

// Update applies a partial update. Every check runs before the single write.
func (s *UserService) Update(ctx context.Context, p domain.Principal, id string, in ports.UpdateUserInput) (*domain.User, error) {
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupErr("update user", err)
	}

	if err := policy.AuthorizeUpdate(p, target, in.Role); err != nil {
		return nil, s.denied(policy.OpUpdate, p, err)
	}

	var changes domain.UserChanges

	if in.FullName.Set {
		name := strings.TrimSpace(in.FullName.Value)
		if name == "" {
			return nil, fmt.Errorf("%w: full name cannot be empty", domain.ErrInvalidArgument)
		}
		changes.FullName = domain.SetTo(name)
	}

	if in.Role.Set {
		if !in.Role.Value.Valid() {
			return nil, invalidRole()
		}
		changes.Role = domain.SetTo(in.Role.Value)
	}

	if in.Email.Set {
		email := normalizeEmail(in.Email.Value)
		if email == "" {
			return nil, fmt.Errorf("%w: email cannot be empty", domain.ErrInvalidArgument)
		}
		if email != target.Email {
			if err := s.ensureEmailFree(ctx, email, target.ID); err != nil {
				return nil, err
			}
		}
		changes.Email = domain.SetTo(email)
	}

	releaseKey := ""
	if in.ProfileImageURL.Set {
		url := nonEmpty(in.ProfileImageURL.Value)
		changes.ProfileImageURL = domain.SetTo(url)
		// a caller-supplied URL never owns a stored object
		if !sameURL(target.ProfileImageURL, url) && target.ProfileImageKey != "" {
			changes.ProfileImageKey = domain.SetTo("")
			releaseKey = target.ProfileImageKey
		}
	}

	if in.Password.Set {
		if in.Password.Value == "" {
			return nil, fmt.Errorf("%w: password cannot be empty", domain.ErrInvalidArgument)
		}
		hash, err := s.hasher.Hash(in.Password.Value)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		changes.PasswordHash = domain.SetTo(hash)
	}

	if changes.Empty() {
		return target, nil
	}

	if err := s.repo.Update(ctx, id, changes); err != nil {
		if errors.Is(err, domain.ErrUserExists) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to update user")
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.scheduleImageCleanup(target.ID, releaseKey)

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupErr("reload user", err)
	}

	s.logger.Info().Str("user_id", id).Str("updated_by", p.ID).Msg("user updated")
	return updated, nil
}

// Delete permanently removes a user. The self-delete guard runs before any lookup.
func (s *UserService) Delete(ctx context.Context, p domain.Principal, id string) error {
	if err := policy.AuthorizeSelfDelete(p, id); err != nil {
		return s.denied(policy.OpDelete, p, err)
	}

	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.lookupErr("delete user", err)
	}

	if err := policy.AuthorizeDelete(p, target); err != nil {
		return s.denied(policy.OpDelete, p, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to delete user")
		return fmt.Errorf("delete user: %w", err)
	}

	s.scheduleImageCleanup(target.ID, target.ProfileImageKey)

	metrics.UsersDeletedTotal.Inc()
	s.logger.Info().Str("user_id", id).Str("deleted_by", p.ID).Msg("user deleted")
	return nil
}

// ensureEmailFree fails with ErrUserExists when another account owns email.
// The unique index on email closes the race this read leaves open.
func (s *UserService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("check email: %w", err)
	}
	if existing.ID != selfID {
		return domain.ErrUserExists
	}
	return nil
}

// scheduleImageCleanup removes an object the user owned. Only keys recorded by
// the upload path are accepted; URLs are never parsed into keys.
func (s *UserService) scheduleImageCleanup(userID, key string) {
	if s.cleanup == nil || key == "" {
		return
	}
	s.cleanup.Enqueue(ports.CleanupJob{UserID: userID, Key: key})
}

func (s *UserService) denied(op policy.Operation, p domain.Principal, err error) error {
	metrics.PolicyDenialsTotal.WithLabelValues(string(op)).Inc()
	s.logger.Warn().
		Str("operation", string(op)).
		Str("caller_id", p.ID).
		Str("caller_role", string(p.Role)).
		Str("reason", err.Error()).
		Msg("request denied by policy")
	return err
}

func (s *UserService) lookupErr(action string, err error) error {
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrUserNotFound
	}
	return fmt.Errorf("%s: %w", action, err)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if page > maxPage {
		page = maxPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func invalidRole() error {
	return fmt.Errorf("%w: invalid role. Must be one of: %s, %s",
		domain.ErrInvalidArgument, domain.RoleSuperadmin, domain.RoleClinicAssistant)
}

// nonEmpty turns an empty string into a cleared value.
func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func sameURL(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
