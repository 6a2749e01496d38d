package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/clinictrack/user-service/internal/core/domain"
	"github.com/clinictrack/user-service/internal/core/ports"
)

// systemPrincipal is the caller used for start-up provisioning. It never
// corresponds to a stored account.
var systemPrincipal = domain.Principal{ID: "system", Role: domain.RoleSuperadmin}

// EnsureSuperadmin creates the first superadmin unless an account with the
// email already exists. The returned bool reports whether a user was created.
func (s *UserService) EnsureSuperadmin(ctx context.Context, email, password, fullName string) (*domain.User, bool, error) {
	existing, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, false, fmt.Errorf("lookup admin: %w", err)
	}

	user, err := s.Create(ctx, systemPrincipal, ports.CreateUserInput{
		FullName: fullName,
		Email:    email,
		Password: password,
		Role:     domain.RoleSuperadmin,
	})
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
