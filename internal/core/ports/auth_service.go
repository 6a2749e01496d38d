package ports

import (
	"context"
	"io"

	"github.com/clinictrack/user-service/internal/core/domain"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	// Authenticate verifies a bearer token and returns the caller id it names.
	Authenticate(token string) (string, error)
	// Principal resolves a caller id into its current role.
	Principal(ctx context.Context, userID string) (domain.Principal, error)
	CurrentUser(ctx context.Context, p domain.Principal) (*domain.User, error)
}

// ImageUpload is a profile image received from the transport layer.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
	// BaseURL is scheme://host of the request; the public URL is built from it.
	BaseURL string
}

// ProfileImageResult is returned after a successful upload.
type ProfileImageResult struct {
	ImageURL string
	User     *domain.User
}

// ProfileService stores profile images and serves them back.
type ProfileService interface {
	UploadProfileImage(ctx context.Context, p domain.Principal, upload ImageUpload) (*ProfileImageResult, error)
	OpenImage(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// ObjectStorage is a flat key/value blob store.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	// Download returns domain.ErrObjectNotFound for an unknown key.
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

// LoginLimiter throttles failed login attempts per key.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// CleanupJob asks for removal of a stored object that no user references any more.
type CleanupJob struct {
	UserID string
	Key    string
}

// CleanupQueue accepts orphaned-object removals.
type CleanupQueue interface {
	Enqueue(job CleanupJob)
}
