package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinictrack/user-service/internal/core/domain"
	"github.com/clinictrack/user-service/internal/core/ports"
	"github.com/clinictrack/user-service/internal/pkg/metrics"
)

// UploadsPrefix is the public path under which stored images are served.
const UploadsPrefix = "/uploads/"

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
}

var allowedImageExts = map[string]struct{}{
	".jpeg": {},
	".jpg":  {},
	".png":  {},
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ProfileService stores profile pictures in object storage and links them to
// the caller's account.
type ProfileService struct {
	repo    ports.UserRepository
	storage ports.ObjectStorage
	cleanup ports.CleanupQueue
	now     func() time.Time
	logger  zerolog.Logger
}

func NewProfileService(repo ports.UserRepository, storage ports.ObjectStorage, cleanup ports.CleanupQueue, logger zerolog.Logger) *ProfileService {
	return &ProfileService{
		repo:    repo,
		storage: storage,
		cleanup: cleanup,
		now:     time.Now,
		logger:  logger,
	}
}

// UploadProfileImage stores the image and makes it the caller's profile picture.
func (s *ProfileService) UploadProfileImage(ctx context.Context, p domain.Principal, upload ports.ImageUpload) (*ports.ProfileImageResult, error) {
	if !isAllowedImage(upload.Filename, upload.ContentType) {
		return nil, domain.ErrUnsupportedMedia
	}

	current, err := s.repo.FindByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("load uploader: %w", err)
	}

	key := fmt.Sprintf("%d-%s", s.now().UnixMilli(), sanitizeFilename(upload.Filename))
	if err := s.storage.Upload(ctx, key, upload.Body, upload.Size, upload.ContentType); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to store profile image")
		return nil, fmt.Errorf("store image: %w", err)
	}

	imageURL := strings.TrimRight(upload.BaseURL, "/") + UploadsPrefix + key

	changes := domain.UserChanges{
		ProfileImageURL: domain.SetTo(&imageURL),
		ProfileImageKey: domain.SetTo(key),
	}
	if err := s.repo.Update(ctx, p.ID, changes); err != nil {
		// the object is now unreferenced
		s.enqueue(p.ID, key)
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("link image: %w", err)
	}

	if old := current.ProfileImageKey; old != "" && old != key {
		s.enqueue(p.ID, old)
	}

	user, err := s.repo.FindByID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}

	metrics.ProfileImagesUploadedTotal.Inc()
	s.logger.Info().Str("user_id", p.ID).Str("key", key).Msg("profile image uploaded")

	return &ports.ProfileImageResult{ImageURL: imageURL, User: user}, nil
}

// OpenImage streams a stored image back. The caller closes the reader.
func (s *ProfileService) OpenImage(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if key == "" || key != path.Base(key) || strings.HasPrefix(key, ".") {
		return nil, "", domain.ErrObjectNotFound
	}
	return s.storage.Download(ctx, key)
}

func (s *ProfileService) enqueue(userID, key string) {
	if s.cleanup != nil {
		s.cleanup.Enqueue(ports.CleanupJob{UserID: userID, Key: key})
	}
}

func isAllowedImage(filename, contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if _, ok := allowedImageTypes[mediaType]; !ok {
		return false
	}
	_, ok := allowedImageExts[strings.ToLower(path.Ext(filename))]
	return ok
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeKeyChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "image"
	}
	return name
}
