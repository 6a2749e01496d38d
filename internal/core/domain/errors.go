package domain

import "errors"

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user with this email already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrUnsupportedMedia   = errors.New("invalid file type - only jpg, jpeg and png are allowed")
	ErrObjectNotFound     = errors.New("object not found")
)

// ForbiddenError is a policy denial carrying a reason that is safe to show
// to the caller. It matches ErrForbidden under errors.Is.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

// Forbidden builds a policy denial with the given reason.
func Forbidden(reason string) error {
	return &ForbiddenError{Reason: reason}
}
