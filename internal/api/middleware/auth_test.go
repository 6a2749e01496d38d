package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinictrack/user-service/internal/core/domain"
)

type stubVerifier map[string]string

func (s stubVerifier) Authenticate(token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", domain.ErrUnauthenticated
}

type stubResolver struct {
	principals map[string]domain.Principal
	err        error
	calls      int
}

func (s *stubResolver) Principal(_ context.Context, userID string) (domain.Principal, error) {
	s.calls++
	if s.err != nil {
		return domain.Principal{}, s.err
	}
	p, ok := s.principals[userID]
	if !ok {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	return p, nil
}

func runChain(t *testing.T, header string, mws []echo.MiddlewareFunc, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := next
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	called := false
	rec := runChain(t, "Bearer good", []echo.MiddlewareFunc{Auth(stubVerifier{"good": "u1"})}, func(c echo.Context) error {
		called = true
		if c.Get(ContextKeyUserID) != "u1" {
			t.Fatalf("user id not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	for name, header := range map[string]string{
		"missing header": "",
		"wrong scheme":   "Token abc",
		"empty token":    "Bearer ",
		"unknown token":  "Bearer not-a-token",
		"no separator":   "Bearergood",
	} {
		t.Run(name, func(t *testing.T) {
			rec := runChain(t, header, []echo.MiddlewareFunc{Auth(stubVerifier{"good": "u1"})}, func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestLoadPrincipal_ResolvesOnce(t *testing.T) {
	resolver := &stubResolver{principals: map[string]domain.Principal{
		"u1": {ID: "u1", Role: domain.RoleClinicAssistant},
	}}

	var got domain.Principal
	rec := runChain(t, "Bearer good",
		[]echo.MiddlewareFunc{Auth(stubVerifier{"good": "u1"}), LoadPrincipal(resolver)},
		func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				t.Fatalf("principal missing")
			}
			got = p
			return c.NoContent(http.StatusOK)
		})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.Role != domain.RoleClinicAssistant || resolver.calls != 1 {
		t.Fatalf("unexpected principal %+v after %d lookups", got, resolver.calls)
	}
}

func TestLoadPrincipal_DeletedCaller(t *testing.T) {
	resolver := &stubResolver{principals: map[string]domain.Principal{}}

	rec := runChain(t, "Bearer good",
		[]echo.MiddlewareFunc{Auth(stubVerifier{"good": "gone"}), LoadPrincipal(resolver)},
		func(c echo.Context) error {
			t.Fatalf("should not reach next")
			return nil
		})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoadPrincipal_StoreFailure(t *testing.T) {
	resolver := &stubResolver{err: errors.New("mongo down")}

	rec := runChain(t, "Bearer good",
		[]echo.MiddlewareFunc{Auth(stubVerifier{"good": "u1"}), LoadPrincipal(resolver)},
		func(c echo.Context) error {
			t.Fatalf("should not reach next")
			return nil
		})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestLoadPrincipal_WithoutAuth(t *testing.T) {
	rec := runChain(t, "", []echo.MiddlewareFunc{LoadPrincipal(&stubResolver{})}, func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
