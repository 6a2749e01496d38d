package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinictrack/user-service/internal/api/middleware"
	"github.com/clinictrack/user-service/internal/core/domain"
	"github.com/clinictrack/user-service/internal/core/policy"
	"github.com/clinictrack/user-service/internal/core/ports"
)

type stubUserService struct {
	listFn   func(ctx context.Context, p domain.Principal, in ports.ListUsersInput) (*ports.ListUsersResult, error)
	getFn    func(ctx context.Context, p domain.Principal, id string) (*domain.User, error)
	createFn func(ctx context.Context, p domain.Principal, in ports.CreateUserInput) (*domain.User, error)
	updateFn func(ctx context.Context, p domain.Principal, id string, in ports.UpdateUserInput) (*domain.User, error)
	deleteFn func(ctx context.Context, p domain.Principal, id string) error
}

func (s *stubUserService) List(ctx context.Context, p domain.Principal, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	return s.listFn(ctx, p, in)
}

func (s *stubUserService) GetByID(ctx context.Context, p domain.Principal, id string) (*domain.User, error) {
	return s.getFn(ctx, p, id)
}

func (s *stubUserService) Create(ctx context.Context, p domain.Principal, in ports.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, p, in)
}

func (s *stubUserService) Update(ctx context.Context, p domain.Principal, id string, in ports.UpdateUserInput) (*domain.User, error) {
	return s.updateFn(ctx, p, id, in)
}

func (s *stubUserService) Delete(ctx context.Context, p domain.Principal, id string) error {
	return s.deleteFn(ctx, p, id)
}

var (
	superadminA = domain.Principal{ID: "a", Role: domain.RoleSuperadmin}
	assistantB  = domain.Principal{ID: "b", Role: domain.RoleClinicAssistant}
)

func sampleUser(id string, role domain.Role) *domain.User {
	ts := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	return &domain.User{
		ID:           id,
		Email:        id + "@x.com",
		FullName:     strings.ToUpper(id),
		PasswordHash: "$2a$10$secret",
		Role:         role,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
}

// newTestContext builds a context that already went through the auth chain.
func newTestContext(method, target, body string, p *domain.Principal) (echo.Context, *httptest.ResponseRecorder, *echo.Echo) {
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p != nil {
		c.Set(middleware.ContextKeyPrincipal, *p)
	}
	return c, rec, e
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func assertNoPassword(t *testing.T, raw string) {
	t.Helper()
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "password") || strings.Contains(raw, "$2a$") {
		t.Fatalf("response leaks password material: %s", raw)
	}
}

func TestUserHandler_Create_SuperadminCreatesAssistant(t *testing.T) {
	stub := &stubUserService{
		createFn: func(ctx context.Context, p domain.Principal, in ports.CreateUserInput) (*domain.User, error) {
			if p != superadminA {
				t.Fatalf("unexpected principal %+v", p)
			}
			if in.FullName != "B" || in.Email != "b@x.com" || in.Password != "pw123456" || in.Role != "" {
				t.Fatalf("unexpected input %+v", in)
			}
			u := sampleUser("b", domain.RoleClinicAssistant)
			u.FullName = "B"
			return u, nil
		},
	}
	c, rec, _ := newTestContext(http.MethodPost, "/api/v1/users",
		`{"fullName":"B","email":"b@x.com","password":"pw123456"}`, &superadminA)

	if err := NewUserHandler(stub).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	assertNoPassword(t, rec.Body.String())

	resp := decodeBody(t, rec)
	if resp["message"] != "User created successfully" {
		t.Fatalf("unexpected message %v", resp["message"])
	}
	user := resp["user"].(map[string]any)
	if user["role"] != "clinic assistant" || user["fullName"] != "B" {
		t.Fatalf("unexpected user %v", user)
	}
	if _, ok := user["profileImageUrl"]; !ok {
		t.Fatalf("profileImageUrl key should always be present")
	}
}

func TestUserHandler_Create_InvalidPayload(t *testing.T) {
	stub := &stubUserService{
		createFn: func(context.Context, domain.Principal, ports.CreateUserInput) (*domain.User, error) {
			t.Fatalf("service should not be called")
			return nil, nil
		},
	}

	for name, body := range map[string]string{
		"malformed json": `{"fullName":`,
		"bad email":      `{"fullName":"B","email":"not-an-email","password":"pw"}`,
	} {
		t.Run(name, func(t *testing.T) {
			c, _, _ := newTestContext(http.MethodPost, "/api/v1/users", body, &superadminA)
			err := NewUserHandler(stub).Create(c)
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 HTTPError, got %v", err)
			}
		})
	}
}

func TestUserHandler_Create_PropagatesDomainErrors(t *testing.T) {
	stub := &stubUserService{
		createFn: func(context.Context, domain.Principal, ports.CreateUserInput) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	c, _, _ := newTestContext(http.MethodPost, "/api/v1/users",
		`{"fullName":"B","email":"a@x.com","password":"pw"}`, &superadminA)

	if err := NewUserHandler(stub).Create(c); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserHandler_List(t *testing.T) {
	stub := &stubUserService{
		listFn: func(ctx context.Context, p domain.Principal, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
			if p != assistantB {
				t.Fatalf("unexpected principal %+v", p)
			}
			if in.Page != 2 || in.Limit != 0 || in.Search != "ana" || in.Role != domain.RoleSuperadmin {
				t.Fatalf("unexpected input %+v", in)
			}
			return &ports.ListUsersResult{Users: []*domain.User{}, Page: 2, Limit: 10, HasPrevPage: true}, nil
		},
	}
	c, rec, _ := newTestContext(http.MethodGet, "/api/v1/users?page=2&limit=abc&search=ana&role=superadmin", "", &assistantB)

	if err := NewUserHandler(stub).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decodeBody(t, rec)
	users, ok := resp["users"].([]any)
	if !ok || len(users) != 0 {
		t.Fatalf("expected empty users array, got %v", resp["users"])
	}
	pg := resp["pagination"].(map[string]any)
	if pg["totalItems"] != float64(0) || pg["totalPages"] != float64(0) || pg["currentPage"] != float64(2) ||
		pg["itemsPerPage"] != float64(10) || pg["hasNextPage"] != false || pg["hasPrevPage"] != true {
		t.Fatalf("unexpected pagination %v", pg)
	}
}

func TestUserHandler_List_HidesPasswords(t *testing.T) {
	stub := &stubUserService{
		listFn: func(context.Context, domain.Principal, ports.ListUsersInput) (*ports.ListUsersResult, error) {
			return &ports.ListUsersResult{
				Users:      []*domain.User{sampleUser("n1", domain.RoleClinicAssistant), sampleUser("n2", domain.RoleClinicAssistant)},
				Page:       1,
				Limit:      10,
				TotalItems: 2,
				TotalPages: 1,
			}, nil
		},
	}
	c, rec, _ := newTestContext(http.MethodGet, "/api/v1/users", "", &superadminA)

	if err := NewUserHandler(stub).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertNoPassword(t, rec.Body.String())
}

func TestUserHandler_GetByID(t *testing.T) {
	stub := &stubUserService{
		getFn: func(ctx context.Context, p domain.Principal, id string) (*domain.User, error) {
			if id == "missing" {
				return nil, domain.ErrUserNotFound
			}
			return sampleUser(id, domain.RoleClinicAssistant), nil
		},
	}
	h := NewUserHandler(stub)

	c, rec, _ := newTestContext(http.MethodGet, "/api/v1/users/n1", "", &superadminA)
	c.SetParamNames("id")
	c.SetParamValues("n1")
	if err := h.GetByID(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertNoPassword(t, rec.Body.String())
	user := decodeBody(t, rec)["user"].(map[string]any)
	if user["id"] != "n1" || user["email"] != "n1@x.com" {
		t.Fatalf("unexpected user %v", user)
	}

	c, _, _ = newTestContext(http.MethodGet, "/api/v1/users/missing", "", &superadminA)
	c.SetParamNames("id")
	c.SetParamValues("missing")
	if err := h.GetByID(c); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserHandler_Update_OnlySuppliedKeys(t *testing.T) {
	var got ports.UpdateUserInput
	stub := &stubUserService{
		updateFn: func(ctx context.Context, p domain.Principal, id string, in ports.UpdateUserInput) (*domain.User, error) {
			if id != "n1" {
				t.Fatalf("unexpected id %s", id)
			}
			got = in
			u := sampleUser("n1", domain.RoleClinicAssistant)
			u.FullName = "New Name"
			return u, nil
		},
	}
	c, rec, _ := newTestContext(http.MethodPut, "/api/v1/users/n1", `{"fullName":"New Name"}`, &superadminA)
	c.SetParamNames("id")
	c.SetParamValues("n1")

	if err := NewUserHandler(stub).Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !got.FullName.Set || got.FullName.Value != "New Name" {
		t.Fatalf("fullName not supplied: %+v", got.FullName)
	}
	if got.Email.Set || got.Password.Set || got.Role.Set || got.ProfileImageURL.Set {
		t.Fatalf("omitted keys marked as supplied: %+v", got)
	}
	if decodeBody(t, rec)["message"] != "User updated successfully" {
		t.Fatalf("unexpected message")
	}
	assertNoPassword(t, rec.Body.String())
}

func TestUserHandler_Update_PresenceRules(t *testing.T) {
	var got ports.UpdateUserInput
	stub := &stubUserService{
		updateFn: func(ctx context.Context, p domain.Principal, id string, in ports.UpdateUserInput) (*domain.User, error) {
			got = in
			return sampleUser(id, domain.RoleClinicAssistant), nil
		},
	}
	h := NewUserHandler(stub)

	run := func(body string) {
		t.Helper()
		got = ports.UpdateUserInput{}
		c, _, _ := newTestContext(http.MethodPut, "/api/v1/users/n1", body, &superadminA)
		c.SetParamNames("id")
		c.SetParamValues("n1")
		if err := h.Update(c); err != nil {
			t.Fatalf("handler error for %s: %v", body, err)
		}
	}

	run(`{"profileImageUrl":null}`)
	if !got.ProfileImageURL.Set || got.ProfileImageURL.Value != nil {
		t.Fatalf("null image should clear: %+v", got.ProfileImageURL)
	}

	run(`{"profileImageUrl":"https://cdn.test/a.png"}`)
	if !got.ProfileImageURL.Set || *got.ProfileImageURL.Value != "https://cdn.test/a.png" {
		t.Fatalf("image not set: %+v", got.ProfileImageURL)
	}

	run(`{"fullName":"","email":null,"password":"","role":""}`)
	if got.FullName.Set || got.Email.Set || got.Password.Set || got.Role.Set {
		t.Fatalf("empty values should leave fields unchanged: %+v", got)
	}

	run(`{"role":"superadmin","password":"n3w"}`)
	if !got.Role.Set || got.Role.Value != domain.RoleSuperadmin || got.Password.Value != "n3w" {
		t.Fatalf("unexpected role/password: %+v", got)
	}
}

func TestUserHandler_Update_AssistantPromotingSuperadmin(t *testing.T) {
	stub := &stubUserService{
		updateFn: func(ctx context.Context, p domain.Principal, id string, in ports.UpdateUserInput) (*domain.User, error) {
			return nil, domain.Forbidden(policy.ReasonAssignSuperadmin)
		},
	}
	c, _, _ := newTestContext(http.MethodPut, "/api/v1/users/a", `{"role":"superadmin"}`, &assistantB)
	c.SetParamNames("id")
	c.SetParamValues("a")

	err := NewUserHandler(stub).Update(c)
	if !errorIsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func errorIsForbidden(err error) bool {
	fe, ok := err.(*domain.ForbiddenError)
	return ok && fe.Reason != ""
}

func TestUserHandler_Delete(t *testing.T) {
	stub := &stubUserService{
		deleteFn: func(ctx context.Context, p domain.Principal, id string) error {
			if id == p.ID {
				return domain.Forbidden(policy.ReasonSelfDelete)
			}
			return nil
		},
	}
	h := NewUserHandler(stub)

	c, rec, _ := newTestContext(http.MethodDelete, "/api/v1/users/n1", "", &superadminA)
	c.SetParamNames("id")
	c.SetParamValues("n1")
	if err := h.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if decodeBody(t, rec)["message"] != "User deleted successfully" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	c, _, _ = newTestContext(http.MethodDelete, "/api/v1/users/a", "", &superadminA)
	c.SetParamNames("id")
	c.SetParamValues("a")
	if err := h.Delete(c); !errorIsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUserHandler_RequiresPrincipal(t *testing.T) {
	c, _, _ := newTestContext(http.MethodGet, "/api/v1/users", "", nil)

	err := NewUserHandler(&stubUserService{}).List(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
