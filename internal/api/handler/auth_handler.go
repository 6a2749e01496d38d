package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinictrack/user-service/internal/core/ports"
)

type AuthHandler struct {
	authService    ports.AuthService
	profileService ports.ProfileService
	maxUploadBytes int64
}

func NewAuthHandler(authService ports.AuthService, profileService ports.ProfileService, maxUploadBytes int64) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		profileService: profileService,
		maxUploadBytes: maxUploadBytes,
	}
}

// Login authenticates a user and returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /api/v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{Token: token, User: toUserResponse(user)})
}

// GetUser returns the caller's own record.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userEnvelope
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/auth/getUser [get]
func (h *AuthHandler) GetUser(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	user, err := h.authService.CurrentUser(c.Request().Context(), p)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, userEnvelope{User: toUserResponse(user)})
}

// UploadProfileImage stores a new profile picture for the caller.
//
// @Summary      Upload profile image
// @Tags         auth
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        image  formData  file  true  "jpg, jpeg or png"
// @Success      200    {object}  uploadImageResponse
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      413    {object}  map[string]string
// @Router       /api/v1/auth/uploadProfileImage [post]
func (h *AuthHandler) UploadProfileImage(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no file uploaded")
	}
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file too large - maximum size is %d bytes", h.maxUploadBytes))
	}

	file, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	res, err := h.profileService.UploadProfileImage(c.Request().Context(), p, ports.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        file,
		BaseURL:     baseURL(c),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, uploadImageResponse{
		Message:  "Profile image uploaded successfully",
		ImageURL: res.ImageURL,
		User:     toUserResponse(res.User),
	})
}

// ServeUpload streams a stored profile image.
//
// @Summary      Profile image
// @Tags         uploads
// @Produce      image/png
// @Produce      image/jpeg
// @Param        key  path  string  true  "Object key"
// @Success      200
// @Failure      404  {object}  map[string]string
// @Router       /uploads/{key} [get]
func (h *AuthHandler) ServeUpload(c echo.Context) error {
	rc, contentType, err := h.profileService.OpenImage(c.Request().Context(), c.Param("key"))
	if err != nil {
		return err
	}
	defer rc.Close()

	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Stream(http.StatusOK, contentType, rc)
}
