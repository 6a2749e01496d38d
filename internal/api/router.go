package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/clinictrack/user-service/internal/api/handler"
	"github.com/clinictrack/user-service/internal/api/middleware"
	"github.com/clinictrack/user-service/internal/core/domain"
	"github.com/clinictrack/user-service/internal/core/ports"
)

// Dependencies is everything the HTTP layer needs from the composition root.
type Dependencies struct {
	Users   ports.UserService
	Auth    ports.AuthService
	Profile ports.ProfileService

	// Readiness lists the dependencies probed by /health/ready, keyed by name.
	Readiness map[string]handler.Pinger

	CORSOrigins    []string
	UploadMaxBytes int64
	Logger         zerolog.Logger

	// Registry receives the HTTP metrics. Defaults to the global Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "clinic_users",
		Registerer: registerer,
	}))

	// --- Handlers ---
	statusHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Readiness)
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Profile, deps.UploadMaxBytes)
	userHandler := handler.NewUserHandler(deps.Users)

	authenticated := []echo.MiddlewareFunc{
		middleware.Auth(deps.Auth),
		middleware.LoadPrincipal(deps.Auth),
		middleware.RBAC(domain.Roles()...),
	}

	// --- Public routes ---
	e.GET("/", statusHandler.Status)
	e.GET("/health", statusHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/uploads/:key", authHandler.ServeUpload)

	v1 := e.Group("/api/v1")

	// --- Auth routes ---
	auth := v1.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.GET("/getUser", authHandler.GetUser, authenticated...)
	auth.POST("/uploadProfileImage", authHandler.UploadProfileImage,
		append(authenticated, uploadBodyLimit(deps.UploadMaxBytes))...)

	// --- User management ---
	users := v1.Group("/users", authenticated...)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.GetByID)
	users.POST("", userHandler.Create)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)

	return e
}

// uploadBodyLimit caps the whole multipart body a little above the file limit
// so that oversized files are rejected before being buffered.
func uploadBodyLimit(maxFileBytes int64) echo.MiddlewareFunc {
	if maxFileBytes <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	const multipartOverhead = 64 << 10
	return echomiddleware.BodyLimitWithConfig(echomiddleware.BodyLimitConfig{
		Limit: formatBytes(maxFileBytes + multipartOverhead),
	})
}

// formatBytes renders n in the "<n>K" form accepted by the body limit middleware.
func formatBytes(n int64) string {
	return strconv.FormatInt((n+1023)/1024, 10) + "K"
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
