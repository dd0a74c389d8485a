package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/tasklists/internal/config"
	authmw "github.com/Skotchmaster/tasklists/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/tasklists/internal/middleware/logging"
)

const imageBodyLimit = "10M"

type Deps struct {
	Logger *slog.Logger

	Health      *HealthHTTP
	AuthHandler *AuthHTTP
	UserHandler *UserHTTP
	ListHandler *ListHTTP
	Auth        *authmw.BearerAuth

	AuthRateLimit config.RateLimitConfig
	CORSOrigins   []string
}

// New builds an echo instance with the shared middleware chain and all routes.
func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     d.CORSOrigins,
		AllowCredentials: true,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete,
		},
		AllowHeaders: []string{
			echo.HeaderAuthorization, echo.HeaderAccept, echo.HeaderContentType,
		},
	}))

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/api/health_checker", d.Health.Checker)
	e.GET("/health/live", d.Health.Live)
	e.GET("/health/ready", d.Health.Ready)

	public := e.Group("/api/user")
	if mw := authRateLimiter(d.AuthRateLimit); mw != nil {
		public.Use(mw)
	}
	public.POST("/register", d.AuthHandler.Register)
	public.POST("/login", d.AuthHandler.Login)
	public.POST("/verify_email", d.AuthHandler.VerifyEmail)
	public.POST("/resend_otp", d.AuthHandler.ResendOTP)

	user := e.Group("/api/user", d.Auth.RequireUser)
	user.PATCH("/update/img", d.UserHandler.UpdateImage, middleware.BodyLimit(imageBodyLimit))
	user.PATCH("/update/password", d.UserHandler.UpdatePassword)
	user.GET("/:username", d.UserHandler.GetByUsername)

	lists := e.Group("/api/lists", d.Auth.RequireUser)
	lists.POST("/list", d.ListHandler.Create)
	lists.GET("", d.ListHandler.List)
	lists.GET("/search", d.ListHandler.Search)
	lists.GET("/:id", d.ListHandler.Get)
	lists.PUT("/:id", d.ListHandler.Update)
	lists.PATCH("/:id", d.ListHandler.Update)
	lists.DELETE("/:id", d.ListHandler.Delete)
}

// authRateLimiter throttles unauthenticated account routes per client IP.
// A zero rate disables it.
func authRateLimiter(cfg config.RateLimitConfig) echo.MiddlewareFunc {
	interval := cfg.Interval()
	if interval <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Every(interval),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "Unable to identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests")
		},
	})
}
