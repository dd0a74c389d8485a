package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tasklists/internal/logging"
	"github.com/Skotchmaster/tasklists/internal/models"
	"github.com/Skotchmaster/tasklists/internal/tokens"
)

const currentUserKey = "current_user"

const (
	msgBadHeader     = "Provide a valid auth header"
	msgBadToken      = "Unable to decode JWT auth token"
	msgNotAuthorized = "Not authorized"
)

type TokenValidator interface {
	Validate(token string) (*tokens.Claims, error)
}

type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type BearerAuth struct {
	Tokens TokenValidator
	Users  UserFinder
	// ErrUserNotFound is what Users returns for an unknown subject.
	// Any other lookup error is answered with 500.
	ErrUserNotFound error
}

func NewBearerAuth(tv TokenValidator, users UserFinder, notFound error) *BearerAuth {
	return &BearerAuth{Tokens: tv, Users: users, ErrUserNotFound: notFound}
}

func (m *BearerAuth) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "bearer_auth")

		token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			l.Warn("auth_rejected", "status", 403, "reason", "missing or malformed header")
			return echo.NewHTTPError(http.StatusForbidden, msgBadHeader)
		}

		claims, err := m.Tokens.Validate(token)
		if err != nil {
			l.Warn("auth_rejected", "status", 401, "reason", "invalid token", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, msgBadToken)
		}

		user, err := m.Users.FindByEmail(ctx, claims.Email)
		if err != nil {
			if m.ErrUserNotFound == nil || errors.Is(err, m.ErrUserNotFound) {
				l.Warn("auth_rejected", "status", 401, "reason", "unknown subject")
				return echo.NewHTTPError(http.StatusUnauthorized, msgNotAuthorized)
			}
			l.Error("auth_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Something went wrong")
		}

		c.Set(currentUserKey, user)
		c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, logging.FromContext(ctx).With("user_id", user.ID))))
		return next(c)
	}
}

// bearerToken accepts exactly "Bearer <token>" with any amount of whitespace between the parts.
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func CurrentUser(c echo.Context) (*models.User, bool) {
	u, ok := c.Get(currentUserKey).(*models.User)
	return u, ok && u != nil
}
