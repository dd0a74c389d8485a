package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tasklists/internal/logging"
	"github.com/Skotchmaster/tasklists/internal/service"
)

const (
	statusSuccess = "success"
	statusFail    = "fail"
	msgInternal   = "Something went wrong"
)

type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func success(c echo.Context, code int, data any) error {
	return c.JSON(code, envelope{Status: statusSuccess, Data: data})
}

// ErrorHandler renders every error as a fail envelope. Errors that are not
// *echo.HTTPError become a generic 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := msgInternal

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		case nil:
			msg = http.StatusText(code)
		default:
			msg = fmt.Sprint(m)
		}
	} else {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "status", code, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, envelope{Status: statusFail, Message: msg})
	}
	if err != nil {
		c.Logger().Error(err)
	}
}

// serviceError maps a service failure to the HTTP error sent to the client.
// Unexpected errors are logged with their details and answered generically.
func serviceError(ctx context.Context, event string, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			return echo.NewHTTPError(http.StatusBadRequest, ve.Msg)
		}
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid input")
	case errors.Is(err, service.ErrDuplicateEmail):
		return echo.NewHTTPError(http.StatusBadRequest, "User with this email already exists")
	case errors.Is(err, service.ErrDuplicateTitle):
		return echo.NewHTTPError(http.StatusNotAcceptable, "You already have an item with this title")
	case errors.Is(err, service.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "Incorrect credentials")
	case errors.Is(err, service.ErrEmailNotVerified):
		return echo.NewHTTPError(http.StatusForbidden, "Please verify your email first")
	case errors.Is(err, service.ErrInvalidOTP):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid or expired otp")
	case errors.Is(err, service.ErrAlreadyVerified):
		return echo.NewHTTPError(http.StatusBadRequest, "Email already verified")
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrSearchUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Search is not available")
	case errors.Is(err, service.ErrUpload):
		logging.FromContext(ctx).Error(event, "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Cannot upload image")
	}

	logging.FromContext(ctx).Error(event, "status", 500, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, msgInternal)
}
