package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tasklists/internal/logging"
	"github.com/Skotchmaster/tasklists/internal/service"
	"github.com/Skotchmaster/tasklists/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if _, err := h.Svc.Register(ctx, req.Username, req.Email, req.Password); err != nil {
		return serviceError(ctx, "register_error", err)
	}

	return success(c, http.StatusCreated, echo.Map{"message": "Account created successfully"})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return serviceError(ctx, "login_error", err)
	}

	return success(c, http.StatusOK, echo.Map{
		"user":  transport.NewUserResponse(res.User),
		"token": res.Token,
	})
}

func (h *AuthHTTP) VerifyEmail(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_verify_email")

	var req transport.VerifyEmailRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("verify_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.VerifyEmail(ctx, req.Email, req.OTP); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "Cannot verify this email")
		}
		return serviceError(ctx, "verify_error", err)
	}

	return success(c, http.StatusOK, echo.Map{"status": statusSuccess})
}

func (h *AuthHTTP) ResendOTP(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_resend_otp")

	var req transport.ResendOTPRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("resend_otp_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.ResendOTP(ctx, req.Email); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "Cannot verify this email")
		}
		return serviceError(ctx, "resend_otp_error", err)
	}

	return success(c, http.StatusOK, echo.Map{"message": "OTP sent"})
}
