package httpserver

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tasklists/internal/logging"
	authmw "github.com/Skotchmaster/tasklists/internal/middleware/auth"
	"github.com/Skotchmaster/tasklists/internal/models"
	"github.com/Skotchmaster/tasklists/internal/service"
	"github.com/Skotchmaster/tasklists/internal/transport"
)

const imageField = "img"

type UserHTTP struct {
	Svc *service.UserService
}

func currentUser(c echo.Context) (*models.User, error) {
	u, ok := authmw.CurrentUser(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Not authorized")
	}
	return u, nil
}

func (h *UserHTTP) GetByUsername(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.Svc.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return serviceError(ctx, "get_user_error", err)
	}
	return success(c, http.StatusOK, echo.Map{"user": transport.NewUserResponse(user)})
}

func (h *UserHTTP) UpdatePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_update_password")

	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req transport.UpdatePasswordRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_password_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.UpdatePassword(ctx, user, req.CurrentPassword, req.NewPassword); err != nil {
		return serviceError(ctx, "update_password_error", err)
	}
	return success(c, http.StatusOK, echo.Map{"message": "Password updated successfully"})
}

func (h *UserHTTP) UpdateImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_update_img")

	user, err := currentUser(c)
	if err != nil {
		return err
	}

	fh, err := pickImage(c)
	if err != nil {
		l.Warn("update_img_error", "status", 400, "reason", "no file part", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "No fields to process")
	}

	f, err := fh.Open()
	if err != nil {
		l.Error("update_img_error", "status", 500, "reason", "cannot open upload", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, msgInternal)
	}
	defer f.Close()

	url, err := h.Svc.UpdateProfileImage(ctx, user, fh.Filename, fh.Header.Get(echo.HeaderContentType), f, fh.Size)
	if err != nil {
		return serviceError(ctx, "update_img_error", err)
	}
	return success(c, http.StatusOK, echo.Map{"img": url})
}

// pickImage prefers the "img" part and falls back to the first file of the form.
func pickImage(c echo.Context) (*multipart.FileHeader, error) {
	if fh, err := c.FormFile(imageField); err == nil {
		return fh, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	for _, files := range form.File {
		for _, fh := range files {
			if fh.Filename != "" {
				return fh, nil
			}
		}
	}
	return nil, http.ErrMissingFile
}
