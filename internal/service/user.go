package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/tasklists/internal/hash"
	"github.com/Skotchmaster/tasklists/internal/logging"
	"github.com/Skotchmaster/tasklists/internal/models"
	"github.com/Skotchmaster/tasklists/internal/repo"
)

type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

type UserService struct {
	Repo   *repo.GormRepo
	Images ImageStore
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.Repo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, user *models.User, current, next string) error {
	l := logging.FromContext(ctx).With("svc", "user.update_password", "user_id", user.ID)

	if current == "" || next == "" {
		return invalid("current and new password are required")
	}

	ok, err := hash.VerifyPassword(user.PasswordHash, current)
	if err != nil {
		l.Error("update_password_error", "status", 500, "reason", "stored hash unreadable", "error", err)
		return err
	}
	if !ok {
		l.Warn("update_password_error", "status", 401, "reason", "wrong current password")
		return ErrInvalidCredentials
	}

	pwHash, err := hash.HashPassword(next)
	if err != nil {
		l.Error("update_password_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return err
	}
	if err := s.Repo.SetPassword(ctx, user.Email, pwHash); err != nil {
		l.Error("update_password_error", "status", 500, "error", err)
		return err
	}
	user.PasswordHash = pwHash
	return nil
}

// UpdateProfileImage uploads the file and stores the returned URL on the user.
func (s *UserService) UpdateProfileImage(ctx context.Context, user *models.User, filename, contentType string, body io.Reader, size int64) (string, error) {
	l := logging.FromContext(ctx).With("svc", "user.update_img", "user_id", user.ID)

	if strings.TrimSpace(filename) == "" {
		return "", invalid("No fields to process")
	}
	if s.Images == nil {
		return "", fmt.Errorf("%w: image store is not configured", ErrUpload)
	}

	key := fmt.Sprintf("users/%s/%s%s", user.ID, uuid.NewString(), strings.ToLower(filepath.Ext(filename)))
	url, err := s.Images.Upload(ctx, key, contentType, body, size)
	if err != nil {
		l.Error("update_img_error", "status", 500, "reason", "cannot upload image", "error", err)
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	if err := s.Repo.SetProfileImage(ctx, user.Email, url); err != nil {
		l.Error("update_img_error", "status", 500, "error", err)
		return "", err
	}
	user.Img = &url
	l.Info("update_img_successful")
	return url, nil
}
