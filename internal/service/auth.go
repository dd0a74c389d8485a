package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/tasklists/internal/events"
	"github.com/Skotchmaster/tasklists/internal/hash"
	"github.com/Skotchmaster/tasklists/internal/logging"
	"github.com/Skotchmaster/tasklists/internal/models"
	"github.com/Skotchmaster/tasklists/internal/otp"
	"github.com/Skotchmaster/tasklists/internal/repo"
	"github.com/Skotchmaster/tasklists/internal/tokens"
	"github.com/Skotchmaster/tasklists/internal/transport"
)

type OTPMailer interface {
	SendOTP(ctx context.Context, to, username, code string) error
}

type AuthService struct {
	Repo   *repo.GormRepo
	Tokens *tokens.Service
	Mailer OTPMailer
	Events events.Publisher
	Now    func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	switch {
	case username == "":
		return nil, invalid("username is required")
	case email == "":
		return nil, invalid("email is required")
	case password == "":
		return nil, invalid("password is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, invalid("email is invalid")
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	verified := false
	user := &models.User{
		Username:      username,
		Email:         email,
		PasswordHash:  pwHash,
		EmailVerified: &verified,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			l.Warn("register_error", "status", 400, "reason", "email already registered")
			return nil, ErrDuplicateEmail
		}
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return nil, err
	}

	if err := s.issueOTP(ctx, user); err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot create otp", "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.New(events.UserRegistered, user.ID.String(), transport.NewUserResponse(user)))
	l.Info("register_successful", "user_id", user.ID)
	return user, nil
}

// issueOTP stores a fresh code for the user, superseding older ones, and queues the mail.
// Mail failures are logged only.
func (s *AuthService) issueOTP(ctx context.Context, user *models.User) error {
	code := otp.Generate(otp.CodeLength)
	if _, err := s.Repo.ReplaceOTP(ctx, user.Email, code); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	if s.Mailer != nil {
		if err := s.Mailer.SendOTP(ctx, user.Email, user.Username, code); err != nil {
			logging.FromContext(ctx).Error("otp_mail_error", "reason", "cannot queue otp mail", "error", err)
		}
	}
	return nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	l := logging.FromContext(ctx).With("svc", "auth.verify_email")

	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrInvalidOTP
	}

	row, err := s.Repo.FindOTPByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("verify_error", "status", 400, "reason", "unknown otp")
			return ErrInvalidOTP
		}
		l.Error("verify_error", "status", 500, "error", err)
		return err
	}
	if row.Email != email {
		l.Warn("verify_error", "status", 400, "reason", "otp email mismatch")
		return ErrInvalidOTP
	}
	if err := otp.CheckExpiry(row.CreatedAt, s.now()); err != nil {
		l.Warn("verify_error", "status", 400, "reason", "otp expired")
		return ErrInvalidOTP
	}

	if _, err := s.findUser(ctx, email); err != nil {
		if errors.Is(err, ErrNotFound) {
			l.Warn("verify_error", "status", 400, "reason", "unknown user")
		}
		return err
	}

	if err := s.Repo.MarkEmailVerified(ctx, email); err != nil {
		l.Error("verify_error", "status", 500, "reason", "cannot mark email verified", "error", err)
		return err
	}
	if err := s.Repo.DeleteOTPsForEmail(ctx, email); err != nil {
		l.Warn("verify_cleanup_error", "reason", "cannot delete used otp", "error", err)
	}

	l.Info("email_verified")
	return nil
}

func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "auth.resend_otp")

	user, err := s.findUser(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if user.IsVerified() {
		l.Warn("resend_otp_error", "status", 400, "reason", "already verified")
		return ErrAlreadyVerified
	}
	if err := s.issueOTP(ctx, user); err != nil {
		l.Error("resend_otp_error", "status", 500, "error", err)
		return err
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*transport.LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.findUser(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := hash.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "stored hash unreadable", "error", err)
		return nil, err
	}
	if !ok {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}
	if !user.IsVerified() {
		l.Warn("login_failed", "status", 403, "reason", "email not verified")
		return nil, ErrEmailNotVerified
	}

	token, exp, err := s.Tokens.Issue(user.Email)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue token", "error", err)
		return nil, err
	}

	l.Info("login_successful", "user_id", user.ID)
	return &transport.LoginResult{User: user, Token: token, ExpiresAt: exp}, nil
}

// FindByEmail resolves the bearer token subject.
func (s *AuthService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, email)
}

func (s *AuthService) findUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func publish(ctx context.Context, p events.Publisher, ev events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx).Error("publish_error", "event", ev.Type, "error", err)
	}
}
