package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/tasklists/internal/models"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyEmailRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type ResendOTPRequest struct {
	Email string `json:"email"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type CreateListRequest struct {
	Title      string  `json:"title"`
	Descr      *string `json:"descr"`
	Body       *string `json:"body"`
	Importance string  `json:"importance"`
}

// PatchListRequest leaves a field unchanged when it is nil.
type PatchListRequest struct {
	Title      *string `json:"title"`
	Descr      *string `json:"descr"`
	Body       *string `json:"body"`
	Importance *string `json:"importance"`
}

type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	Img           *string   `json:"img"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		EmailVerified: u.IsVerified(),
		Img:           u.Img,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}
