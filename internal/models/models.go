package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ImportanceHigh   = "high"
	ImportanceMedium = "medium"
	ImportanceLow    = "low"
)

func ValidImportance(v string) bool {
	switch v {
	case ImportanceHigh, ImportanceMedium, ImportanceLow:
		return true
	}
	return false
}

type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"      json:"id"`
	Username      string    `gorm:"not null;index"            json:"username"`
	Email         string    `gorm:"not null;uniqueIndex"      json:"email"`
	PasswordHash  string    `gorm:"column:password;not null"  json:"-"`
	EmailVerified *bool     `                                 json:"email_verified"`
	Img           *string   `                                 json:"img"`
	CreatedAt     time.Time `                                 json:"created_at"`
	UpdatedAt     time.Time `                                 json:"updated_at"`
}

// IsVerified treats an unset flag the same as false.
func (u *User) IsVerified() bool {
	return u.EmailVerified != nil && *u.EmailVerified
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type OTP struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	Email     string    `gorm:"not null;index"           json:"email"`
	Code      string    `gorm:"column:otp;not null;index" json:"otp"`
	CreatedAt time.Time `                                json:"created_at"`
}

func (OTP) TableName() string { return "otps" }

type List struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"                              json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_lists_user_title" json:"user_id"`
	Title      string    `gorm:"not null;uniqueIndex:idx_lists_user_title"         json:"title"`
	Descr      *string   `                                                         json:"descr"`
	Body       *string   `                                                         json:"body"`
	Importance string    `gorm:"not null"                                          json:"importance"`
	CreatedAt  time.Time `gorm:"index"                                             json:"created_at"`
	UpdatedAt  time.Time `                                                         json:"updated_at"`
}

func (l *List) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func All() []any {
	return []any{&User{}, &OTP{}, &List{}}
}
