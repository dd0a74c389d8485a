package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/tasklists/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user: %w", ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *GormRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).Order("created_at").First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) MarkEmailVerified(ctx context.Context, email string) error {
	return r.updateUser(ctx, email, map[string]any{"email_verified": true})
}

func (r *GormRepo) SetProfileImage(ctx context.Context, email, url string) error {
	return r.updateUser(ctx, email, map[string]any{"img": url})
}

func (r *GormRepo) SetPassword(ctx context.Context, email, passwordHash string) error {
	return r.updateUser(ctx, email, map[string]any{"password": passwordHash})
}

func (r *GormRepo) updateUser(ctx context.Context, email string, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
