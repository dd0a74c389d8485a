package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/tasklists/internal/models"
)

// ReplaceOTP removes every earlier code for the email and stores the new one.
func (r *GormRepo) ReplaceOTP(ctx context.Context, email, code string) (*models.OTP, error) {
	row := models.OTP{Email: email, Code: code}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Delete(&models.OTP{}).Error; err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *GormRepo) FindOTPByCode(ctx context.Context, code string) (*models.OTP, error) {
	var row models.OTP
	if err := r.DB.WithContext(ctx).
		Where("otp = ?", code).
		Order("created_at DESC").Order("id DESC").
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *GormRepo) DeleteOTPsForEmail(ctx context.Context, email string) error {
	return r.DB.WithContext(ctx).Where("email = ?", email).Delete(&models.OTP{}).Error
}
