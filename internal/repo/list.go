package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/tasklists/internal/models"
)

func (r *GormRepo) FindListByTitle(ctx context.Context, owner uuid.UUID, title string) (*models.List, error) {
	var item models.List
	if err := r.DB.WithContext(ctx).Where("user_id = ? AND title = ?", owner, title).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) CreateList(ctx context.Context, item *models.List) error {
	if err := r.DB.WithContext(ctx).Create(item).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create list: %w", ErrDuplicate)
		}
		return fmt.Errorf("create list: %w", err)
	}
	return nil
}

// ListLists returns one page of the owner's items and the total matching count.
// A non-empty search filters by case-insensitive title substring.
func (r *GormRepo) ListLists(ctx context.Context, owner uuid.UUID, search string, offset, limit int) (int64, []models.List, error) {
	q := r.DB.WithContext(ctx).Model(&models.List{}).Where("user_id = ?", owner)
	if search != "" {
		q = q.Where("LOWER(title) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(search))+"%")
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, nil, fmt.Errorf("count lists: %w", err)
	}

	items := make([]models.List, 0, limit)
	if err := q.Session(&gorm.Session{}).
		Order("created_at ASC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, fmt.Errorf("find lists: %w", err)
	}
	return total, items, nil
}

func (r *GormRepo) GetList(ctx context.Context, owner, id uuid.UUID) (*models.List, error) {
	var item models.List
	if err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, owner).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) SaveList(ctx context.Context, item *models.List) error {
	item.UpdatedAt = time.Now().UTC()
	res := r.DB.WithContext(ctx).Model(&models.List{}).
		Where("id = ? AND user_id = ?", item.ID, item.UserID).
		Updates(map[string]any{
			"title":      item.Title,
			"descr":      item.Descr,
			"body":       item.Body,
			"importance": item.Importance,
			"updated_at": item.UpdatedAt,
		})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return fmt.Errorf("update list: %w", ErrDuplicate)
		}
		return fmt.Errorf("update list: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) DeleteList(ctx context.Context, owner, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, owner).Delete(&models.List{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
