package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/tasklists/internal/events"
	"github.com/Skotchmaster/tasklists/internal/logging"
	"github.com/Skotchmaster/tasklists/internal/models"
	"github.com/Skotchmaster/tasklists/internal/repo"
	"github.com/Skotchmaster/tasklists/internal/transport"
	"github.com/Skotchmaster/tasklists/internal/util"
)

const indexTimeout = 5 * time.Second

type Indexer interface {
	IndexList(ctx context.Context, item *models.List) error
	DeleteList(ctx context.Context, id uuid.UUID) error
	SearchLists(ctx context.Context, owner uuid.UUID, query string, from, size int) (int64, []models.List, error)
}

type ListService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	Index  Indexer
}

func normalizeImportance(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if !models.ValidImportance(v) {
		return "", invalid("importance must be one of high, medium, low")
	}
	return v, nil
}

func (s *ListService) Create(ctx context.Context, owner uuid.UUID, req transport.CreateListRequest) (*models.List, error) {
	l := logging.FromContext(ctx).With("svc", "list.create", "user_id", owner)

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	importance, err := normalizeImportance(req.Importance)
	if err != nil {
		return nil, err
	}

	if err := s.ensureTitleFree(ctx, owner, title, uuid.Nil); err != nil {
		return nil, err
	}

	item := &models.List{
		UserID:     owner,
		Title:      title,
		Descr:      req.Descr,
		Body:       req.Body,
		Importance: importance,
	}
	if err := s.Repo.CreateList(ctx, item); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			l.Warn("create_list_error", "status", 406, "reason", "duplicate title")
			return nil, ErrDuplicateTitle
		}
		l.Error("create_list_error", "status", 500, "error", err)
		return nil, err
	}

	s.afterWrite(ctx, events.ListCreated, item)
	return item, nil
}

func (s *ListService) List(ctx context.Context, owner uuid.UUID, page, size int, search string) (util.Page[models.List], error) {
	page, size = util.Normalize(page, size)
	from, limit := util.Calculate(page, size)

	total, items, err := s.Repo.ListLists(ctx, owner, strings.TrimSpace(search), from, limit)
	if err != nil {
		logging.FromContext(ctx).Error("list_lists_error", "status", 500, "user_id", owner, "error", err)
		return util.Page[models.List]{}, err
	}
	return util.NewPage(items, total, page, size), nil
}

func (s *ListService) Get(ctx context.Context, owner, id uuid.UUID) (*models.List, error) {
	item, err := s.Repo.GetList(ctx, owner, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get list: %w", err)
	}
	return item, nil
}

func (s *ListService) Update(ctx context.Context, owner, id uuid.UUID, req transport.PatchListRequest) (*models.List, error) {
	l := logging.FromContext(ctx).With("svc", "list.update", "user_id", owner, "list_id", id)

	item, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, invalid("title cannot be empty")
		}
		if title != item.Title {
			if err := s.ensureTitleFree(ctx, owner, title, item.ID); err != nil {
				return nil, err
			}
		}
		item.Title = title
	}
	if req.Descr != nil {
		item.Descr = req.Descr
	}
	if req.Body != nil {
		item.Body = req.Body
	}
	if req.Importance != nil {
		importance, err := normalizeImportance(*req.Importance)
		if err != nil {
			return nil, err
		}
		item.Importance = importance
	}

	if err := s.Repo.SaveList(ctx, item); err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicate):
			l.Warn("update_list_error", "status", 406, "reason", "duplicate title")
			return nil, ErrDuplicateTitle
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrNotFound
		}
		l.Error("update_list_error", "status", 500, "error", err)
		return nil, err
	}

	s.afterWrite(ctx, events.ListUpdated, item)
	return item, nil
}

func (s *ListService) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if err := s.Repo.DeleteList(ctx, owner, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		logging.FromContext(ctx).Error("delete_list_error", "status", 500, "user_id", owner, "error", err)
		return fmt.Errorf("delete list: %w", err)
	}

	publish(ctx, s.Events, events.New(events.ListDeleted, id.String(), map[string]string{
		"id":      id.String(),
		"user_id": owner.String(),
	}))
	if s.Index != nil {
		ictx, cancel := context.WithTimeout(ctx, indexTimeout)
		defer cancel()
		if err := s.Index.DeleteList(ictx, id); err != nil {
			logging.FromContext(ctx).Warn("index_delete_error", "list_id", id, "error", err)
		}
	}
	return nil
}

func (s *ListService) Search(ctx context.Context, owner uuid.UUID, query string, page, size int) (util.Page[models.List], error) {
	if s.Index == nil {
		return util.Page[models.List]{}, ErrSearchUnavailable
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return util.Page[models.List]{}, invalid("query is required")
	}

	page, size = util.Normalize(page, size)
	from, limit := util.Calculate(page, size)

	ictx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()
	total, items, err := s.Index.SearchLists(ictx, owner, query, from, limit)
	if err != nil {
		logging.FromContext(ctx).Error("search_lists_error", "status", 500, "user_id", owner, "error", err)
		return util.Page[models.List]{}, err
	}
	return util.NewPage(items, total, page, size), nil
}

// ensureTitleFree reports ErrDuplicateTitle when another item of the owner already uses title.
func (s *ListService) ensureTitleFree(ctx context.Context, owner uuid.UUID, title string, self uuid.UUID) error {
	existing, err := s.Repo.FindListByTitle(ctx, owner, title)
	switch {
	case err == nil && existing.ID != self:
		logging.FromContext(ctx).Warn("list_title_taken", "status", 406, "user_id", owner)
		return ErrDuplicateTitle
	case err == nil, errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return fmt.Errorf("find list by title: %w", err)
	}
}

func (s *ListService) afterWrite(ctx context.Context, typ string, item *models.List) {
	publish(ctx, s.Events, events.New(typ, item.ID.String(), item))
	if s.Index == nil {
		return
	}
	ictx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()
	if err := s.Index.IndexList(ictx, item); err != nil {
		logging.FromContext(ctx).Warn("index_list_error", "list_id", item.ID, "error", err)
	}
}
