package menu

import (
	"context"
	"errors"
	"time"

	"github.com/zawadi/chekechea/core"
)

var (
	// errors
	ErrNotFound = errors.New("menu not found")
)

type (
	Repository interface {
		CreateMenu(ctx context.Context, m Menu, exec ...core.DBExecutor) (Menu, error)
		GetMenu(ctx context.Context, orgID string, date time.Time, exec ...core.DBExecutor) (Menu, error)
		UpdateMenu(ctx context.Context, m Menu, exec ...core.DBExecutor) (Menu, error)
		// QueryMenus returns menus in [from, to], oldest first.
		QueryMenus(ctx context.Context, orgID string, filter *QueryFilter, exec ...core.DBExecutor) ([]Menu, error)
	}

	ServiceInterface interface {
		Upsert(ctx context.Context, orgID string, um UpsertMenu) (Menu, error)
		GetByDate(ctx context.Context, orgID string, date time.Time) (Menu, error)
		Query(ctx context.Context, orgID string, filter *QueryFilter) ([]Menu, error)
	}

	service struct {
		db   core.DB
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(db core.DB, repo Repository) *service {
	return &service{db: db, repo: repo}
}

func (svc *service) Upsert(ctx context.Context, orgID string, um UpsertMenu) (Menu, error) {
	now := time.Now().UTC()

	m, err := svc.repo.GetMenu(ctx, orgID, um.Date)
	if err != nil {
		if err != ErrNotFound {
			return Menu{}, err
		}
		return svc.repo.CreateMenu(ctx, Menu{
			OrgID:     orgID,
			Date:      um.Date,
			Breakfast: um.Breakfast,
			Lunch:     um.Lunch,
			Snack:     um.Snack,
			Notes:     um.Notes,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	m.Breakfast = um.Breakfast
	m.Lunch = um.Lunch
	m.Snack = um.Snack
	m.Notes = um.Notes
	m.UpdatedAt = now
	return svc.repo.UpdateMenu(ctx, m)
}

func (svc *service) GetByDate(ctx context.Context, orgID string, date time.Time) (Menu, error) {
	return svc.repo.GetMenu(ctx, orgID, Day(date))
}

func (svc *service) Query(ctx context.Context, orgID string, filter *QueryFilter) ([]Menu, error) {
	if filter != nil && filter.IsEmpty() {
		filter = nil
	}
	return svc.repo.QueryMenus(ctx, orgID, filter)
}
