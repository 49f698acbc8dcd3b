package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/menu"
)

type menuRepository struct {
	db *menuTable
}

var _ menu.Repository = (*menuRepository)(nil) // interface compliance check

func NewMenuRepository(db *DB) *menuRepository {
	return &menuRepository{db: db.menu}
}

func (repo *menuRepository) CreateMenu(ctx context.Context, m menu.Menu, exec ...core.DBExecutor) (menu.Menu, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	m.ID = uuid.New().String()
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	repo.db.table[m.ID] = &m
	return m, nil
}

func (repo *menuRepository) GetMenu(ctx context.Context, orgID string, date time.Time, exec ...core.DBExecutor) (menu.Menu, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	day := menu.Day(date)
	for _, m := range repo.db.table {
		if m.OrgID == orgID && m.Date.Equal(day) {
			return *m, nil
		}
	}
	return menu.Menu{}, menu.ErrNotFound
}

func (repo *menuRepository) UpdateMenu(ctx context.Context, m menu.Menu, exec ...core.DBExecutor) (menu.Menu, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origMenu, ok := repo.db.table[m.ID]
	if !ok {
		return menu.Menu{}, menu.ErrNotFound
	}
	origMenu.Breakfast = m.Breakfast
	origMenu.Lunch = m.Lunch
	origMenu.Snack = m.Snack
	origMenu.Notes = m.Notes
	origMenu.UpdatedAt = m.UpdatedAt
	return *origMenu, nil
}

func (repo *menuRepository) QueryMenus(ctx context.Context, orgID string, filter *menu.QueryFilter, exec ...core.DBExecutor) ([]menu.Menu, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var menus []menu.Menu
	for _, m := range repo.db.table {
		if m.OrgID != orgID {
			continue
		}
		if filter != nil {
			if !filter.From.IsZero() && m.Date.Before(menu.Day(filter.From)) {
				continue
			}
			if !filter.To.IsZero() && m.Date.After(menu.Day(filter.To)) {
				continue
			}
		}
		menus = append(menus, *m)
	}
	// oldest first
	sort.Slice(menus, func(i, j int) bool { return menus[i].Date.Before(menus[j].Date) })
	return menus, nil
}
