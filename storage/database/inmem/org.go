package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/org"
)

type orgRepository struct {
	db *orgTable
}

var _ org.Repository = (*orgRepository)(nil) // interface compliance check

func NewOrgRepository(db *DB) *orgRepository {
	return &orgRepository{db: db.org}
}

func (repo *orgRepository) CheckSlugUniqueness(ctx context.Context, slug string, exec ...core.DBExecutor) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, o := range repo.db.table {
		if o.Slug == slug {
			return org.ErrSlugExists
		}
	}
	return nil
}

func (repo *orgRepository) CreateOrg(ctx context.Context, o org.Org, exec ...core.DBExecutor) (org.Org, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	o.ID = uuid.New().String()
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	repo.db.table[o.ID] = &o
	return o, nil
}

func (repo *orgRepository) QueryAllOrgs(ctx context.Context, exec ...core.DBExecutor) ([]org.Org, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	orgs := make([]org.Org, 0, len(repo.db.table))
	for _, o := range repo.db.table {
		orgs = append(orgs, *o)
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].Name < orgs[j].Name })
	return orgs, nil
}

func (repo *orgRepository) GetOrg(ctx context.Context, filter org.GetFilter, exec ...core.DBExecutor) (org.Org, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if o, ok := repo.db.table[filter.ID]; ok {
			return *o, nil
		}
		return org.Org{}, org.ErrNotFound
	}
	for _, o := range repo.db.table {
		if o.Slug == filter.Slug {
			return *o, nil
		}
	}
	return org.Org{}, org.ErrNotFound
}

func (repo *orgRepository) UpdateOrg(ctx context.Context, o org.Org, exec ...core.DBExecutor) (org.Org, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origOrg, ok := repo.db.table[o.ID]
	if !ok {
		return org.Org{}, org.ErrNotFound
	}
	origOrg.Name = o.Name
	origOrg.Timezone = o.Timezone
	origOrg.UpdatedAt = o.UpdatedAt
	return *origOrg, nil
}
