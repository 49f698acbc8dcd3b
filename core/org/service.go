package org

import (
	"context"
	"errors"
	"time"

	"github.com/zawadi/chekechea/core"
)

var (
	// errors
	ErrNotFound   = errors.New("org not found")
	ErrSlugExists = errors.New("an org with this slug already exists")
)

type (
	Repository interface {
		CheckSlugUniqueness(ctx context.Context, slug string, exec ...core.DBExecutor) error
		CreateOrg(ctx context.Context, o Org, exec ...core.DBExecutor) (Org, error)
		QueryAllOrgs(ctx context.Context, exec ...core.DBExecutor) ([]Org, error)
		GetOrg(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Org, error)
		UpdateOrg(ctx context.Context, o Org, exec ...core.DBExecutor) (Org, error)
	}

	ServiceInterface interface {
		CheckUniqueness(slug string) error
		Create(ctx context.Context, no NewOrg) (Org, error)
		QueryAll(ctx context.Context) ([]Org, error)
		GetByID(ctx context.Context, id string) (Org, error)
		GetBySlug(ctx context.Context, slug string) (Org, error)
		Update(ctx context.Context, origOrg Org, uo UpdateOrg) (Org, error)
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

func (svc *service) CheckUniqueness(slug string) error {
	if err := svc.repo.CheckSlugUniqueness(context.Background(), slug); err != nil {
		if err == ErrSlugExists {
			return core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, no NewOrg) (Org, error) {
	now := time.Now().UTC()
	o := Org{
		Name:      no.Name,
		Slug:      no.Slug,
		Timezone:  no.Timezone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateOrg(ctx, o)
}

func (svc *service) QueryAll(ctx context.Context) ([]Org, error) {
	return svc.repo.QueryAllOrgs(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (Org, error) {
	return svc.repo.GetOrg(ctx, GetFilter{ID: id})
}

func (svc *service) GetBySlug(ctx context.Context, slug string) (Org, error) {
	return svc.repo.GetOrg(ctx, GetFilter{Slug: core.CleanString(slug, true /* lower */)})
}

func (svc *service) Update(ctx context.Context, origOrg Org, uo UpdateOrg) (Org, error) {
	o := origOrg
	o.Name = uo.Name
	o.Timezone = uo.Timezone
	o.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateOrg(ctx, o)
}
