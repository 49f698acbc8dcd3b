package sqlxrepos

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/org"
)

var (
	orgColumns    = []string{"id", "name", "slug", "timezone", "created_at", "updated_at"}
	orgColumnList = strings.Join(orgColumns, ", ")
)

type orgRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Slug      string    `db:"slug"`
	Timezone  string    `db:"timezone"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row orgRow) toOrg() org.Org {
	return org.Org(row)
}

type orgRepository struct {
	db *sqlx.DB
}

var _ org.Repository = (*orgRepository)(nil) // interface compliance check

func NewOrgRepository(db *sqlx.DB) *orgRepository {
	return &orgRepository{db: db}
}

func (repo orgRepository) CheckSlugUniqueness(ctx context.Context, slug string, exec ...core.DBExecutor) error {
	query, args, err := psql.Select("COUNT(*)").
		From("org").
		Where(sq.Eq{"slug": slug}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building org uniqueness query")
	}
	var count int
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &count, query, args...); err != nil {
		return errors.Wrap(err, "checking org uniqueness")
	}
	if count > 0 {
		return org.ErrSlugExists
	}
	return nil
}

func (repo orgRepository) CreateOrg(ctx context.Context, o org.Org, exec ...core.DBExecutor) (org.Org, error) {
	o.ID = uuid.New().String()
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now

	query, args, err := psql.Insert("org").
		Columns(orgColumns...).
		Values(o.ID, o.Name, o.Slug, o.Timezone, o.CreatedAt, o.UpdatedAt).
		ToSql()
	if err != nil {
		return org.Org{}, errors.Wrap(err, "building org insert")
	}
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, args...); err != nil {
		return org.Org{}, errors.Wrap(err, "inserting org")
	}
	return o, nil
}

func (repo orgRepository) QueryAllOrgs(ctx context.Context, exec ...core.DBExecutor) ([]org.Org, error) {
	query, args, err := psql.Select(orgColumns...).
		From("org").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building orgs query")
	}
	var rows []orgRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying orgs")
	}

	orgs := make([]org.Org, 0, len(rows))
	for _, row := range rows {
		orgs = append(orgs, row.toOrg())
	}
	return orgs, nil
}

func (repo orgRepository) GetOrg(ctx context.Context, filter org.GetFilter, exec ...core.DBExecutor) (org.Org, error) {
	q := psql.Select(orgColumns...).From("org")
	if filter.ID != "" {
		q = q.Where(sq.Eq{"id": filter.ID})
	} else {
		q = q.Where(sq.Eq{"slug": filter.Slug})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return org.Org{}, errors.Wrap(err, "building org query")
	}
	var row orgRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return org.Org{}, trapNoRowsErr(err, org.ErrNotFound, "getting org")
	}
	return row.toOrg(), nil
}

func (repo orgRepository) UpdateOrg(ctx context.Context, o org.Org, exec ...core.DBExecutor) (org.Org, error) {
	query, args, err := psql.Update("org").
		Where(sq.Eq{"id": o.ID}).
		Set("name", o.Name).
		Set("timezone", o.Timezone).
		Set("updated_at", o.UpdatedAt.UTC()).
		Suffix("RETURNING " + orgColumnList).
		ToSql()
	if err != nil {
		return org.Org{}, errors.Wrap(err, "building org update")
	}
	var row orgRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return org.Org{}, trapNoRowsErr(err, org.ErrNotFound, "updating org")
	}
	return row.toOrg(), nil
}
