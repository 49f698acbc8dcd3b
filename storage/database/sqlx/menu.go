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
	"github.com/zawadi/chekechea/core/menu"
)

var (
	menuColumns = []string{
		"id", "org_id", "date", "breakfast", "lunch", "snack", "notes",
		"created_at", "updated_at",
	}
	menuColumnList = strings.Join(menuColumns, ", ")
)

type menuRow struct {
	ID        string    `db:"id"`
	OrgID     string    `db:"org_id"`
	Date      time.Time `db:"date"`
	Breakfast string    `db:"breakfast"`
	Lunch     string    `db:"lunch"`
	Snack     string    `db:"snack"`
	Notes     string    `db:"notes"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row menuRow) toMenu() menu.Menu {
	return menu.Menu(row)
}

type menuRepository struct {
	db *sqlx.DB
}

var _ menu.Repository = (*menuRepository)(nil) // interface compliance check

func NewMenuRepository(db *sqlx.DB) *menuRepository {
	return &menuRepository{db: db}
}

func (repo menuRepository) CreateMenu(ctx context.Context, m menu.Menu, exec ...core.DBExecutor) (menu.Menu, error) {
	m.ID = uuid.New().String()
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now

	query, args, err := psql.Insert("menu").
		Columns(menuColumns...).
		Values(
			m.ID, m.OrgID, m.Date, m.Breakfast, m.Lunch, m.Snack, m.Notes,
			m.CreatedAt, m.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return menu.Menu{}, errors.Wrap(err, "building menu insert")
	}
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, args...); err != nil {
		return menu.Menu{}, errors.Wrap(err, "inserting menu")
	}
	return m, nil
}

func (repo menuRepository) GetMenu(ctx context.Context, orgID string, date time.Time, exec ...core.DBExecutor) (menu.Menu, error) {
	query, args, err := psql.Select(menuColumns...).
		From("menu").
		Where(sq.Eq{"org_id": orgID, "date": menu.Day(date)}).
		ToSql()
	if err != nil {
		return menu.Menu{}, errors.Wrap(err, "building menu query")
	}
	var row menuRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return menu.Menu{}, trapNoRowsErr(err, menu.ErrNotFound, "getting menu")
	}
	return row.toMenu(), nil
}

func (repo menuRepository) UpdateMenu(ctx context.Context, m menu.Menu, exec ...core.DBExecutor) (menu.Menu, error) {
	query, args, err := psql.Update("menu").
		Where(sq.Eq{"id": m.ID}).
		Set("breakfast", m.Breakfast).
		Set("lunch", m.Lunch).
		Set("snack", m.Snack).
		Set("notes", m.Notes).
		Set("updated_at", m.UpdatedAt.UTC()).
		Suffix("RETURNING " + menuColumnList).
		ToSql()
	if err != nil {
		return menu.Menu{}, errors.Wrap(err, "building menu update")
	}
	var row menuRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return menu.Menu{}, trapNoRowsErr(err, menu.ErrNotFound, "updating menu")
	}
	return row.toMenu(), nil
}

func (repo menuRepository) QueryMenus(ctx context.Context, orgID string, filter *menu.QueryFilter, exec ...core.DBExecutor) ([]menu.Menu, error) {
	q := psql.Select(menuColumns...).
		From("menu").
		Where(sq.Eq{"org_id": orgID})

	if filter != nil {
		if !filter.From.IsZero() {
			q = q.Where(sq.GtOrEq{"date": menu.Day(filter.From)})
		}
		if !filter.To.IsZero() {
			q = q.Where(sq.LtOrEq{"date": menu.Day(filter.To)})
		}
	}

	query, args, err := q.OrderBy("date ASC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building menus query")
	}
	var rows []menuRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying menus")
	}

	menus := make([]menu.Menu, 0, len(rows))
	for _, row := range rows {
		menus = append(menus, row.toMenu())
	}
	return menus, nil
}
