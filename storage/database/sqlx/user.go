package sqlxrepos

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/user"
)

var (
	userColumns = []string{
		"id", "org_id", "name", "email", "phone", "is_active", "roles", "room_ids",
		"created_at", "updated_at", "last_seen",
	}
	userColumnList = strings.Join(userColumns, ", ")
)

type userRow struct {
	ID        string         `db:"id"`
	OrgID     string         `db:"org_id"`
	Name      string         `db:"name"`
	Email     string         `db:"email"`
	Phone     null.String    `db:"phone"`
	IsActive  null.Bool      `db:"is_active"`
	Roles     pq.StringArray `db:"roles"`
	RoomIDs   pq.StringArray `db:"room_ids"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
	LastSeen  null.Time      `db:"last_seen"`
}

func (row userRow) toUser() user.User {
	return user.User{
		ID:        row.ID,
		OrgID:     row.OrgID,
		Name:      row.Name,
		Email:     row.Email,
		Phone:     row.Phone.String,
		IsActive:  row.IsActive.Ptr(),
		Roles:     row.Roles,
		RoomIDs:   row.RoomIDs,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		LastSeen:  row.LastSeen.Time,
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, orgID, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	q := psql.Select("COUNT(*)").
		From(`"user"`).
		Where(sq.Eq{"org_id": orgID, "email": email})
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q = q.Where(sq.NotEq{"id": ids})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building user uniqueness query")
	}
	var count int
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &count, query, args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if count > 0 {
		return user.ErrUserExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	now := time.Now().UTC()
	usr.CreatedAt, usr.UpdatedAt = now, now

	query, args, err := psql.Insert(`"user"`).
		Columns(userColumns...).
		Values(
			usr.ID, usr.OrgID, usr.Name, usr.Email,
			null.NewString(usr.Phone, usr.Phone != ""), null.BoolFromPtr(usr.IsActive),
			pq.StringArray(usr.Roles), pq.StringArray(usr.RoomIDs),
			usr.CreatedAt, usr.UpdatedAt, null.NewTime(usr.LastSeen.UTC(), !usr.LastSeen.IsZero()),
		).
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building user insert")
	}
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, args...); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, orgID string, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	q := psql.Select(userColumns...).
		From(`"user"`).
		Where(sq.Eq{"org_id": orgID})

	if filter != nil {
		// users with Name or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			q = q.Where(sq.Or{
				sq.Expr("name ILIKE ?", val),
				sq.Expr("email ILIKE ?", val),
			})
		}
		// users with any role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			roleOr := make(sq.Or, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				roleOr = append(roleOr, sq.Expr(
					`id IN (SELECT id FROM "user", UNNEST(roles) user_role WHERE user_role ILIKE ?)`,
					role+"%",
				))
			}
			q = q.Where(roleOr)
		}
		if filter.IsActive != nil {
			q = q.Where(sq.Eq{"is_active": *filter.IsActive})
		}
		if !filter.CreatedFrom.IsZero() {
			q = q.Where(sq.GtOrEq{"created_at": filter.CreatedFrom.UTC()})
		}
		if !filter.CreatedTo.IsZero() {
			q = q.Where(sq.LtOrEq{"created_at": filter.CreatedTo.UTC()})
		}
	}

	q = applyOrdering(q, ordering)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building users query")
	}
	var rows []userRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	q := psql.Select(userColumns...).From(`"user"`)
	if filter.ID != "" {
		q = q.Where(sq.Eq{"id": filter.ID})
	} else {
		q = q.Where(sq.Eq{"org_id": filter.OrgID, "email": filter.Email})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building user query")
	}
	var row userRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return row.toUser(), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool, exec ...core.DBExecutor) (user.User, error) {
	q := psql.Update(`"user"`).
		Where(sq.Eq{"id": usr.ID}).
		Set("updated_at", usr.UpdatedAt.UTC())

	if usr.Name != "" {
		q = q.Set("name", usr.Name)
	}
	if usr.Email != "" {
		q = q.Set("email", usr.Email)
	}
	if usr.Phone != "" {
		q = q.Set("phone", usr.Phone)
	}
	if usr.Roles != nil {
		q = q.Set("roles", pq.StringArray(usr.Roles))
	}
	if usr.RoomIDs != nil {
		q = q.Set("room_ids", pq.StringArray(usr.RoomIDs))
	}
	if !usr.LastSeen.IsZero() {
		q = q.Set("last_seen", usr.LastSeen.UTC())
	}
	if isActive != nil {
		q = q.Set("is_active", *isActive)
	}

	query, args, err := q.Suffix("RETURNING " + userColumnList).ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building user update")
	}
	var row userRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "updating user")
	}
	return row.toUser(), nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, orgID string, ids []string, exec ...core.DBExecutor) (int, error) {
	query, args, err := psql.Delete(`"user"`).
		Where(sq.Eq{"org_id": orgID, "id": ids}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building users delete")
	}
	res, err := getExec(repo.db, exec).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting deleted users")
	}
	return int(n), nil
}
