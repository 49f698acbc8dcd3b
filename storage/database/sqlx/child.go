package sqlxrepos

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/child"
)

var (
	roomColumns = []string{"id", "org_id", "name", "created_at", "updated_at"}

	childColumns = []string{
		"id", "org_id", "room_id", "name", "birthdate", "allergies", "notes",
		"created_at", "updated_at", "deleted_at",
	}
	childColumnList = strings.Join(childColumns, ", ")
)

type roomRow struct {
	ID        string    `db:"id"`
	OrgID     string    `db:"org_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row roomRow) toRoom() child.Room {
	return child.Room(row)
}

type childRow struct {
	ID        string    `db:"id"`
	OrgID     string    `db:"org_id"`
	RoomID    string    `db:"room_id"`
	Name      string    `db:"name"`
	Birthdate time.Time `db:"birthdate"`
	Allergies string    `db:"allergies"`
	Notes     string    `db:"notes"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	DeletedAt null.Time `db:"deleted_at"`
}

func (row childRow) toChild() child.Child {
	return child.Child(row)
}

func childrenFromRows(rows []childRow) []child.Child {
	children := make([]child.Child, 0, len(rows))
	for _, row := range rows {
		children = append(children, row.toChild())
	}
	return children
}

type childRepository struct {
	db *sqlx.DB
}

var _ child.Repository = (*childRepository)(nil) // interface compliance check

func NewChildRepository(db *sqlx.DB) *childRepository {
	return &childRepository{db: db}
}

func (repo childRepository) CreateRoom(ctx context.Context, r child.Room, exec ...core.DBExecutor) (child.Room, error) {
	r.ID = uuid.New().String()
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now

	query, args, err := psql.Insert("room").
		Columns(roomColumns...).
		Values(r.ID, r.OrgID, r.Name, r.CreatedAt, r.UpdatedAt).
		ToSql()
	if err != nil {
		return child.Room{}, errors.Wrap(err, "building room insert")
	}
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, args...); err != nil {
		return child.Room{}, errors.Wrap(err, "inserting room")
	}
	return r, nil
}

func (repo childRepository) QueryRooms(ctx context.Context, orgID string, exec ...core.DBExecutor) ([]child.Room, error) {
	query, args, err := psql.Select(roomColumns...).
		From("room").
		Where(sq.Eq{"org_id": orgID}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building rooms query")
	}
	var rows []roomRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying rooms")
	}

	rooms := make([]child.Room, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, row.toRoom())
	}
	return rooms, nil
}

func (repo childRepository) GetRoom(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (child.Room, error) {
	query, args, err := psql.Select(roomColumns...).
		From("room").
		Where(sq.Eq{"org_id": orgID, "id": id}).
		ToSql()
	if err != nil {
		return child.Room{}, errors.Wrap(err, "building room query")
	}
	var row roomRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return child.Room{}, trapNoRowsErr(err, child.ErrRoomNotFound, "getting room")
	}
	return row.toRoom(), nil
}

func (repo childRepository) UpdateRoom(ctx context.Context, r child.Room, exec ...core.DBExecutor) (child.Room, error) {
	query, args, err := psql.Update("room").
		Where(sq.Eq{"id": r.ID}).
		Set("name", r.Name).
		Set("updated_at", r.UpdatedAt.UTC()).
		Suffix("RETURNING " + strings.Join(roomColumns, ", ")).
		ToSql()
	if err != nil {
		return child.Room{}, errors.Wrap(err, "building room update")
	}
	var row roomRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return child.Room{}, trapNoRowsErr(err, child.ErrRoomNotFound, "updating room")
	}
	return row.toRoom(), nil
}

func (repo childRepository) DeleteRoom(ctx context.Context, orgID, id string, exec ...core.DBExecutor) error {
	query, args, err := psql.Delete("room").
		Where(sq.Eq{"org_id": orgID, "id": id}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building room delete")
	}
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "deleting room")
	}
	return nil
}

func (repo childRepository) CreateChild(ctx context.Context, c child.Child, exec ...core.DBExecutor) (child.Child, error) {
	c.ID = uuid.New().String()
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	query, args, err := psql.Insert("child").
		Columns(childColumns...).
		Values(
			c.ID, c.OrgID, c.RoomID, c.Name, c.Birthdate.UTC(), c.Allergies, c.Notes,
			c.CreatedAt, c.UpdatedAt, c.DeletedAt,
		).
		ToSql()
	if err != nil {
		return child.Child{}, errors.Wrap(err, "building child insert")
	}
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, args...); err != nil {
		return child.Child{}, errors.Wrap(err, "inserting child")
	}
	return c, nil
}

func (repo childRepository) QueryChildren(ctx context.Context, orgID string, filter *child.QueryFilter, exec ...core.DBExecutor) ([]child.Child, error) {
	q := psql.Select(childColumns...).
		From("child").
		Where(sq.Eq{"org_id": orgID}).
		Where("deleted_at IS NULL")

	if filter != nil {
		if filter.Search != "" {
			q = q.Where(sq.Expr("name ILIKE ?", "%"+filter.Search+"%"))
		}
		if filter.RoomID != "" {
			q = q.Where(sq.Eq{"room_id": filter.RoomID})
		}
	}

	query, args, err := q.OrderBy("name ASC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building children query")
	}
	var rows []childRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying children")
	}
	return childrenFromRows(rows), nil
}

func (repo childRepository) GetChild(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (child.Child, error) {
	query, args, err := psql.Select(childColumns...).
		From("child").
		Where(sq.Eq{"org_id": orgID, "id": id}).
		ToSql()
	if err != nil {
		return child.Child{}, errors.Wrap(err, "building child query")
	}
	var row childRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return child.Child{}, trapNoRowsErr(err, child.ErrNotFound, "getting child")
	}
	return row.toChild(), nil
}

func (repo childRepository) UpdateChild(ctx context.Context, c child.Child, exec ...core.DBExecutor) (child.Child, error) {
	query, args, err := psql.Update("child").
		Where(sq.Eq{"id": c.ID}).
		Set("room_id", c.RoomID).
		Set("name", c.Name).
		Set("birthdate", c.Birthdate.UTC()).
		Set("allergies", c.Allergies).
		Set("notes", c.Notes).
		Set("updated_at", c.UpdatedAt.UTC()).
		Set("deleted_at", c.DeletedAt).
		Suffix("RETURNING " + childColumnList).
		ToSql()
	if err != nil {
		return child.Child{}, errors.Wrap(err, "building child update")
	}
	var row childRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return child.Child{}, trapNoRowsErr(err, child.ErrNotFound, "updating child")
	}
	return row.toChild(), nil
}

func (repo childRepository) LinkGuardian(ctx context.Context, link child.GuardianLink, exec ...core.DBExecutor) error {
	query, args, err := psql.Insert("guardian_link").
		Columns("child_id", "guardian_id", "relation", "created_at").
		Values(link.ChildID, link.GuardianID, link.Relation, time.Now().UTC()).
		Suffix("ON CONFLICT (child_id, guardian_id) DO UPDATE SET relation = EXCLUDED.relation").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building guardian link insert")
	}
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "linking guardian")
	}
	return nil
}

func (repo childRepository) UnlinkGuardian(ctx context.Context, childID, guardianID string, exec ...core.DBExecutor) error {
	query, args, err := psql.Delete("guardian_link").
		Where(sq.Eq{"child_id": childID, "guardian_id": guardianID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building guardian link delete")
	}
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "unlinking guardian")
	}
	return nil
}

func (repo childRepository) QueryGuardianIDs(ctx context.Context, childID string, exec ...core.DBExecutor) ([]string, error) {
	query, args, err := psql.Select("guardian_id").
		From("guardian_link").
		Where(sq.Eq{"child_id": childID}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building guardian ids query")
	}
	var ids []string
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &ids, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying guardian ids")
	}
	return ids, nil
}

func (repo childRepository) QueryChildrenOfGuardian(ctx context.Context, guardianID string, exec ...core.DBExecutor) ([]child.Child, error) {
	query, args, err := psql.Select(prefixColumns("c", childColumns)...).
		From("child c").
		Join("guardian_link gl ON gl.child_id = c.id").
		Where(sq.Eq{"gl.guardian_id": guardianID}).
		Where("c.deleted_at IS NULL").
		OrderBy("c.name ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building guardian children query")
	}
	var rows []childRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying guardian children")
	}
	return childrenFromRows(rows), nil
}
