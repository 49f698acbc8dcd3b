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
	"github.com/zawadi/chekechea/core/announce"
)

var (
	announcementColumns = []string{
		"id", "org_id", "author_id", "title", "body", "audience", "room_ids",
		"pinned", "publish_at", "expires_at", "created_at", "updated_at", "deleted_at",
	}
	announcementColumnList = strings.Join(announcementColumns, ", ")
)

type announcementRow struct {
	ID        string         `db:"id"`
	OrgID     string         `db:"org_id"`
	AuthorID  string         `db:"author_id"`
	Title     string         `db:"title"`
	Body      string         `db:"body"`
	Audience  string         `db:"audience"`
	RoomIDs   pq.StringArray `db:"room_ids"`
	Pinned    bool           `db:"pinned"`
	PublishAt time.Time      `db:"publish_at"`
	ExpiresAt null.Time      `db:"expires_at"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
	DeletedAt null.Time      `db:"deleted_at"`
}

func (row announcementRow) toAnnouncement() announce.Announcement {
	return announce.Announcement{
		ID:       row.ID,
		OrgID:    row.OrgID,
		AuthorID: row.AuthorID,
		Title:    row.Title,
		Body:     row.Body,
		Visibility: core.Visibility{
			Audience: core.Audience(row.Audience),
			RoomIDs:  row.RoomIDs,
		},
		Pinned:    row.Pinned,
		PublishAt: row.PublishAt,
		ExpiresAt: row.ExpiresAt,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		DeletedAt: row.DeletedAt,
	}
}

type announcementRepository struct {
	db *sqlx.DB
}

var _ announce.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *sqlx.DB) *announcementRepository {
	return &announcementRepository{db: db}
}

func (repo announcementRepository) CreateAnnouncement(ctx context.Context, a announce.Announcement, exec ...core.DBExecutor) (announce.Announcement, error) {
	a.ID = uuid.New().String()
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now

	query, args, err := psql.Insert("announcement").
		Columns(announcementColumns...).
		Values(
			a.ID, a.OrgID, a.AuthorID, a.Title, a.Body,
			a.Audience, pq.StringArray(a.RoomIDs),
			a.Pinned, a.PublishAt.UTC(), a.ExpiresAt,
			a.CreatedAt, a.UpdatedAt, a.DeletedAt,
		).
		ToSql()
	if err != nil {
		return announce.Announcement{}, errors.Wrap(err, "building announcement insert")
	}
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, args...); err != nil {
		return announce.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	return a, nil
}

func (repo announcementRepository) QueryAnnouncements(ctx context.Context, viewer core.Viewer, filter *announce.QueryFilter, now time.Time, exec ...core.DBExecutor) ([]announce.Announcement, error) {
	q := psql.Select(announcementColumns...).
		From("announcement").
		Where(sq.Eq{"org_id": viewer.OrgID}).
		Where("deleted_at IS NULL")
	if pred := audiencePredicate(viewer); pred != nil {
		q = q.Where(pred)
	}

	includeExpired := filter != nil && filter.IncludeExpired && viewer.IsStaff
	if !includeExpired {
		q = q.Where(sq.LtOrEq{"publish_at": now.UTC()}).
			Where(sq.Or{
				sq.Eq{"expires_at": nil},
				sq.GtOrEq{"expires_at": now.UTC()},
			})
	}

	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			q = q.Where(sq.Or{
				sq.Expr("title ILIKE ?", val),
				sq.Expr("body ILIKE ?", val),
			})
		}
		if filter.RoomID != "" {
			q = q.Where(sq.Expr("room_ids && ?::uuid[]", pq.StringArray{filter.RoomID}))
		}
	}

	query, args, err := q.OrderBy("pinned DESC", "publish_at DESC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building announcements query")
	}
	var rows []announcementRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}

	anns := make([]announce.Announcement, 0, len(rows))
	for _, row := range rows {
		anns = append(anns, row.toAnnouncement())
	}
	return anns, nil
}

func (repo announcementRepository) GetAnnouncement(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (announce.Announcement, error) {
	query, args, err := psql.Select(announcementColumns...).
		From("announcement").
		Where(sq.Eq{"org_id": orgID, "id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return announce.Announcement{}, errors.Wrap(err, "building announcement query")
	}
	var row announcementRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return announce.Announcement{}, trapNoRowsErr(err, announce.ErrNotFound, "getting announcement")
	}
	return row.toAnnouncement(), nil
}

func (repo announcementRepository) UpdateAnnouncement(ctx context.Context, a announce.Announcement, exec ...core.DBExecutor) (announce.Announcement, error) {
	query, args, err := psql.Update("announcement").
		Where(sq.Eq{"id": a.ID}).
		Set("title", a.Title).
		Set("body", a.Body).
		Set("audience", a.Audience).
		Set("room_ids", pq.StringArray(a.RoomIDs)).
		Set("pinned", a.Pinned).
		Set("publish_at", a.PublishAt.UTC()).
		Set("expires_at", a.ExpiresAt).
		Set("updated_at", a.UpdatedAt.UTC()).
		Set("deleted_at", a.DeletedAt).
		Suffix("RETURNING " + announcementColumnList).
		ToSql()
	if err != nil {
		return announce.Announcement{}, errors.Wrap(err, "building announcement update")
	}
	var row announcementRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return announce.Announcement{}, trapNoRowsErr(err, announce.ErrNotFound, "updating announcement")
	}
	return row.toAnnouncement(), nil
}
