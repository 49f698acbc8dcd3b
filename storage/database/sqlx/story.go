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
	"github.com/zawadi/chekechea/core/story"
)

var (
	storyColumns = []string{
		"id", "org_id", "author_id", "title", "body", "photo_urls", "audience",
		"room_ids", "created_at", "updated_at", "deleted_at",
	}
	storyColumnList = strings.Join(storyColumns, ", ")
)

type storyRow struct {
	ID        string         `db:"id"`
	OrgID     string         `db:"org_id"`
	AuthorID  string         `db:"author_id"`
	Title     string         `db:"title"`
	Body      string         `db:"body"`
	PhotoURLs pq.StringArray `db:"photo_urls"`
	Audience  string         `db:"audience"`
	RoomIDs   pq.StringArray `db:"room_ids"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
	DeletedAt null.Time      `db:"deleted_at"`
}

func (row storyRow) toStory() story.Story {
	return story.Story{
		ID:        row.ID,
		OrgID:     row.OrgID,
		AuthorID:  row.AuthorID,
		Title:     row.Title,
		Body:      row.Body,
		PhotoURLs: row.PhotoURLs,
		Visibility: core.Visibility{
			Audience: core.Audience(row.Audience),
			RoomIDs:  row.RoomIDs,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		DeletedAt: row.DeletedAt,
	}
}

type storyRepository struct {
	db *sqlx.DB
}

var _ story.Repository = (*storyRepository)(nil) // interface compliance check

func NewStoryRepository(db *sqlx.DB) *storyRepository {
	return &storyRepository{db: db}
}

func (repo storyRepository) CreateStory(ctx context.Context, s story.Story, exec ...core.DBExecutor) (story.Story, error) {
	s.ID = uuid.New().String()
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now

	query, args, err := psql.Insert("story").
		Columns(storyColumns...).
		Values(
			s.ID, s.OrgID, s.AuthorID, s.Title, s.Body,
			pq.StringArray(s.PhotoURLs), s.Audience, pq.StringArray(s.RoomIDs),
			s.CreatedAt, s.UpdatedAt, s.DeletedAt,
		).
		ToSql()
	if err != nil {
		return story.Story{}, errors.Wrap(err, "building story insert")
	}
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, args...); err != nil {
		return story.Story{}, errors.Wrap(err, "inserting story")
	}
	return s, nil
}

func (repo storyRepository) QueryStories(ctx context.Context, viewer core.Viewer, filter *story.QueryFilter, ordering []core.DBOrdering, paging core.DBPaging, exec ...core.DBExecutor) ([]story.Story, error) {
	q := psql.Select(storyColumns...).
		From("story").
		Where(sq.Eq{"org_id": viewer.OrgID}).
		Where("deleted_at IS NULL")
	if pred := audiencePredicate(viewer); pred != nil {
		q = q.Where(pred)
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
		if !filter.From.IsZero() {
			q = q.Where(sq.GtOrEq{"created_at": filter.From.UTC()})
		}
		if !filter.To.IsZero() {
			q = q.Where(sq.LtOrEq{"created_at": filter.To.UTC()})
		}
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	q = applyPaging(applyOrdering(q, ordering), paging)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building stories query")
	}
	var rows []storyRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying stories")
	}

	stories := make([]story.Story, 0, len(rows))
	for _, row := range rows {
		stories = append(stories, row.toStory())
	}
	return stories, nil
}

func (repo storyRepository) GetStory(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (story.Story, error) {
	query, args, err := psql.Select(storyColumns...).
		From("story").
		Where(sq.Eq{"org_id": orgID, "id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return story.Story{}, errors.Wrap(err, "building story query")
	}
	var row storyRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return story.Story{}, trapNoRowsErr(err, story.ErrNotFound, "getting story")
	}
	return row.toStory(), nil
}

func (repo storyRepository) UpdateStory(ctx context.Context, s story.Story, exec ...core.DBExecutor) (story.Story, error) {
	query, args, err := psql.Update("story").
		Where(sq.Eq{"id": s.ID}).
		Set("title", s.Title).
		Set("body", s.Body).
		Set("photo_urls", pq.StringArray(s.PhotoURLs)).
		Set("audience", s.Audience).
		Set("room_ids", pq.StringArray(s.RoomIDs)).
		Set("updated_at", s.UpdatedAt.UTC()).
		Set("deleted_at", s.DeletedAt).
		Suffix("RETURNING " + storyColumnList).
		ToSql()
	if err != nil {
		return story.Story{}, errors.Wrap(err, "building story update")
	}
	var row storyRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return story.Story{}, trapNoRowsErr(err, story.ErrNotFound, "updating story")
	}
	return row.toStory(), nil
}
