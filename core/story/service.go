package story

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/zawadi/chekechea/core"
)

var (
	// errors
	ErrNotFound = errors.New("story not found")
)

type (
	Repository interface {
		CreateStory(ctx context.Context, s Story, exec ...core.DBExecutor) (Story, error)
		// QueryStories builds the viewer's audience rules as OR-filters and
		// excludes soft-deleted rows. Callers must still re-validate the
		// rows (core.Visibility.VisibleTo).
		QueryStories(ctx context.Context, viewer core.Viewer, filter *QueryFilter, ordering []core.DBOrdering, paging core.DBPaging, exec ...core.DBExecutor) ([]Story, error)
		GetStory(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (Story, error)
		UpdateStory(ctx context.Context, s Story, exec ...core.DBExecutor) (Story, error)
	}

	// Notifier fans notifications out after a story is published.
	Notifier interface {
		StoryPublished(ctx context.Context, s Story)
	}

	ServiceInterface interface {
		Create(ctx context.Context, orgID, authorID string, ns NewStory) (Story, error)
		// Query returns stories the viewer may see, newest first.
		Query(ctx context.Context, viewer core.Viewer, filter *QueryFilter, paging core.DBPaging) ([]Story, error)
		GetByID(ctx context.Context, viewer core.Viewer, id string) (Story, error)
		Update(ctx context.Context, origStory Story, us UpdateStory) (Story, error)
		SoftDelete(ctx context.Context, origStory Story) error
	}

	service struct {
		db       core.DB
		repo     Repository
		notifier Notifier
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(db core.DB, repo Repository, notifier Notifier) *service {
	return &service{db: db, repo: repo, notifier: notifier}
}

func (svc *service) Create(ctx context.Context, orgID, authorID string, ns NewStory) (Story, error) {
	now := time.Now().UTC()
	s := Story{
		OrgID:     orgID,
		AuthorID:  authorID,
		Title:     ns.Title,
		Body:      ns.Body,
		PhotoURLs: ns.PhotoURLs,
		Visibility: core.Visibility{
			Audience: core.Audience(ns.Audience),
			RoomIDs:  ns.RoomIDs,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s, err := svc.repo.CreateStory(ctx, s)
	if err != nil {
		return Story{}, err
	}
	if svc.notifier != nil {
		svc.notifier.StoryPublished(ctx, s)
	}
	return s, nil
}

func (svc *service) Query(ctx context.Context, viewer core.Viewer, filter *QueryFilter, paging core.DBPaging) ([]Story, error) {
	if filter != nil && filter.IsEmpty() {
		filter = nil
	}
	ordering := []core.DBOrdering{{Field: "created_at", Ascending: false}}
	stories, err := svc.repo.QueryStories(ctx, viewer, filter, ordering, paging)
	if err != nil {
		return nil, err
	}

	// Safety net: the SQL filters and these rules must agree; drop anything
	// that slips through.
	visible := stories[:0]
	for _, s := range stories {
		if !s.Deleted() && s.VisibleTo(viewer, s.OrgID) {
			visible = append(visible, s)
		}
	}
	return visible, nil
}

func (svc *service) GetByID(ctx context.Context, viewer core.Viewer, id string) (Story, error) {
	s, err := svc.repo.GetStory(ctx, viewer.OrgID, id)
	if err != nil {
		return Story{}, err
	}
	if s.Deleted() || !s.VisibleTo(viewer, s.OrgID) {
		return Story{}, ErrNotFound
	}
	return s, nil
}

func (svc *service) Update(ctx context.Context, origStory Story, us UpdateStory) (Story, error) {
	s := origStory
	s.Title = us.Title
	s.Body = us.Body
	if us.PhotoURLs != nil {
		s.PhotoURLs = us.PhotoURLs
	}
	s.Audience = core.Audience(us.Audience)
	if us.RoomIDs != nil {
		s.RoomIDs = us.RoomIDs
	}
	s.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStory(ctx, s)
}

func (svc *service) SoftDelete(ctx context.Context, origStory Story) error {
	s := origStory
	now := time.Now().UTC()
	s.UpdatedAt = now
	s.DeletedAt = null.TimeFrom(now)
	_, err := svc.repo.UpdateStory(ctx, s)
	return err
}
