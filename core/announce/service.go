package announce

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/zawadi/chekechea/core"
)

var (
	// errors
	ErrNotFound         = errors.New("announcement not found")
	ErrAlreadyPublished = errors.New("announcement is already published")
)

type (
	Repository interface {
		CreateAnnouncement(ctx context.Context, a Announcement, exec ...core.DBExecutor) (Announcement, error)
		// QueryAnnouncements builds the viewer's audience rules as
		// OR-filters, excludes soft-deleted rows and, unless told
		// otherwise, unpublished/expired ones. Pinned rows come first,
		// then newest publication. Callers must still re-validate the rows.
		QueryAnnouncements(ctx context.Context, viewer core.Viewer, filter *QueryFilter, now time.Time, exec ...core.DBExecutor) ([]Announcement, error)
		GetAnnouncement(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (Announcement, error)
		UpdateAnnouncement(ctx context.Context, a Announcement, exec ...core.DBExecutor) (Announcement, error)
	}

	// Notifier fans notifications out when an announcement goes live.
	Notifier interface {
		AnnouncementPublished(ctx context.Context, a Announcement)
	}

	ServiceInterface interface {
		Create(ctx context.Context, orgID, authorID string, na NewAnnouncement) (Announcement, error)
		Query(ctx context.Context, viewer core.Viewer, filter *QueryFilter) ([]Announcement, error)
		// GetByID applies visibility; staff may fetch expired rows.
		GetByID(ctx context.Context, viewer core.Viewer, id string) (Announcement, error)
		Update(ctx context.Context, orig Announcement, ua UpdateAnnouncement) (Announcement, error)
		// Publish makes a scheduled announcement live now and fans out.
		Publish(ctx context.Context, orig Announcement) (Announcement, error)
		SetPinned(ctx context.Context, orig Announcement, pinned bool) (Announcement, error)
		SoftDelete(ctx context.Context, orig Announcement) error
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

// Create stores the announcement. Fanout happens immediately when it is
// already live; a future PublishAt defers it to Publish.
func (svc *service) Create(ctx context.Context, orgID, authorID string, na NewAnnouncement) (Announcement, error) {
	now := time.Now().UTC()
	publishAt := na.PublishAt.UTC()
	if na.PublishAt.IsZero() {
		publishAt = now
	}
	a := Announcement{
		OrgID:    orgID,
		AuthorID: authorID,
		Title:    na.Title,
		Body:     na.Body,
		Visibility: core.Visibility{
			Audience: core.Audience(na.Audience),
			RoomIDs:  na.RoomIDs,
		},
		Pinned:    na.Pinned,
		PublishAt: publishAt,
		ExpiresAt: na.ExpiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	a, err := svc.repo.CreateAnnouncement(ctx, a)
	if err != nil {
		return Announcement{}, err
	}
	if svc.notifier != nil && a.Published(now) {
		svc.notifier.AnnouncementPublished(ctx, a)
	}
	return a, nil
}

func (svc *service) Query(ctx context.Context, viewer core.Viewer, filter *QueryFilter) ([]Announcement, error) {
	if filter != nil && filter.IsEmpty() {
		filter = nil
	}
	now := time.Now().UTC()
	anns, err := svc.repo.QueryAnnouncements(ctx, viewer, filter, now)
	if err != nil {
		return nil, err
	}

	includeExpired := filter != nil && filter.IncludeExpired && viewer.IsStaff

	// Safety net: the SQL filters and these rules must agree; drop anything
	// that slips through.
	visible := anns[:0]
	for _, a := range anns {
		if a.Deleted() || !a.Published(now) {
			continue
		}
		if a.Expired(now) && !includeExpired {
			continue
		}
		if a.VisibleTo(viewer, a.OrgID) {
			visible = append(visible, a)
		}
	}
	return visible, nil
}

func (svc *service) GetByID(ctx context.Context, viewer core.Viewer, id string) (Announcement, error) {
	a, err := svc.repo.GetAnnouncement(ctx, viewer.OrgID, id)
	if err != nil {
		return Announcement{}, err
	}
	if a.Deleted() || !a.VisibleTo(viewer, a.OrgID) {
		return Announcement{}, ErrNotFound
	}
	now := time.Now().UTC()
	// guardians never see scheduled or expired rows; staff may
	if !viewer.IsStaff && (!a.Published(now) || a.Expired(now)) {
		return Announcement{}, ErrNotFound
	}
	return a, nil
}

func (svc *service) Update(ctx context.Context, orig Announcement, ua UpdateAnnouncement) (Announcement, error) {
	a := orig
	a.Title = ua.Title
	a.Body = ua.Body
	a.Audience = core.Audience(ua.Audience)
	if ua.RoomIDs != nil {
		a.RoomIDs = ua.RoomIDs
	}
	if ua.ExpiresAt.Valid {
		a.ExpiresAt = ua.ExpiresAt
	}
	a.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAnnouncement(ctx, a)
}

func (svc *service) Publish(ctx context.Context, orig Announcement) (Announcement, error) {
	now := time.Now().UTC()
	if orig.Published(now) {
		return Announcement{}, core.NewValidationError(ErrAlreadyPublished)
	}

	a := orig
	a.PublishAt = now
	a.UpdatedAt = now
	a, err := svc.repo.UpdateAnnouncement(ctx, a)
	if err != nil {
		return Announcement{}, err
	}
	if svc.notifier != nil {
		svc.notifier.AnnouncementPublished(ctx, a)
	}
	return a, nil
}

func (svc *service) SetPinned(ctx context.Context, orig Announcement, pinned bool) (Announcement, error) {
	a := orig
	a.Pinned = pinned
	a.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAnnouncement(ctx, a)
}

func (svc *service) SoftDelete(ctx context.Context, orig Announcement) error {
	a := orig
	now := time.Now().UTC()
	a.UpdatedAt = now
	a.DeletedAt = null.TimeFrom(now)
	_, err := svc.repo.UpdateAnnouncement(ctx, a)
	return err
}
