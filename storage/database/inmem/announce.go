package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/announce"
)

type announcementRepository struct {
	db *announcementTable
}

var _ announce.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *DB) *announcementRepository {
	return &announcementRepository{db: db.announcement}
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, a announce.Announcement, exec ...core.DBExecutor) (announce.Announcement, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a.ID = uuid.New().String()
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *announcementRepository) QueryAnnouncements(ctx context.Context, viewer core.Viewer, filter *announce.QueryFilter, now time.Time, exec ...core.DBExecutor) ([]announce.Announcement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	includeExpired := filter != nil && filter.IncludeExpired && viewer.IsStaff

	var anns []announce.Announcement
	for _, a := range repo.db.table {
		if a.Deleted() || !a.VisibleTo(viewer, a.OrgID) || a.OrgID != viewer.OrgID {
			continue
		}
		if !includeExpired && !a.Live(now) {
			continue
		}
		if filter != nil && !matchAnnouncementFilter(*a, filter) {
			continue
		}
		anns = append(anns, *a)
	}
	// pinned first, then newest publication
	sort.Slice(anns, func(i, j int) bool {
		if anns[i].Pinned != anns[j].Pinned {
			return anns[i].Pinned
		}
		return anns[i].PublishAt.After(anns[j].PublishAt)
	})
	return anns, nil
}

func matchAnnouncementFilter(a announce.Announcement, filter *announce.QueryFilter) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(a.Title), search) &&
			!strings.Contains(strings.ToLower(a.Body), search) {
			return false
		}
	}
	if filter.RoomID != "" {
		var match bool
		for _, id := range a.RoomIDs {
			if id == filter.RoomID {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return true
}

func (repo *announcementRepository) GetAnnouncement(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (announce.Announcement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.table[id]; ok && a.OrgID == orgID && !a.Deleted() {
		return *a, nil
	}
	return announce.Announcement{}, announce.ErrNotFound
}

func (repo *announcementRepository) UpdateAnnouncement(ctx context.Context, a announce.Announcement, exec ...core.DBExecutor) (announce.Announcement, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origAnn, ok := repo.db.table[a.ID]
	if !ok {
		return announce.Announcement{}, announce.ErrNotFound
	}
	origAnn.Title = a.Title
	origAnn.Body = a.Body
	origAnn.Visibility = a.Visibility
	origAnn.Pinned = a.Pinned
	origAnn.PublishAt = a.PublishAt
	origAnn.ExpiresAt = a.ExpiresAt
	origAnn.UpdatedAt = a.UpdatedAt
	origAnn.DeletedAt = a.DeletedAt
	return *origAnn, nil
}
