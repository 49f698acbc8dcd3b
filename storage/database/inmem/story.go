package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/story"
)

type storyRepository struct {
	db *storyTable
}

var _ story.Repository = (*storyRepository)(nil) // interface compliance check

func NewStoryRepository(db *DB) *storyRepository {
	return &storyRepository{db: db.story}
}

func (repo *storyRepository) CreateStory(ctx context.Context, s story.Story, exec ...core.DBExecutor) (story.Story, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s.ID = uuid.New().String()
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *storyRepository) QueryStories(ctx context.Context, viewer core.Viewer, filter *story.QueryFilter, ordering []core.DBOrdering, paging core.DBPaging, exec ...core.DBExecutor) ([]story.Story, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var stories []story.Story
	for _, s := range repo.db.table {
		if s.Deleted() || !s.VisibleTo(viewer, s.OrgID) || s.OrgID != viewer.OrgID {
			continue
		}
		if filter != nil && !matchStoryFilter(*s, filter) {
			continue
		}
		stories = append(stories, *s)
	}
	// newest first
	sort.Slice(stories, func(i, j int) bool { return stories[i].CreatedAt.After(stories[j].CreatedAt) })

	if paging.Offset > 0 {
		if paging.Offset >= len(stories) {
			return nil, nil
		}
		stories = stories[paging.Offset:]
	}
	if paging.Limit > 0 && len(stories) > paging.Limit {
		stories = stories[:paging.Limit]
	}
	return stories, nil
}

func matchStoryFilter(s story.Story, filter *story.QueryFilter) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(s.Title), search) &&
			!strings.Contains(strings.ToLower(s.Body), search) {
			return false
		}
	}
	if filter.RoomID != "" {
		var match bool
		for _, id := range s.RoomIDs {
			if id == filter.RoomID {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	if !filter.From.IsZero() && s.CreatedAt.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && s.CreatedAt.After(filter.To) {
		return false
	}
	return true
}

func (repo *storyRepository) GetStory(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (story.Story, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.table[id]; ok && s.OrgID == orgID && !s.Deleted() {
		return *s, nil
	}
	return story.Story{}, story.ErrNotFound
}

func (repo *storyRepository) UpdateStory(ctx context.Context, s story.Story, exec ...core.DBExecutor) (story.Story, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origStory, ok := repo.db.table[s.ID]
	if !ok {
		return story.Story{}, story.ErrNotFound
	}
	origStory.Title = s.Title
	origStory.Body = s.Body
	origStory.PhotoURLs = s.PhotoURLs
	origStory.Visibility = s.Visibility
	origStory.UpdatedAt = s.UpdatedAt
	origStory.DeletedAt = s.DeletedAt
	return *origStory, nil
}
