package story_test

import (
	"context"
	"testing"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/story"
	inmemdb "github.com/zawadi/chekechea/storage/database/inmem"
)

type notifierMock struct {
	published []story.Story
}

func (n *notifierMock) StoryPublished(ctx context.Context, s story.Story) {
	n.published = append(n.published, s)
}

func setup() (story.ServiceInterface, *notifierMock) {
	db := inmemdb.Open()
	notifier := new(notifierMock)
	return story.NewService(nil, inmemdb.NewStoryRepository(db), notifier), notifier
}

func Test_service_Create(t *testing.T) {
	svc, notifier := setup()
	ctx := context.Background()

	s, err := svc.Create(ctx, "org-1", "teacher-1", story.NewStory{
		Title:    "Painting day",
		Body:     "We painted with our hands today.",
		Audience: string(core.AudienceRooms),
		RoomIDs:  []string{"room-1"},
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if s.ID == "" {
		t.Error("ID not set")
	}
	if s.Audience != core.AudienceRooms {
		t.Errorf("Audience = %q; want %q", s.Audience, core.AudienceRooms)
	}
	if len(notifier.published) != 1 || notifier.published[0].ID != s.ID {
		t.Errorf("notifier not called for %q", s.ID)
	}
}

func Test_service_Query_visibility(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()

	mustCreate := func(audience string, roomIDs ...string) story.Story {
		s, err := svc.Create(ctx, "org-1", "principal-1", story.NewStory{
			Title:    "title",
			Body:     "body",
			Audience: audience,
			RoomIDs:  roomIDs,
		})
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		return s
	}
	orgStory := mustCreate(string(core.AudienceOrg))
	staffStory := mustCreate(string(core.AudienceStaff))
	room1Story := mustCreate(string(core.AudienceRooms), "room-1")
	room2Story := mustCreate(string(core.AudienceRooms), "room-2")

	queryIDs := func(viewer core.Viewer) map[string]bool {
		stories, err := svc.Query(ctx, viewer, nil, core.DBPaging{})
		if err != nil {
			t.Fatalf("Query() failed: %v", err)
		}
		ids := make(map[string]bool, len(stories))
		for _, s := range stories {
			ids[s.ID] = true
		}
		return ids
	}

	principal := core.Viewer{OrgID: "org-1", IsPrincipal: true, IsStaff: true}
	if ids := queryIDs(principal); len(ids) != 4 {
		t.Errorf("principal sees %d stories; want 4", len(ids))
	}

	teacher := core.Viewer{OrgID: "org-1", IsStaff: true, IsTeacher: true, RoomIDs: []string{"room-1"}}
	ids := queryIDs(teacher)
	if !ids[orgStory.ID] || !ids[staffStory.ID] || !ids[room1Story.ID] {
		t.Error("teacher missing visible stories")
	}
	if ids[room2Story.ID] {
		t.Error("teacher sees another room's story")
	}

	guardian := core.Viewer{OrgID: "org-1", IsGuardian: true, RoomIDs: []string{"room-1"}}
	ids = queryIDs(guardian)
	if !ids[orgStory.ID] || !ids[room1Story.ID] {
		t.Error("guardian missing visible stories")
	}
	if ids[staffStory.ID] || ids[room2Story.ID] {
		t.Error("guardian sees staff-only or another room's story")
	}

	outsider := core.Viewer{OrgID: "org-2", IsPrincipal: true, IsStaff: true}
	if ids := queryIDs(outsider); len(ids) != 0 {
		t.Errorf("outsider sees %d stories; want 0", len(ids))
	}
}

func Test_service_SoftDelete(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()
	viewer := core.Viewer{OrgID: "org-1", IsPrincipal: true, IsStaff: true}

	s, err := svc.Create(ctx, "org-1", "teacher-1", story.NewStory{
		Title:    "title",
		Body:     "body",
		Audience: string(core.AudienceOrg),
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if err := svc.SoftDelete(ctx, s); err != nil {
		t.Fatalf("SoftDelete() failed: %v", err)
	}

	if _, err := svc.GetByID(ctx, viewer, s.ID); err != story.ErrNotFound {
		t.Errorf("GetByID() err = %v; want %v", err, story.ErrNotFound)
	}
	stories, err := svc.Query(ctx, viewer, nil, core.DBPaging{})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(stories) != 0 {
		t.Errorf("len(stories) = %d; want 0", len(stories))
	}
}

func Test_service_Update(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()

	s, err := svc.Create(ctx, "org-1", "teacher-1", story.NewStory{
		Title:    "title",
		Body:     "body",
		Audience: string(core.AudienceOrg),
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	us := story.UpdateStory{Title: "new title", Audience: string(core.AudienceRooms), RoomIDs: []string{"room-1"}}
	if err := us.Validate(s); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	updated, err := svc.Update(ctx, s, us)
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.Title != "new title" {
		t.Errorf("Title = %q; want %q", updated.Title, "new title")
	}
	if updated.Body != "body" {
		t.Errorf("Body = %q; want unchanged", updated.Body)
	}
	if updated.Audience != core.AudienceRooms {
		t.Errorf("Audience = %q; want %q", updated.Audience, core.AudienceRooms)
	}
}
