package announce_test

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/announce"
	inmemdb "github.com/zawadi/chekechea/storage/database/inmem"
)

type notifierMock struct {
	published []announce.Announcement
}

func (n *notifierMock) AnnouncementPublished(ctx context.Context, a announce.Announcement) {
	n.published = append(n.published, a)
}

func setup() (announce.ServiceInterface, *notifierMock) {
	db := inmemdb.Open()
	notifier := new(notifierMock)
	return announce.NewService(nil, inmemdb.NewAnnouncementRepository(db), notifier), notifier
}

func Test_service_Create(t *testing.T) {
	svc, notifier := setup()
	ctx := context.Background()

	// live immediately: fanout happens on create
	a, err := svc.Create(ctx, "org-1", "principal-1", announce.NewAnnouncement{
		Title:    "Closed on Friday",
		Body:     "We are closed for staff training.",
		Audience: string(core.AudienceOrg),
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if len(notifier.published) != 1 {
		t.Errorf("len(published) = %d; want 1", len(notifier.published))
	}
	if !a.Published(time.Now().UTC()) {
		t.Error("announcement should be live")
	}

	// scheduled: no fanout until Publish
	future := time.Now().UTC().Add(24 * time.Hour)
	scheduled, err := svc.Create(ctx, "org-1", "principal-1", announce.NewAnnouncement{
		Title:     "Summer party",
		Body:      "Save the date.",
		Audience:  string(core.AudienceOrg),
		PublishAt: future,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if len(notifier.published) != 1 {
		t.Errorf("len(published) = %d; want 1 (scheduled must not fan out)", len(notifier.published))
	}
	if scheduled.Published(time.Now().UTC()) {
		t.Error("scheduled announcement should not be live yet")
	}
}

func Test_service_Publish(t *testing.T) {
	svc, notifier := setup()
	ctx := context.Background()

	a, err := svc.Create(ctx, "org-1", "principal-1", announce.NewAnnouncement{
		Title:     "Summer party",
		Body:      "Save the date.",
		Audience:  string(core.AudienceOrg),
		PublishAt: time.Now().UTC().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	a, err = svc.Publish(ctx, a)
	if err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	if !a.Published(time.Now().UTC()) {
		t.Error("announcement should be live after Publish")
	}
	if len(notifier.published) != 1 {
		t.Errorf("len(published) = %d; want 1", len(notifier.published))
	}

	// publishing twice fails
	if _, err = svc.Publish(ctx, a); !core.IsValidationError(err) {
		t.Errorf("Publish() err = %v; want validation error", err)
	}
}

func Test_service_Query(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()
	now := time.Now().UTC()

	mustCreate := func(na announce.NewAnnouncement) announce.Announcement {
		a, err := svc.Create(ctx, "org-1", "principal-1", na)
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		return a
	}
	live := mustCreate(announce.NewAnnouncement{Title: "live", Body: "b", Audience: string(core.AudienceOrg)})
	pinned := mustCreate(announce.NewAnnouncement{Title: "pinned", Body: "b", Audience: string(core.AudienceOrg), Pinned: true})
	expired := mustCreate(announce.NewAnnouncement{
		Title:     "expired",
		Body:      "b",
		Audience:  string(core.AudienceOrg),
		PublishAt: now.Add(-48 * time.Hour),
		ExpiresAt: null.TimeFrom(now.Add(-24 * time.Hour)),
	})
	scheduled := mustCreate(announce.NewAnnouncement{
		Title:     "scheduled",
		Body:      "b",
		Audience:  string(core.AudienceOrg),
		PublishAt: now.Add(24 * time.Hour),
	})
	staffOnly := mustCreate(announce.NewAnnouncement{Title: "staff", Body: "b", Audience: string(core.AudienceStaff)})

	guardian := core.Viewer{OrgID: "org-1", IsGuardian: true}
	anns, err := svc.Query(ctx, guardian, nil)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	ids := make(map[string]bool, len(anns))
	for _, a := range anns {
		ids[a.ID] = true
	}
	if !ids[live.ID] || !ids[pinned.ID] {
		t.Error("guardian missing live announcements")
	}
	if ids[expired.ID] || ids[scheduled.ID] || ids[staffOnly.ID] {
		t.Error("guardian sees expired, scheduled or staff-only announcements")
	}
	// pinned rows come first
	if len(anns) > 0 && anns[0].ID != pinned.ID {
		t.Errorf("first announcement = %q; want pinned %q", anns[0].ID, pinned.ID)
	}

	// staff may browse expired rows
	staff := core.Viewer{OrgID: "org-1", IsStaff: true}
	anns, err = svc.Query(ctx, staff, &announce.QueryFilter{IncludeExpired: true})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	var sawExpired bool
	for _, a := range anns {
		if a.ID == expired.ID {
			sawExpired = true
		}
		if a.ID == scheduled.ID {
			t.Error("scheduled announcement leaked into the feed")
		}
	}
	if !sawExpired {
		t.Error("staff with IncludeExpired cannot see expired announcements")
	}
}

func Test_service_SetPinned(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()

	a, err := svc.Create(ctx, "org-1", "principal-1", announce.NewAnnouncement{
		Title: "live", Body: "b", Audience: string(core.AudienceOrg),
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	a, err = svc.SetPinned(ctx, a, true)
	if err != nil {
		t.Fatalf("SetPinned() failed: %v", err)
	}
	if !a.Pinned {
		t.Error("Pinned = false; want true")
	}

	a, err = svc.SetPinned(ctx, a, false)
	if err != nil {
		t.Fatalf("SetPinned() failed: %v", err)
	}
	if a.Pinned {
		t.Error("Pinned = true; want false")
	}
}
