package notif_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/child"
	"github.com/zawadi/chekechea/core/notif"
	"github.com/zawadi/chekechea/core/story"
	"github.com/zawadi/chekechea/core/user"
	emailsvc "github.com/zawadi/chekechea/services/email"
	logsvc "github.com/zawadi/chekechea/services/logger"
	inmemdb "github.com/zawadi/chekechea/storage/database/inmem"
	testutil "github.com/zawadi/chekechea/tests"
)

func setup(t *testing.T) (*notif.Service, user.Repository, child.Repository) {
	emailsvc.SentMessages = emailsvc.SentMessages[:0]

	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	chdRepo := inmemdb.NewChildRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), core.Conf)

	usrSvc := user.NewService(nil, usrRepo, mailSvc, logger)
	chdSvc := child.NewService(nil, chdRepo)
	svc := notif.NewService(usrSvc, chdSvc, mailSvc, logger)
	return svc, usrRepo, chdRepo
}

func recipientEmails(msgs []core.EmailMessage) map[string]bool {
	emails := make(map[string]bool)
	for _, m := range msgs {
		for _, to := range m.To {
			emails[to.Address] = true
		}
	}
	return emails
}

func Test_Service_ResolveRecipients(t *testing.T) {
	svc, usrRepo, chdRepo := setup(t)
	ctx := context.Background()

	principal := testutil.CreateUser(t, usrRepo, "org-1", "Principal", "principal@test.cd", []string{user.RoleStaffPrincipal}, true)
	staff := testutil.CreateUser(t, usrRepo, "org-1", "Staff", "staff@test.cd", []string{user.RoleStaff}, true)
	teacher1 := testutil.CreateUser(t, usrRepo, "org-1", "Teacher One", "teacher1@test.cd", []string{user.RoleStaffTeacher}, true, "room-1")
	teacher2 := testutil.CreateUser(t, usrRepo, "org-1", "Teacher Two", "teacher2@test.cd", []string{user.RoleStaffTeacher}, true, "room-2")
	guardian1 := testutil.CreateUser(t, usrRepo, "org-1", "Guardian One", "guardian1@test.cd", []string{user.RoleGuardian}, true)
	guardian2 := testutil.CreateUser(t, usrRepo, "org-1", "Guardian Two", "guardian2@test.cd", []string{user.RoleGuardian}, true)
	inactive := testutil.CreateUser(t, usrRepo, "org-1", "Gone", "gone@test.cd", []string{user.RoleStaff}, false)

	room1 := testutil.CreateRoom(t, chdRepo, "org-1", "Sunflowers")
	kid := testutil.CreateChild(t, chdRepo, "org-1", room1.ID, "Amani")
	testutil.LinkGuardian(t, chdRepo, kid.ID, guardian1.ID, "mother")

	ids := func(users []user.User) map[string]bool {
		set := make(map[string]bool, len(users))
		for _, u := range users {
			set[u.ID] = true
		}
		return set
	}

	// org audience: everyone active, minus the author
	got, err := svc.ResolveRecipients(ctx, "org-1", core.Visibility{Audience: core.AudienceOrg}, principal.ID)
	if err != nil {
		t.Fatalf("ResolveRecipients() failed: %v", err)
	}
	set := ids(got)
	for _, u := range []user.User{staff, teacher1, teacher2, guardian1, guardian2} {
		if !set[u.ID] {
			t.Errorf("org audience missing %s", u.Email)
		}
	}
	if set[principal.ID] {
		t.Error("author included")
	}
	if set[inactive.ID] {
		t.Error("inactive user included")
	}

	// staff audience: no guardians
	got, err = svc.ResolveRecipients(ctx, "org-1", core.Visibility{Audience: core.AudienceStaff}, principal.ID)
	if err != nil {
		t.Fatalf("ResolveRecipients() failed: %v", err)
	}
	set = ids(got)
	if set[guardian1.ID] || set[guardian2.ID] {
		t.Error("staff audience includes guardians")
	}
	if !set[staff.ID] || !set[teacher1.ID] {
		t.Error("staff audience missing staff")
	}

	// rooms audience: room staff + linked guardians only
	got, err = svc.ResolveRecipients(ctx, "org-1", core.Visibility{Audience: core.AudienceRooms, RoomIDs: []string{room1.ID}}, teacher1.ID)
	if err != nil {
		t.Fatalf("ResolveRecipients() failed: %v", err)
	}
	set = ids(got)
	if !set[guardian1.ID] {
		t.Error("rooms audience missing the linked guardian")
	}
	if set[guardian2.ID] {
		t.Error("rooms audience includes an unlinked guardian")
	}
	if set[teacher2.ID] {
		t.Error("rooms audience includes a teacher of another room")
	}
	if !set[principal.ID] || !set[staff.ID] {
		t.Error("rooms audience missing principal or base staff")
	}
}

func Test_Service_StoryPublished(t *testing.T) {
	svc, usrRepo, _ := setup(t)
	ctx := context.Background()

	author := testutil.CreateUser(t, usrRepo, "org-1", "Author", "author@test.cd", []string{user.RoleStaffPrincipal}, true)
	guardian := testutil.CreateUser(t, usrRepo, "org-1", "Guardian", "guardian@test.cd", []string{user.RoleGuardian}, true)

	svc.StoryPublished(ctx, story.Story{
		OrgID:      "org-1",
		AuthorID:   author.ID,
		Title:      "Painting day",
		Body:       "We painted today.",
		Visibility: core.Visibility{Audience: core.AudienceOrg},
	})

	emails := recipientEmails(emailsvc.SentMessages)
	if !emails[guardian.Email] {
		t.Errorf("no email sent to %s", guardian.Email)
	}
	if emails[author.Email] {
		t.Error("author emailed about their own story")
	}
}
