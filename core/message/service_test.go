package message_test

import (
	"context"
	"testing"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/message"
	"github.com/zawadi/chekechea/core/user"
	inmemdb "github.com/zawadi/chekechea/storage/database/inmem"
)

type notifierMock struct {
	recipientIDs [][]string
}

func (n *notifierMock) MessagePosted(ctx context.Context, t message.Thread, m message.Message, recipientIDs []string) {
	n.recipientIDs = append(n.recipientIDs, recipientIDs)
}

func setup() (message.ServiceInterface, *notifierMock) {
	db := inmemdb.Open()
	notifier := new(notifierMock)
	return message.NewService(nil, inmemdb.NewMessageRepository(db), notifier), notifier
}

func newUser(id, orgID string, roles ...string) user.User {
	isActive := true
	return user.User{ID: id, OrgID: orgID, IsActive: &isActive, Roles: roles}
}

func Test_service_StartThread(t *testing.T) {
	svc, notifier := setup()
	ctx := context.Background()

	teacher := newUser("teacher-1", "org-1", user.RoleStaffTeacher)
	guardian := newUser("guardian-1", "org-1", user.RoleGuardian)

	nt := message.NewThread{
		Subject:        "Nap schedule",
		ParticipantIDs: []string{guardian.ID},
		Body:           "How did she sleep today?",
	}
	th, err := svc.StartThread(ctx, teacher, nt, []user.User{guardian})
	if err != nil {
		t.Fatalf("StartThread() failed: %v", err)
	}
	if th.CreatedBy != teacher.ID {
		t.Errorf("CreatedBy = %q; want %q", th.CreatedBy, teacher.ID)
	}

	// the initial message is posted and fanned out to the other participants
	msgs, err := svc.QueryMessages(ctx, "org-1", guardian.ID, th.ID, core.DBPaging{})
	if err != nil {
		t.Fatalf("QueryMessages() failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Body != nt.Body {
		t.Errorf("msgs = %+v; want the initial message", msgs)
	}
	if len(notifier.recipientIDs) != 1 {
		t.Fatalf("len(recipientIDs) = %d; want 1", len(notifier.recipientIDs))
	}
	if ids := notifier.recipientIDs[0]; len(ids) != 1 || ids[0] != guardian.ID {
		t.Errorf("recipients = %v; want [%s]", ids, guardian.ID)
	}
}

func Test_service_StartThread_guardianToStaffOnly(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()

	guardian := newUser("guardian-1", "org-1", user.RoleGuardian)
	otherGuardian := newUser("guardian-2", "org-1", user.RoleGuardian)
	teacher := newUser("teacher-1", "org-1", user.RoleStaffTeacher)

	// guardian to guardian is not allowed
	nt := message.NewThread{Subject: "s", ParticipantIDs: []string{otherGuardian.ID}, Body: "b"}
	if _, err := svc.StartThread(ctx, guardian, nt, []user.User{otherGuardian}); !core.IsValidationError(err) {
		t.Errorf("StartThread() err = %v; want validation error", err)
	}

	// guardian to staff is fine
	nt = message.NewThread{Subject: "s", ParticipantIDs: []string{teacher.ID}, Body: "b"}
	if _, err := svc.StartThread(ctx, guardian, nt, []user.User{teacher}); err != nil {
		t.Errorf("StartThread() failed: %v", err)
	}

	// cross-org participants are rejected
	outsider := newUser("teacher-9", "org-2", user.RoleStaffTeacher)
	nt = message.NewThread{Subject: "s", ParticipantIDs: []string{outsider.ID}, Body: "b"}
	if _, err := svc.StartThread(ctx, guardian, nt, []user.User{outsider}); !core.IsValidationError(err) {
		t.Errorf("StartThread() err = %v; want validation error", err)
	}
}

func Test_service_unreadCounts(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()

	teacher := newUser("teacher-1", "org-1", user.RoleStaffTeacher)
	guardian := newUser("guardian-1", "org-1", user.RoleGuardian)

	nt := message.NewThread{Subject: "s", ParticipantIDs: []string{guardian.ID}, Body: "first"}
	th, err := svc.StartThread(ctx, teacher, nt, []user.User{guardian})
	if err != nil {
		t.Fatalf("StartThread() failed: %v", err)
	}
	if _, err = svc.Post(ctx, teacher, th.ID, message.NewMessage{Body: "second"}); err != nil {
		t.Fatalf("Post() failed: %v", err)
	}

	threads, err := svc.QueryThreads(ctx, "org-1", guardian.ID)
	if err != nil {
		t.Fatalf("QueryThreads() failed: %v", err)
	}
	if len(threads) != 1 {
		t.Fatalf("len(threads) = %d; want 1", len(threads))
	}
	if threads[0].UnreadCount != 2 {
		t.Errorf("UnreadCount = %d; want 2", threads[0].UnreadCount)
	}

	if err = svc.MarkRead(ctx, "org-1", guardian.ID, th.ID); err != nil {
		t.Fatalf("MarkRead() failed: %v", err)
	}
	threads, err = svc.QueryThreads(ctx, "org-1", guardian.ID)
	if err != nil {
		t.Fatalf("QueryThreads() failed: %v", err)
	}
	if threads[0].UnreadCount != 0 {
		t.Errorf("UnreadCount = %d; want 0 after MarkRead", threads[0].UnreadCount)
	}

	// the sender never counts their own messages as unread
	threads, err = svc.QueryThreads(ctx, "org-1", teacher.ID)
	if err != nil {
		t.Fatalf("QueryThreads() failed: %v", err)
	}
	if threads[0].UnreadCount != 0 {
		t.Errorf("sender UnreadCount = %d; want 0", threads[0].UnreadCount)
	}
}

func Test_service_nonParticipant(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()

	teacher := newUser("teacher-1", "org-1", user.RoleStaffTeacher)
	guardian := newUser("guardian-1", "org-1", user.RoleGuardian)

	nt := message.NewThread{Subject: "s", ParticipantIDs: []string{guardian.ID}, Body: "b"}
	th, err := svc.StartThread(ctx, teacher, nt, []user.User{guardian})
	if err != nil {
		t.Fatalf("StartThread() failed: %v", err)
	}

	if _, err := svc.GetThread(ctx, "org-1", "stranger-1", th.ID); err != message.ErrThreadNotFound {
		t.Errorf("GetThread() err = %v; want %v", err, message.ErrThreadNotFound)
	}
	stranger := newUser("stranger-1", "org-1", user.RoleStaff)
	if _, err := svc.Post(ctx, stranger, th.ID, message.NewMessage{Body: "hi"}); err != message.ErrThreadNotFound {
		t.Errorf("Post() err = %v; want %v", err, message.ErrThreadNotFound)
	}
	if _, err := svc.QueryMessages(ctx, "org-1", "stranger-1", th.ID, core.DBPaging{}); err != message.ErrThreadNotFound {
		t.Errorf("QueryMessages() err = %v; want %v", err, message.ErrThreadNotFound)
	}
}

func Test_service_SoftDeleteMessage(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()

	teacher := newUser("teacher-1", "org-1", user.RoleStaffTeacher)
	guardian := newUser("guardian-1", "org-1", user.RoleGuardian)

	nt := message.NewThread{Subject: "s", ParticipantIDs: []string{guardian.ID}, Body: "b"}
	th, err := svc.StartThread(ctx, teacher, nt, []user.User{guardian})
	if err != nil {
		t.Fatalf("StartThread() failed: %v", err)
	}
	m, err := svc.Post(ctx, teacher, th.ID, message.NewMessage{Body: "oops"})
	if err != nil {
		t.Fatalf("Post() failed: %v", err)
	}

	// only the sender may retract a message
	if err := svc.SoftDeleteMessage(ctx, "org-1", guardian.ID, m.ID); err != message.ErrMessageNotFound {
		t.Errorf("SoftDeleteMessage() err = %v; want %v", err, message.ErrMessageNotFound)
	}
	if err := svc.SoftDeleteMessage(ctx, "org-1", teacher.ID, m.ID); err != nil {
		t.Fatalf("SoftDeleteMessage() failed: %v", err)
	}

	msgs, err := svc.QueryMessages(ctx, "org-1", teacher.ID, th.ID, core.DBPaging{})
	if err != nil {
		t.Fatalf("QueryMessages() failed: %v", err)
	}
	for _, msg := range msgs {
		if msg.ID == m.ID {
			t.Error("deleted message still listed")
		}
	}
}
