package message

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/user"
)

var (
	// errors
	ErrThreadNotFound  = errors.New("thread not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotParticipant  = errors.New("user is not part of this thread")
	ErrGuardianToStaff = errors.New("guardians may only message staff")
)

type (
	Repository interface {
		CreateThread(ctx context.Context, t Thread, participants []Participant, exec ...core.DBExecutor) (Thread, error)
		GetThread(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (Thread, error)
		// QueryThreads returns the user's threads, most recent message
		// first, with unread counts.
		QueryThreads(ctx context.Context, orgID, userID string, exec ...core.DBExecutor) ([]Thread, error)
		QueryParticipants(ctx context.Context, threadID string, exec ...core.DBExecutor) ([]Participant, error)
		SetLastRead(ctx context.Context, threadID, userID string, at time.Time, exec ...core.DBExecutor) error

		CreateMessage(ctx context.Context, m Message, exec ...core.DBExecutor) (Message, error)
		// QueryMessages excludes soft-deleted rows; oldest first.
		QueryMessages(ctx context.Context, orgID, threadID string, paging core.DBPaging, exec ...core.DBExecutor) ([]Message, error)
		GetMessage(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (Message, error)
		UpdateMessage(ctx context.Context, m Message, exec ...core.DBExecutor) (Message, error)
	}

	// Notifier emails the other participants when a message is posted.
	Notifier interface {
		MessagePosted(ctx context.Context, t Thread, m Message, recipientIDs []string)
	}

	ServiceInterface interface {
		StartThread(ctx context.Context, sender user.User, nt NewThread, participants []user.User) (Thread, error)
		QueryThreads(ctx context.Context, orgID, userID string) ([]Thread, error)
		GetThread(ctx context.Context, orgID, userID, id string) (Thread, error)
		Post(ctx context.Context, sender user.User, threadID string, nm NewMessage) (Message, error)
		QueryMessages(ctx context.Context, orgID, userID, threadID string, paging core.DBPaging) ([]Message, error)
		MarkRead(ctx context.Context, orgID, userID, threadID string) error
		SoftDeleteMessage(ctx context.Context, orgID, userID, id string) error
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

// StartThread creates the thread, its participant set (sender included) and
// the initial message. Guardians may only start threads with staff.
func (svc *service) StartThread(ctx context.Context, sender user.User, nt NewThread, participants []user.User) (Thread, error) {
	now := time.Now().UTC()

	parts := make([]Participant, 0, len(participants)+1)
	parts = append(parts, Participant{UserID: sender.ID, LastReadAt: null.TimeFrom(now)})
	for _, p := range participants {
		if p.ID == sender.ID {
			continue
		}
		if p.OrgID != sender.OrgID {
			return Thread{}, core.NewValidationError(ErrNotParticipant, core.FieldError{Field: "participant_ids", Error: "all participants must belong to your organization"})
		}
		if sender.IsGuardian() && !p.IsStaff() {
			return Thread{}, core.NewValidationError(ErrGuardianToStaff, core.FieldError{Field: "participant_ids", Error: ErrGuardianToStaff.Error()})
		}
		parts = append(parts, Participant{UserID: p.ID})
	}

	t := Thread{
		OrgID:     sender.OrgID,
		Subject:   nt.Subject,
		CreatedBy: sender.ID,
		CreatedAt: now,
	}
	t, err := svc.repo.CreateThread(ctx, t, parts)
	if err != nil {
		return Thread{}, err
	}

	if _, err := svc.post(ctx, sender, t, NewMessage{Body: nt.Body}); err != nil {
		return Thread{}, err
	}
	return t, nil
}

func (svc *service) QueryThreads(ctx context.Context, orgID, userID string) ([]Thread, error) {
	return svc.repo.QueryThreads(ctx, orgID, userID)
}

func (svc *service) GetThread(ctx context.Context, orgID, userID, id string) (Thread, error) {
	t, err := svc.repo.GetThread(ctx, orgID, id)
	if err != nil {
		return Thread{}, err
	}
	if _, err := svc.participant(ctx, t.ID, userID); err != nil {
		return Thread{}, ErrThreadNotFound
	}
	return t, nil
}

func (svc *service) participant(ctx context.Context, threadID, userID string) (Participant, error) {
	parts, err := svc.repo.QueryParticipants(ctx, threadID)
	if err != nil {
		return Participant{}, err
	}
	for _, p := range parts {
		if p.UserID == userID {
			return p, nil
		}
	}
	return Participant{}, ErrNotParticipant
}

func (svc *service) Post(ctx context.Context, sender user.User, threadID string, nm NewMessage) (Message, error) {
	t, err := svc.repo.GetThread(ctx, sender.OrgID, threadID)
	if err != nil {
		return Message{}, err
	}
	if _, err := svc.participant(ctx, t.ID, sender.ID); err != nil {
		return Message{}, ErrThreadNotFound
	}
	return svc.post(ctx, sender, t, nm)
}

func (svc *service) post(ctx context.Context, sender user.User, t Thread, nm NewMessage) (Message, error) {
	m := Message{
		OrgID:    t.OrgID,
		ThreadID: t.ID,
		SenderID: sender.ID,
		Body:     nm.Body,
		SentAt:   time.Now().UTC(),
	}
	m, err := svc.repo.CreateMessage(ctx, m)
	if err != nil {
		return Message{}, err
	}

	if svc.notifier != nil {
		parts, err := svc.repo.QueryParticipants(ctx, t.ID)
		if err == nil {
			recipientIDs := make([]string, 0, len(parts))
			for _, p := range parts {
				if p.UserID != sender.ID {
					recipientIDs = append(recipientIDs, p.UserID)
				}
			}
			svc.notifier.MessagePosted(ctx, t, m, recipientIDs)
		}
	}
	return m, nil
}

func (svc *service) QueryMessages(ctx context.Context, orgID, userID, threadID string, paging core.DBPaging) ([]Message, error) {
	t, err := svc.repo.GetThread(ctx, orgID, threadID)
	if err != nil {
		return nil, err
	}
	if _, err := svc.participant(ctx, t.ID, userID); err != nil {
		return nil, ErrThreadNotFound
	}

	msgs, err := svc.repo.QueryMessages(ctx, orgID, threadID, paging)
	if err != nil {
		return nil, err
	}
	visible := msgs[:0]
	for _, m := range msgs {
		if !m.Deleted() {
			visible = append(visible, m)
		}
	}
	return visible, nil
}

func (svc *service) MarkRead(ctx context.Context, orgID, userID, threadID string) error {
	t, err := svc.repo.GetThread(ctx, orgID, threadID)
	if err != nil {
		return err
	}
	if _, err := svc.participant(ctx, t.ID, userID); err != nil {
		return ErrThreadNotFound
	}
	return svc.repo.SetLastRead(ctx, t.ID, userID, time.Now().UTC())
}

// SoftDeleteMessage lets a sender retract their own message.
func (svc *service) SoftDeleteMessage(ctx context.Context, orgID, userID, id string) error {
	m, err := svc.repo.GetMessage(ctx, orgID, id)
	if err != nil {
		return err
	}
	if m.SenderID != userID {
		return ErrMessageNotFound
	}
	m.DeletedAt = null.TimeFrom(time.Now().UTC())
	_, err = svc.repo.UpdateMessage(ctx, m)
	return err
}
