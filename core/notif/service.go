package notif

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/announce"
	"github.com/zawadi/chekechea/core/child"
	"github.com/zawadi/chekechea/core/message"
	"github.com/zawadi/chekechea/core/story"
	"github.com/zawadi/chekechea/core/user"
)

// Service resolves an audience to recipients and emails them. It backs the
// Notifier hooks of the story, announce and message services. Failures are
// logged, never surfaced to the API caller.
type Service struct {
	usrSvc  user.ServiceInterface
	chdSvc  child.ServiceInterface
	mailSvc core.EmailService
	logger  core.Logger
}

var (
	_ story.Notifier    = (*Service)(nil)
	_ announce.Notifier = (*Service)(nil)
	_ message.Notifier  = (*Service)(nil)
)

func NewService(usrSvc user.ServiceInterface, chdSvc child.ServiceInterface, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		usrSvc:  usrSvc,
		chdSvc:  chdSvc,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

func (svc *Service) StoryPublished(ctx context.Context, s story.Story) {
	recipients, err := svc.ResolveRecipients(ctx, s.OrgID, s.Visibility, s.AuthorID)
	if err != nil {
		svc.logger.Error("resolving story recipients", errors.Wrap(err, "resolving story recipients"))
		return
	}
	svc.send(recipients, "New story: "+s.Title, "story-published", struct {
		Title string
		Body  string
	}{s.Title, s.Body})
}

func (svc *Service) AnnouncementPublished(ctx context.Context, a announce.Announcement) {
	recipients, err := svc.ResolveRecipients(ctx, a.OrgID, a.Visibility, a.AuthorID)
	if err != nil {
		svc.logger.Error("resolving announcement recipients", errors.Wrap(err, "resolving announcement recipients"))
		return
	}
	svc.send(recipients, "Announcement: "+a.Title, "announcement-published", struct {
		Title string
		Body  string
	}{a.Title, a.Body})
}

func (svc *Service) MessagePosted(ctx context.Context, t message.Thread, m message.Message, recipientIDs []string) {
	recipients := make([]user.User, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		usr, err := svc.usrSvc.GetByID(ctx, id)
		if err != nil {
			svc.logger.Error("resolving message recipient", errors.Wrap(err, "resolving message recipient"))
			continue
		}
		if usr.Active() {
			recipients = append(recipients, usr)
		}
	}
	svc.send(recipients, "New message in: "+t.Subject, "message-posted", struct {
		Subject  string
		ThreadID string
	}{t.Subject, t.ID})
}

// ResolveRecipients expands an audience into active users of the org,
// excluding the author:
//   - org: everyone
//   - staff: staff only
//   - rooms: teachers leading the rooms + guardians of children in them
func (svc *Service) ResolveRecipients(ctx context.Context, orgID string, vis core.Visibility, authorID string) ([]user.User, error) {
	active := true
	users, err := svc.usrSvc.Query(ctx, orgID, &user.QueryFilter{IsActive: &active}, nil)
	if err != nil {
		return nil, err
	}

	var guardianIDs map[string]struct{}
	if vis.Audience == core.AudienceRooms {
		guardianIDs = make(map[string]struct{})
		for _, roomID := range vis.RoomIDs {
			children, err := svc.chdSvc.Query(ctx, orgID, &child.QueryFilter{RoomID: roomID})
			if err != nil {
				return nil, err
			}
			for _, c := range children {
				ids, err := svc.chdSvc.GuardianIDs(ctx, c.ID)
				if err != nil {
					return nil, err
				}
				for _, id := range ids {
					guardianIDs[id] = struct{}{}
				}
			}
		}
	}

	recipients := make([]user.User, 0, len(users))
	for _, usr := range users {
		if usr.ID == authorID {
			continue
		}
		viewer := usr.AudienceViewer()
		if usr.IsGuardian() {
			if guardianIDs != nil {
				if _, ok := guardianIDs[usr.ID]; ok {
					recipients = append(recipients, usr)
					continue
				}
			}
			viewer.RoomIDs = nil // audience decided via links above
		}
		if vis.VisibleTo(viewer, orgID) {
			recipients = append(recipients, usr)
		}
	}
	return recipients, nil
}

func (svc *Service) send(recipients []user.User, subject, template string, data interface{}) {
	if len(recipients) == 0 {
		return
	}
	msgs := make([]*core.EmailMessage, 0, len(recipients))
	for _, r := range recipients {
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: r.Name, Address: r.Email}},
			Subject:      subject,
			TemplateName: template,
			TemplateData: data,
		})
	}
	svc.mailSvc.SendMessages(msgs...)
}
