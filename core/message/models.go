package message

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/zawadi/chekechea/core"
)

// Thread is a conversation between users of one org.
type Thread struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	Subject   string    `json:"subject"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"` // UTC

	// populated on list queries
	LastMessageAt time.Time `json:"last_message_at,omitempty"`
	UnreadCount   int       `json:"unread_count"`
}

type Participant struct {
	ThreadID   string    `json:"thread_id"`
	UserID     string    `json:"user_id"`
	LastReadAt null.Time `json:"last_read_at"`
}

type Message struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	ThreadID  string    `json:"thread_id"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"` // UTC
	DeletedAt null.Time `json:"-"`
}

func (m *Message) Deleted() bool { return m.DeletedAt.Valid }

// NewThread starts a conversation with an initial message.
type NewThread struct {
	Subject        string   `json:"subject" validate:"required"`
	ParticipantIDs []string `json:"participant_ids" validate:"required,min=1"`
	Body           string   `json:"body" validate:"required"`
}

func (nt *NewThread) Validate() error {
	nt.Subject = core.CleanString(nt.Subject)
	nt.Body = core.CleanString(nt.Body)
	return core.Validate.Struct(nt)
}

type NewMessage struct {
	Body string `json:"body" validate:"required"`
}

func (nm *NewMessage) Validate() error {
	nm.Body = core.CleanString(nm.Body)
	return core.Validate.Struct(nm)
}
