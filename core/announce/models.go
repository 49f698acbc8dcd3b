package announce

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/zawadi/chekechea/core"
)

// Announcement is org-level communication: closures, events, reminders.
type Announcement struct {
	ID       string `json:"id"`
	OrgID    string `json:"org_id"`
	AuthorID string `json:"author_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	core.Visibility
	Pinned    bool      `json:"pinned"`
	PublishAt time.Time `json:"publish_at"` // UTC
	ExpiresAt null.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
	DeletedAt null.Time `json:"-"`
}

func (a *Announcement) Deleted() bool { return a.DeletedAt.Valid }

func (a *Announcement) Published(now time.Time) bool {
	return !a.PublishAt.After(now)
}

func (a *Announcement) Expired(now time.Time) bool {
	return a.ExpiresAt.Valid && a.ExpiresAt.Time.Before(now)
}

// Live reports whether the announcement shows up in feeds.
func (a *Announcement) Live(now time.Time) bool {
	return !a.Deleted() && a.Published(now) && !a.Expired(now)
}

// NewAnnouncement contains information needed to create a new Announcement.
type NewAnnouncement struct {
	Title     string    `json:"title" validate:"required"`
	Body      string    `json:"body" validate:"required"`
	Audience  string    `json:"audience" validate:"required,audience"`
	RoomIDs   []string  `json:"room_ids"`
	Pinned    bool      `json:"pinned"`
	PublishAt time.Time `json:"publish_at"`
	ExpiresAt null.Time `json:"expires_at"`
}

func (na *NewAnnouncement) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Body = core.CleanString(na.Body)

	if err := core.Validate.Struct(na); err != nil {
		return err
	}
	if core.Audience(na.Audience) == core.AudienceRooms && len(na.RoomIDs) == 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "room_ids", Error: "at least one room is required for a rooms audience"})
	}
	if na.ExpiresAt.Valid && !na.PublishAt.IsZero() && na.ExpiresAt.Time.Before(na.PublishAt) {
		return core.NewValidationError(nil, core.FieldError{Field: "expires_at", Error: "expiry cannot precede publication"})
	}
	return nil
}

// UpdateAnnouncement defines what information may be provided to modify an
// existing Announcement.
type UpdateAnnouncement struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Audience  string    `json:"audience" validate:"omitempty,audience"`
	RoomIDs   []string  `json:"room_ids"`
	ExpiresAt null.Time `json:"expires_at"`
}

func (ua *UpdateAnnouncement) Validate(orig Announcement) error {
	title := core.CleanString(ua.Title)
	if title != "" {
		ua.Title = title
	} else {
		ua.Title = orig.Title
	}

	body := core.CleanString(ua.Body)
	if body != "" {
		ua.Body = body
	} else {
		ua.Body = orig.Body
	}

	if ua.Audience == "" {
		ua.Audience = string(orig.Audience)
	}

	if err := core.Validate.Struct(ua); err != nil {
		return err
	}

	roomIDs := ua.RoomIDs
	if roomIDs == nil {
		roomIDs = orig.RoomIDs
	}
	if core.Audience(ua.Audience) == core.AudienceRooms && len(roomIDs) == 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "room_ids", Error: "at least one room is required for a rooms audience"})
	}
	return nil
}

type QueryFilter struct {
	Search string `query:"search"`
	RoomID string `query:"room_id"`
	// IncludeExpired lets staff browse past announcements.
	IncludeExpired bool `query:"include_expired"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.RoomID == "" && !qf.IncludeExpired
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
