package story

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/zawadi/chekechea/core"
)

// Story is a post from staff to an audience: photos and text from the day.
type Story struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	PhotoURLs []string  `json:"photo_urls,omitempty"`
	core.Visibility
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
	DeletedAt null.Time `json:"-"`
}

func (s *Story) Deleted() bool { return s.DeletedAt.Valid }

// NewStory contains information needed to create a new Story.
type NewStory struct {
	Title     string   `json:"title" validate:"required"`
	Body      string   `json:"body" validate:"required"`
	PhotoURLs []string `json:"photo_urls"`
	Audience  string   `json:"audience" validate:"required,audience"`
	RoomIDs   []string `json:"room_ids"`
}

func (ns *NewStory) Validate() error {
	ns.Title = core.CleanString(ns.Title)
	ns.Body = core.CleanString(ns.Body)

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	if core.Audience(ns.Audience) == core.AudienceRooms && len(ns.RoomIDs) == 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "room_ids", Error: "at least one room is required for a rooms audience"})
	}
	return nil
}

// UpdateStory defines what information may be provided to modify an existing Story.
type UpdateStory struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	PhotoURLs []string `json:"photo_urls"`
	Audience  string   `json:"audience" validate:"omitempty,audience"`
	RoomIDs   []string `json:"room_ids"`
}

func (us *UpdateStory) Validate(origStory Story) error {
	title := core.CleanString(us.Title)
	if title != "" {
		us.Title = title
	} else {
		us.Title = origStory.Title
	}

	body := core.CleanString(us.Body)
	if body != "" {
		us.Body = body
	} else {
		us.Body = origStory.Body
	}

	if us.Audience == "" {
		us.Audience = string(origStory.Audience)
	}

	if err := core.Validate.Struct(us); err != nil {
		return err
	}

	roomIDs := us.RoomIDs
	if roomIDs == nil {
		roomIDs = origStory.RoomIDs
	}
	if core.Audience(us.Audience) == core.AudienceRooms && len(roomIDs) == 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "room_ids", Error: "at least one room is required for a rooms audience"})
	}
	return nil
}

type QueryFilter struct {
	Search string    `query:"search"`
	RoomID string    `query:"room_id"`
	From   time.Time `query:"from"`
	To     time.Time `query:"to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.RoomID == "" && qf.From.IsZero() && qf.To.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
