package child

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/zawadi/chekechea/core"
)

type Room struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type Child struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	RoomID    string    `json:"room_id"`
	Name      string    `json:"name"`
	Birthdate time.Time `json:"birthdate"`
	Allergies string    `json:"allergies,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
	DeletedAt null.Time `json:"-"`
}

func (c *Child) Deleted() bool { return c.DeletedAt.Valid }

// GuardianLink ties a guardian User to a Child.
type GuardianLink struct {
	ChildID    string    `json:"child_id"`
	GuardianID string    `json:"guardian_id"`
	Relation   string    `json:"relation,omitempty"` // mother, father, ...
	CreatedAt  time.Time `json:"created_at"`         // UTC
}

type NewRoom struct {
	Name string `json:"name" validate:"required"`
}

func (nr *NewRoom) Validate() error {
	nr.Name = core.CleanString(nr.Name)
	return core.Validate.Struct(nr)
}

type NewChild struct {
	RoomID    string    `json:"room_id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Birthdate time.Time `json:"birthdate" validate:"required"`
	Allergies string    `json:"allergies"`
	Notes     string    `json:"notes"`
}

func (nc *NewChild) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.Allergies = core.CleanString(nc.Allergies)
	nc.Notes = core.CleanString(nc.Notes)
	return core.Validate.Struct(nc)
}

type UpdateChild struct {
	RoomID    string    `json:"room_id"`
	Name      string    `json:"name"`
	Birthdate time.Time `json:"birthdate"`
	Allergies *string   `json:"allergies"`
	Notes     *string   `json:"notes"`
}

func (uc *UpdateChild) Validate(origChild Child) error {
	if uc.RoomID == "" {
		uc.RoomID = origChild.RoomID
	}
	name := core.CleanString(uc.Name)
	if name != "" {
		uc.Name = name
	} else {
		uc.Name = origChild.Name
	}
	if uc.Birthdate.IsZero() {
		uc.Birthdate = origChild.Birthdate
	}
	return core.Validate.Struct(uc)
}

type NewGuardianLink struct {
	Relation string `json:"relation"`
}

func (ngl *NewGuardianLink) Validate() error {
	ngl.Relation = core.CleanString(ngl.Relation, true /* lower */)
	return core.Validate.Struct(ngl)
}

type QueryFilter struct {
	Search string `query:"search"`
	RoomID string `query:"room_id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.RoomID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
