package attendance

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/zawadi/chekechea/core"
)

// Statuses
const (
	StatusPresent  = "present"
	StatusAbsent   = "absent"
	StatusSick     = "sick"
	StatusVacation = "vacation"
)

var Statuses = []string{StatusPresent, StatusAbsent, StatusSick, StatusVacation}

// Record is one child's attendance for one day. One row per (child, date).
type Record struct {
	ID         string    `json:"id"`
	OrgID      string    `json:"org_id"`
	ChildID    string    `json:"child_id"`
	Date       time.Time `json:"date"` // midnight UTC
	Status     string    `json:"status"`
	CheckIn    null.Time `json:"check_in"`
	CheckOut   null.Time `json:"check_out"`
	Note       string    `json:"note,omitempty"`
	RecordedBy string    `json:"recorded_by"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// Day normalizes a timestamp to its attendance date.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type CheckInRequest struct {
	ChildID string    `json:"child_id" validate:"required"`
	At      time.Time `json:"at"`
	Note    string    `json:"note"`
}

func (ci *CheckInRequest) Validate() error {
	if ci.At.IsZero() {
		ci.At = time.Now()
	}
	ci.At = ci.At.UTC()
	ci.Note = core.CleanString(ci.Note)
	return core.Validate.Struct(ci)
}

type CheckOutRequest struct {
	ChildID string    `json:"child_id" validate:"required"`
	At      time.Time `json:"at"`
}

func (co *CheckOutRequest) Validate() error {
	if co.At.IsZero() {
		co.At = time.Now()
	}
	co.At = co.At.UTC()
	return core.Validate.Struct(co)
}

type AbsenceRequest struct {
	ChildID string    `json:"child_id" validate:"required"`
	Date    time.Time `json:"date"`
	Status  string    `json:"status" validate:"required,attstatus"`
	Note    string    `json:"note"`
}

func (ar *AbsenceRequest) Validate() error {
	if ar.Date.IsZero() {
		ar.Date = time.Now()
	}
	ar.Date = Day(ar.Date)
	ar.Note = core.CleanString(ar.Note)
	return core.Validate.Struct(ar)
}

type QueryFilter struct {
	RoomID  string    `query:"room_id"`
	ChildID string    `query:"child_id"`
	Date    time.Time `query:"date"`
	From    time.Time `query:"from"`
	To      time.Time `query:"to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.RoomID == "" && qf.ChildID == "" && qf.Date.IsZero() && qf.From.IsZero() && qf.To.IsZero()
}

// Summary is the per-day org roll-up.
type Summary struct {
	Date     time.Time `json:"date"`
	Present  int       `json:"present"`
	Absent   int       `json:"absent"`
	Sick     int       `json:"sick"`
	Vacation int       `json:"vacation"`
}
