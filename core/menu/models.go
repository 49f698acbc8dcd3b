package menu

import (
	"time"

	"github.com/zawadi/chekechea/core"
)

// Menu is the org's meal plan for one day. One row per (org, date).
type Menu struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	Date      time.Time `json:"date"` // midnight UTC
	Breakfast string    `json:"breakfast,omitempty"`
	Lunch     string    `json:"lunch,omitempty"`
	Snack     string    `json:"snack,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Day normalizes a timestamp to its menu date.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// UpsertMenu sets the menu for a date; posting twice replaces it.
type UpsertMenu struct {
	Date      time.Time `json:"date" validate:"required"`
	Breakfast string    `json:"breakfast"`
	Lunch     string    `json:"lunch"`
	Snack     string    `json:"snack"`
	Notes     string    `json:"notes"`
}

func (um *UpsertMenu) Validate() error {
	um.Breakfast = core.CleanString(um.Breakfast)
	um.Lunch = core.CleanString(um.Lunch)
	um.Snack = core.CleanString(um.Snack)
	um.Notes = core.CleanString(um.Notes)

	if err := core.Validate.Struct(um); err != nil {
		return err
	}
	if um.Breakfast == "" && um.Lunch == "" && um.Snack == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "lunch", Error: "at least one meal is required"})
	}
	um.Date = Day(um.Date)
	return nil
}

type QueryFilter struct {
	From time.Time `query:"from"`
	To   time.Time `query:"to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.From.IsZero() && qf.To.IsZero()
}
