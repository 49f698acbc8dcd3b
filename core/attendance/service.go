package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/zawadi/chekechea/core"
)

var (
	// errors
	ErrNotFound         = errors.New("attendance record not found")
	ErrNotCheckedIn     = errors.New("child has not been checked in")
	ErrCheckOutBeforeIn = errors.New("check-out cannot precede check-in")
)

type (
	Repository interface {
		CreateRecord(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
		// GetRecord fetches the record for (child, date).
		GetRecord(ctx context.Context, orgID, childID string, date time.Time, exec ...core.DBExecutor) (Record, error)
		UpdateRecord(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
		// QueryRecords applies AND on available filter fields; RoomID joins
		// through the child roster.
		QueryRecords(ctx context.Context, orgID string, filter *QueryFilter, exec ...core.DBExecutor) ([]Record, error)
		// SummarizeDay counts records per status for the date.
		SummarizeDay(ctx context.Context, orgID string, date time.Time, exec ...core.DBExecutor) (Summary, error)
	}

	ServiceInterface interface {
		CheckIn(ctx context.Context, orgID, recordedBy string, req CheckInRequest) (Record, error)
		CheckOut(ctx context.Context, orgID string, req CheckOutRequest) (Record, error)
		MarkAbsent(ctx context.Context, orgID, recordedBy string, req AbsenceRequest) (Record, error)
		Query(ctx context.Context, orgID string, filter *QueryFilter) ([]Record, error)
		History(ctx context.Context, orgID, childID string, from, to time.Time) ([]Record, error)
		Summary(ctx context.Context, orgID string, date time.Time) (Summary, error)
	}

	service struct {
		db   core.DB
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(db core.DB, repo Repository) *service {
	return &service{db: db, repo: repo}
}

// CheckIn opens (or re-opens) the child's record for the day. A repeat
// check-in updates the existing record's time instead of erroring.
func (svc *service) CheckIn(ctx context.Context, orgID, recordedBy string, req CheckInRequest) (Record, error) {
	date := Day(req.At)
	now := time.Now().UTC()

	rec, err := svc.repo.GetRecord(ctx, orgID, req.ChildID, date)
	if err != nil {
		if err != ErrNotFound {
			return Record{}, err
		}
		return svc.repo.CreateRecord(ctx, Record{
			OrgID:      orgID,
			ChildID:    req.ChildID,
			Date:       date,
			Status:     StatusPresent,
			CheckIn:    null.TimeFrom(req.At),
			Note:       req.Note,
			RecordedBy: recordedBy,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	rec.Status = StatusPresent
	rec.CheckIn = null.TimeFrom(req.At)
	rec.CheckOut = null.Time{}
	if req.Note != "" {
		rec.Note = req.Note
	}
	rec.RecordedBy = recordedBy
	rec.UpdatedAt = now
	return svc.repo.UpdateRecord(ctx, rec)
}

func (svc *service) CheckOut(ctx context.Context, orgID string, req CheckOutRequest) (Record, error) {
	date := Day(req.At)

	rec, err := svc.repo.GetRecord(ctx, orgID, req.ChildID, date)
	if err != nil {
		if err == ErrNotFound {
			return Record{}, core.NewValidationError(ErrNotCheckedIn, core.FieldError{Field: "child_id", Error: ErrNotCheckedIn.Error()})
		}
		return Record{}, err
	}
	if !rec.CheckIn.Valid {
		return Record{}, core.NewValidationError(ErrNotCheckedIn, core.FieldError{Field: "child_id", Error: ErrNotCheckedIn.Error()})
	}
	if req.At.Before(rec.CheckIn.Time) {
		return Record{}, core.NewValidationError(ErrCheckOutBeforeIn, core.FieldError{Field: "at", Error: ErrCheckOutBeforeIn.Error()})
	}

	rec.CheckOut = null.TimeFrom(req.At)
	rec.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateRecord(ctx, rec)
}

// MarkAbsent records an absence; over an existing check-in it replaces the
// status and clears the times.
func (svc *service) MarkAbsent(ctx context.Context, orgID, recordedBy string, req AbsenceRequest) (Record, error) {
	now := time.Now().UTC()

	rec, err := svc.repo.GetRecord(ctx, orgID, req.ChildID, req.Date)
	if err != nil {
		if err != ErrNotFound {
			return Record{}, err
		}
		return svc.repo.CreateRecord(ctx, Record{
			OrgID:      orgID,
			ChildID:    req.ChildID,
			Date:       req.Date,
			Status:     req.Status,
			Note:       req.Note,
			RecordedBy: recordedBy,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	rec.Status = req.Status
	rec.CheckIn = null.Time{}
	rec.CheckOut = null.Time{}
	rec.Note = req.Note
	rec.RecordedBy = recordedBy
	rec.UpdatedAt = now
	return svc.repo.UpdateRecord(ctx, rec)
}

func (svc *service) Query(ctx context.Context, orgID string, filter *QueryFilter) ([]Record, error) {
	if filter != nil && filter.IsEmpty() {
		filter = nil
	}
	return svc.repo.QueryRecords(ctx, orgID, filter)
}

func (svc *service) History(ctx context.Context, orgID, childID string, from, to time.Time) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, orgID, &QueryFilter{ChildID: childID, From: from, To: to})
}

func (svc *service) Summary(ctx context.Context, orgID string, date time.Time) (Summary, error) {
	return svc.repo.SummarizeDay(ctx, orgID, Day(date))
}
