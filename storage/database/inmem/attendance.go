package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/attendance"
)

type attendanceRepository struct {
	db       *attendanceTable
	children *childTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db.attendance, children: db.child}
}

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rec.ID = uuid.New().String()
	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now
	repo.db.table[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, orgID, childID string, date time.Time, exec ...core.DBExecutor) (attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	day := attendance.Day(date)
	for _, rec := range repo.db.table {
		if rec.OrgID == orgID && rec.ChildID == childID && rec.Date.Equal(day) {
			return *rec, nil
		}
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) UpdateRecord(ctx context.Context, rec attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origRec, ok := repo.db.table[rec.ID]
	if !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	origRec.Status = rec.Status
	origRec.CheckIn = rec.CheckIn
	origRec.CheckOut = rec.CheckOut
	origRec.Note = rec.Note
	origRec.RecordedBy = rec.RecordedBy
	origRec.UpdatedAt = rec.UpdatedAt
	return *origRec, nil
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, orgID string, filter *attendance.QueryFilter, exec ...core.DBExecutor) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var recs []attendance.Record
	for _, rec := range repo.db.table {
		if rec.OrgID != orgID {
			continue
		}
		if filter != nil && !repo.matchFilter(*rec, filter) {
			continue
		}
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date.After(recs[j].Date) })
	return recs, nil
}

func (repo *attendanceRepository) matchFilter(rec attendance.Record, filter *attendance.QueryFilter) bool {
	if filter.RoomID != "" {
		repo.children.mutex.RLock()
		c, ok := repo.children.table[rec.ChildID]
		repo.children.mutex.RUnlock()
		if !ok || c.RoomID != filter.RoomID {
			return false
		}
	}
	if filter.ChildID != "" && rec.ChildID != filter.ChildID {
		return false
	}
	if !filter.Date.IsZero() && !rec.Date.Equal(attendance.Day(filter.Date)) {
		return false
	}
	if !filter.From.IsZero() && rec.Date.Before(attendance.Day(filter.From)) {
		return false
	}
	if !filter.To.IsZero() && rec.Date.After(attendance.Day(filter.To)) {
		return false
	}
	return true
}

func (repo *attendanceRepository) SummarizeDay(ctx context.Context, orgID string, date time.Time, exec ...core.DBExecutor) (attendance.Summary, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	day := attendance.Day(date)
	summary := attendance.Summary{Date: day}
	for _, rec := range repo.db.table {
		if rec.OrgID != orgID || !rec.Date.Equal(day) {
			continue
		}
		switch rec.Status {
		case attendance.StatusPresent:
			summary.Present++
		case attendance.StatusAbsent:
			summary.Absent++
		case attendance.StatusSick:
			summary.Sick++
		case attendance.StatusVacation:
			summary.Vacation++
		}
	}
	return summary, nil
}
