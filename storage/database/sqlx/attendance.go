package sqlxrepos

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/attendance"
)

var (
	attendanceColumns = []string{
		"id", "org_id", "child_id", "date", "status", "check_in", "check_out",
		"note", "recorded_by", "created_at", "updated_at",
	}
	attendanceColumnList = strings.Join(attendanceColumns, ", ")
)

type attendanceRow struct {
	ID         string    `db:"id"`
	OrgID      string    `db:"org_id"`
	ChildID    string    `db:"child_id"`
	Date       time.Time `db:"date"`
	Status     string    `db:"status"`
	CheckIn    null.Time `db:"check_in"`
	CheckOut   null.Time `db:"check_out"`
	Note       string    `db:"note"`
	RecordedBy string    `db:"recorded_by"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (row attendanceRow) toRecord() attendance.Record {
	return attendance.Record(row)
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	rec.ID = uuid.New().String()
	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now

	query, args, err := psql.Insert("attendance_record").
		Columns(attendanceColumns...).
		Values(
			rec.ID, rec.OrgID, rec.ChildID, rec.Date, rec.Status,
			rec.CheckIn, rec.CheckOut, rec.Note, rec.RecordedBy,
			rec.CreatedAt, rec.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "building attendance insert")
	}
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, args...); err != nil {
		return attendance.Record{}, errors.Wrap(err, "inserting attendance record")
	}
	return rec, nil
}

func (repo attendanceRepository) GetRecord(ctx context.Context, orgID, childID string, date time.Time, exec ...core.DBExecutor) (attendance.Record, error) {
	query, args, err := psql.Select(attendanceColumns...).
		From("attendance_record").
		Where(sq.Eq{"org_id": orgID, "child_id": childID, "date": attendance.Day(date)}).
		ToSql()
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "building attendance query")
	}
	var row attendanceRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return attendance.Record{}, trapNoRowsErr(err, attendance.ErrNotFound, "getting attendance record")
	}
	return row.toRecord(), nil
}

func (repo attendanceRepository) UpdateRecord(ctx context.Context, rec attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	query, args, err := psql.Update("attendance_record").
		Where(sq.Eq{"id": rec.ID}).
		Set("status", rec.Status).
		Set("check_in", rec.CheckIn).
		Set("check_out", rec.CheckOut).
		Set("note", rec.Note).
		Set("recorded_by", rec.RecordedBy).
		Set("updated_at", rec.UpdatedAt.UTC()).
		Suffix("RETURNING " + attendanceColumnList).
		ToSql()
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "building attendance update")
	}
	var row attendanceRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return attendance.Record{}, trapNoRowsErr(err, attendance.ErrNotFound, "updating attendance record")
	}
	return row.toRecord(), nil
}

func (repo attendanceRepository) QueryRecords(ctx context.Context, orgID string, filter *attendance.QueryFilter, exec ...core.DBExecutor) ([]attendance.Record, error) {
	q := psql.Select(prefixColumns("ar", attendanceColumns)...).
		From("attendance_record ar").
		Where(sq.Eq{"ar.org_id": orgID})

	if filter != nil {
		if filter.RoomID != "" {
			q = q.Join("child c ON c.id = ar.child_id").
				Where(sq.Eq{"c.room_id": filter.RoomID})
		}
		if filter.ChildID != "" {
			q = q.Where(sq.Eq{"ar.child_id": filter.ChildID})
		}
		if !filter.Date.IsZero() {
			q = q.Where(sq.Eq{"ar.date": attendance.Day(filter.Date)})
		}
		if !filter.From.IsZero() {
			q = q.Where(sq.GtOrEq{"ar.date": attendance.Day(filter.From)})
		}
		if !filter.To.IsZero() {
			q = q.Where(sq.LtOrEq{"ar.date": attendance.Day(filter.To)})
		}
	}

	query, args, err := q.OrderBy("ar.date DESC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building attendance query")
	}
	var rows []attendanceRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}

	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.toRecord())
	}
	return recs, nil
}

func (repo attendanceRepository) SummarizeDay(ctx context.Context, orgID string, date time.Time, exec ...core.DBExecutor) (attendance.Summary, error) {
	query, args, err := psql.Select("status", "COUNT(*) AS count").
		From("attendance_record").
		Where(sq.Eq{"org_id": orgID, "date": attendance.Day(date)}).
		GroupBy("status").
		ToSql()
	if err != nil {
		return attendance.Summary{}, errors.Wrap(err, "building attendance summary query")
	}

	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return attendance.Summary{}, errors.Wrap(err, "summarizing attendance")
	}

	summary := attendance.Summary{Date: attendance.Day(date)}
	for _, row := range rows {
		switch row.Status {
		case attendance.StatusPresent:
			summary.Present = row.Count
		case attendance.StatusAbsent:
			summary.Absent = row.Count
		case attendance.StatusSick:
			summary.Sick = row.Count
		case attendance.StatusVacation:
			summary.Vacation = row.Count
		}
	}
	return summary, nil
}
