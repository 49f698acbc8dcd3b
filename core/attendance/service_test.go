package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/attendance"
	inmemdb "github.com/zawadi/chekechea/storage/database/inmem"
)

func setup() attendance.ServiceInterface {
	db := inmemdb.Open()
	return attendance.NewService(nil, inmemdb.NewAttendanceRepository(db))
}

func Test_service_CheckIn(t *testing.T) {
	svc := setup()
	ctx := context.Background()
	at := time.Date(2021, 3, 1, 8, 30, 0, 0, time.UTC)

	rec, err := svc.CheckIn(ctx, "org-1", "staff-1", attendance.CheckInRequest{ChildID: "child-1", At: at})
	if err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}
	if rec.Status != attendance.StatusPresent {
		t.Errorf("Status = %q; want %q", rec.Status, attendance.StatusPresent)
	}
	if !rec.CheckIn.Valid || !rec.CheckIn.Time.Equal(at) {
		t.Errorf("CheckIn = %v; want %v", rec.CheckIn, at)
	}
	if !rec.Date.Equal(attendance.Day(at)) {
		t.Errorf("Date = %v; want %v", rec.Date, attendance.Day(at))
	}

	// a repeat check-in on the same day updates the record instead of creating another
	later := at.Add(time.Hour)
	rec2, err := svc.CheckIn(ctx, "org-1", "staff-2", attendance.CheckInRequest{ChildID: "child-1", At: later})
	if err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}
	if rec2.ID != rec.ID {
		t.Errorf("ID = %q; want %q (same record)", rec2.ID, rec.ID)
	}
	if !rec2.CheckIn.Time.Equal(later) {
		t.Errorf("CheckIn = %v; want %v", rec2.CheckIn.Time, later)
	}
	if rec2.RecordedBy != "staff-2" {
		t.Errorf("RecordedBy = %q; want %q", rec2.RecordedBy, "staff-2")
	}

	recs, err := svc.Query(ctx, "org-1", nil)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("len(recs) = %d; want 1", len(recs))
	}
}

func Test_service_CheckOut(t *testing.T) {
	svc := setup()
	ctx := context.Background()
	in := time.Date(2021, 3, 1, 8, 30, 0, 0, time.UTC)

	// check-out without a check-in
	_, err := svc.CheckOut(ctx, "org-1", attendance.CheckOutRequest{ChildID: "child-1", At: in})
	if !core.IsValidationError(err) {
		t.Fatalf("CheckOut() err = %v; want validation error", err)
	}

	if _, err = svc.CheckIn(ctx, "org-1", "staff-1", attendance.CheckInRequest{ChildID: "child-1", At: in}); err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}

	// check-out before check-in
	_, err = svc.CheckOut(ctx, "org-1", attendance.CheckOutRequest{ChildID: "child-1", At: in.Add(-time.Hour)})
	if !core.IsValidationError(err) {
		t.Fatalf("CheckOut() err = %v; want validation error", err)
	}

	out := in.Add(8 * time.Hour)
	rec, err := svc.CheckOut(ctx, "org-1", attendance.CheckOutRequest{ChildID: "child-1", At: out})
	if err != nil {
		t.Fatalf("CheckOut() failed: %v", err)
	}
	if !rec.CheckOut.Valid || !rec.CheckOut.Time.Equal(out) {
		t.Errorf("CheckOut = %v; want %v", rec.CheckOut, out)
	}
}

func Test_service_MarkAbsent(t *testing.T) {
	svc := setup()
	ctx := context.Background()
	in := time.Date(2021, 3, 1, 8, 30, 0, 0, time.UTC)

	if _, err := svc.CheckIn(ctx, "org-1", "staff-1", attendance.CheckInRequest{ChildID: "child-1", At: in}); err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}

	// absence over an existing check-in replaces the status and clears the times
	rec, err := svc.MarkAbsent(ctx, "org-1", "staff-1", attendance.AbsenceRequest{
		ChildID: "child-1",
		Date:    attendance.Day(in),
		Status:  attendance.StatusSick,
		Note:    "sent home with a fever",
	})
	if err != nil {
		t.Fatalf("MarkAbsent() failed: %v", err)
	}
	if rec.Status != attendance.StatusSick {
		t.Errorf("Status = %q; want %q", rec.Status, attendance.StatusSick)
	}
	if rec.CheckIn.Valid || rec.CheckOut.Valid {
		t.Errorf("times not cleared: in=%v out=%v", rec.CheckIn, rec.CheckOut)
	}
}

func Test_service_Summary(t *testing.T) {
	svc := setup()
	ctx := context.Background()
	day := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, childID := range []string{"child-1", "child-2"} {
		at := day.Add(time.Duration(8+i) * time.Hour)
		if _, err := svc.CheckIn(ctx, "org-1", "staff-1", attendance.CheckInRequest{ChildID: childID, At: at}); err != nil {
			t.Fatalf("CheckIn() failed: %v", err)
		}
	}
	if _, err := svc.MarkAbsent(ctx, "org-1", "staff-1", attendance.AbsenceRequest{ChildID: "child-3", Date: day, Status: attendance.StatusVacation}); err != nil {
		t.Fatalf("MarkAbsent() failed: %v", err)
	}
	// other orgs do not leak into the summary
	if _, err := svc.CheckIn(ctx, "org-2", "staff-9", attendance.CheckInRequest{ChildID: "child-9", At: day.Add(9 * time.Hour)}); err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}

	summary, err := svc.Summary(ctx, "org-1", day)
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}
	if summary.Present != 2 || summary.Vacation != 1 || summary.Absent != 0 || summary.Sick != 0 {
		t.Errorf("Summary = %+v; want 2 present, 1 vacation", summary)
	}
}

func Test_service_History(t *testing.T) {
	svc := setup()
	ctx := context.Background()
	day := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		at := day.AddDate(0, 0, i).Add(8 * time.Hour)
		if _, err := svc.CheckIn(ctx, "org-1", "staff-1", attendance.CheckInRequest{ChildID: "child-1", At: at}); err != nil {
			t.Fatalf("CheckIn() failed: %v", err)
		}
	}

	recs, err := svc.History(ctx, "org-1", "child-1", day.AddDate(0, 0, 1), day.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len(recs) = %d; want 3", len(recs))
	}
	// most recent first
	for i := 1; i < len(recs); i++ {
		if recs[i].Date.After(recs[i-1].Date) {
			t.Errorf("records not sorted by date descending")
		}
	}
}
