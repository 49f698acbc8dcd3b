package menu_test

import (
	"context"
	"testing"
	"time"

	"github.com/zawadi/chekechea/core/menu"
	inmemdb "github.com/zawadi/chekechea/storage/database/inmem"
)

func setup() menu.ServiceInterface {
	db := inmemdb.Open()
	return menu.NewService(nil, inmemdb.NewMenuRepository(db))
}

func Test_service_Upsert(t *testing.T) {
	svc := setup()
	ctx := context.Background()
	date := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

	m, err := svc.Upsert(ctx, "org-1", menu.UpsertMenu{Date: date, Lunch: "ugali na maharage"})
	if err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if m.Lunch != "ugali na maharage" {
		t.Errorf("Lunch = %q", m.Lunch)
	}

	// posting twice for the same date replaces the menu
	m2, err := svc.Upsert(ctx, "org-1", menu.UpsertMenu{Date: date, Lunch: "wali na samaki", Snack: "ndizi"})
	if err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if m2.ID != m.ID {
		t.Errorf("ID = %q; want %q (same row)", m2.ID, m.ID)
	}
	if m2.Lunch != "wali na samaki" || m2.Snack != "ndizi" {
		t.Errorf("menu not replaced: %+v", m2)
	}

	got, err := svc.GetByDate(ctx, "org-1", date.Add(10*time.Hour)) // any time that day
	if err != nil {
		t.Fatalf("GetByDate() failed: %v", err)
	}
	if got.ID != m.ID {
		t.Errorf("GetByDate() ID = %q; want %q", got.ID, m.ID)
	}
}

func Test_service_Query(t *testing.T) {
	svc := setup()
	ctx := context.Background()
	monday := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		if _, err := svc.Upsert(ctx, "org-1", menu.UpsertMenu{Date: monday.AddDate(0, 0, i), Lunch: "lunch"}); err != nil {
			t.Fatalf("Upsert() failed: %v", err)
		}
	}

	menus, err := svc.Query(ctx, "org-1", &menu.QueryFilter{From: monday.AddDate(0, 0, 1), To: monday.AddDate(0, 0, 3)})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(menus) != 3 {
		t.Fatalf("len(menus) = %d; want 3", len(menus))
	}
	// oldest first
	for i := 1; i < len(menus); i++ {
		if menus[i].Date.Before(menus[i-1].Date) {
			t.Error("menus not sorted by date ascending")
		}
	}

	if _, err := svc.GetByDate(ctx, "org-1", monday.AddDate(0, 1, 0)); err != menu.ErrNotFound {
		t.Errorf("GetByDate() err = %v; want %v", err, menu.ErrNotFound)
	}
}
