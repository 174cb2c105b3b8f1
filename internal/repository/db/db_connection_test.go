package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"valve_control/internal/models"
	"valve_control/internal/repository"
)

func openTemp(t *testing.T) *repository.Repository {
	t.Helper()
	conn, err := InitDB(filepath.Join(t.TempDir(), "valves.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	// drop idle connections so every statement runs on a fresh one
	conn.SetMaxIdleConns(0)
	return repository.NewRepository(conn)
}

func TestDSN_AppendsPragmas(t *testing.T) {
	cases := map[string]string{
		"valves.db":          "valves.db?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		"file:v.db?mode=rwc": "file:v.db?mode=rwc&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
	}
	for in, want := range cases {
		if got := dsn(in); got != want {
			t.Errorf("dsn(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestInitDB_ForeignKeysOnEveryConnection(t *testing.T) {
	conn, err := InitDB(filepath.Join(t.TempDir(), "valves.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer conn.Close()
	conn.SetMaxIdleConns(0)

	for i := 0; i < 3; i++ {
		var on int
		if err := conn.QueryRow("PRAGMA foreign_keys").Scan(&on); err != nil {
			t.Fatalf("PRAGMA foreign_keys: %v", err)
		}
		if on != 1 {
			t.Fatalf("connection %d: foreign_keys = %d; want 1", i, on)
		}
	}
}

func TestInitDB_DeleteCascadesOnFreshConnection(t *testing.T) {
	repos := openTemp(t)
	ctx := context.Background()
	entry := models.ScheduleEntry{Day: models.Weekday(time.Monday), Begin: 8 * 3600, End: 9 * 3600}

	if err := repos.ValveRepo.Create(ctx, models.NewValve(4, "beds")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repos.ScheduleRepo.Add(ctx, 4, entry); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repos.ValveRepo.Delete(ctx, 4); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repos.ValveRepo.Create(ctx, models.NewValve(4, "beds again")); err != nil {
		t.Fatalf("re-Create: %v", err)
	}

	v, err := repos.ValveRepo.Get(ctx, 4)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(v.Schedule) != 0 {
		t.Fatalf("orphaned schedule came back: %+v", v.Schedule)
	}
}

func TestInitDB_SchedulesListedMondayFirst(t *testing.T) {
	repos := openTemp(t)
	ctx := context.Background()
	if err := repos.ValveRepo.Create(ctx, models.NewValve(1, "lawn")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, day := range []time.Weekday{time.Sunday, time.Wednesday, time.Monday} {
		e := models.ScheduleEntry{Day: models.Weekday(day), Begin: 6 * 3600, End: 7 * 3600}
		if err := repos.ScheduleRepo.Add(ctx, 1, e); err != nil {
			t.Fatalf("Add %s: %v", day, err)
		}
	}

	v, err := repos.ValveRepo.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	listed, err := repos.ValveRepo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []models.Weekday{models.Weekday(time.Monday), models.Weekday(time.Wednesday), models.Weekday(time.Sunday)}
	for name, sched := range map[string][]models.ScheduleEntry{"Get": v.Schedule, "List": listed[0].Schedule} {
		if len(sched) != len(want) {
			t.Fatalf("%s: schedule = %+v", name, sched)
		}
		for i, d := range want {
			if sched[i].Day != d {
				t.Fatalf("%s: day %d = %s; want %s", name, i, sched[i].Day, d)
			}
		}
	}
}

func TestInitDB_GuardedStatusUpdate(t *testing.T) {
	repos := openTemp(t)
	ctx := context.Background()
	at := time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC)
	if err := repos.ValveRepo.Create(ctx, models.NewValve(2, "drip")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repos.ValveRepo.UpdateStatus(ctx, 2, models.ForceClose, models.Close, at); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if err := repos.ValveRepo.SetValveStatus(ctx, 2, models.Scheduled, models.Open, at); err != repository.ErrStale {
		t.Fatalf("SetValveStatus with old automation: %v; want ErrStale", err)
	}
	v, _ := repos.ValveRepo.Get(ctx, 2)
	if v.AutomationStatus != models.ForceClose || v.ValveStatus != models.Close {
		t.Fatalf("row changed: %+v", v)
	}
}
