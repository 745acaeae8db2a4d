package upsert

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/changelog"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/database/migrations"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/htmlparse"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/models"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/repository"
)

func newTestPipeline(t *testing.T) (*Pipeline, *repository.Repositories, int64, string) {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	if err := migrations.Run(db, nil); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	repos := repository.NewRepositories(db)
	semester := &models.Semester{
		Name:      "Sommersemester 2024",
		ShortCode: "SS24",
		StartDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC),
		Active:    true,
	}
	if err := repos.Semester.Create(context.Background(), semester); err != nil {
		t.Fatalf("create semester: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracker := changelog.New(repos, logger)
	return New(repos, tracker, logger), repos, semester.ID, "test-run-id"
}

func sampleRow() htmlparse.ScheduleRow {
	return htmlparse.ScheduleRow{
		Category:    "Pflichtmodule",
		Group:       "Gruppe A",
		CourseType:  "V",
		CourseTitle: "Algorithmen",
		Lecturer:    "Prof. Meier",
		DayOfWeek:   models.Tuesday,
		StartTime:   "10:00",
		EndTime:     "11:30",
		RoomCode:    "MIB/1001",
		WeekPattern: "wöchentlich",
		InfoID:      "42",
	}
}

func TestPipeline_Apply_FreshRow(t *testing.T) {
	pipeline, repos, semesterID, runID := newTestPipeline(t)
	ctx := context.Background()

	stats, err := pipeline.Apply(ctx, Input{Row: sampleRow(), SemesterID: semesterID, RunID: runID})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if stats.TotalEntries != 1 || stats.NewEntries != 1 || stats.UpdatedEntries != 0 {
		t.Errorf("stats = %+v, want {1,1,0}", stats)
	}

	course, err := repos.Course.FindActiveByNameCI(ctx, semesterID, "algorithmen")
	if err != nil {
		t.Fatalf("FindActiveByNameCI() error = %v", err)
	}
	if course.Name != "Algorithmen" {
		t.Errorf("Name = %q, want Algorithmen", course.Name)
	}

	lecturer, err := repos.Lecturer.FindByNameContains(ctx, "Meier")
	if err != nil {
		t.Fatalf("FindByNameContains() error = %v", err)
	}
	if lecturer.Title == nil || *lecturer.Title != "Prof." {
		t.Errorf("Title = %v, want Prof.", lecturer.Title)
	}

	room, err := repos.Room.GetByCode(ctx, "MIB/1001")
	if err != nil {
		t.Fatalf("GetByCode() error = %v", err)
	}
	if room.Building != "MIB" || room.RoomNumber != "1001" {
		t.Errorf("room = %+v, want building=MIB number=1001", room)
	}
}

func TestPipeline_Apply_Idempotent(t *testing.T) {
	pipeline, _, semesterID, runID := newTestPipeline(t)
	ctx := context.Background()

	if _, err := pipeline.Apply(ctx, Input{Row: sampleRow(), SemesterID: semesterID, RunID: runID}); err != nil {
		t.Fatalf("first Apply() error = %v", err)
	}

	stats, err := pipeline.Apply(ctx, Input{Row: sampleRow(), SemesterID: semesterID, RunID: runID})
	if err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}
	if stats.NewEntries != 0 || stats.UpdatedEntries != 0 {
		t.Errorf("second run stats = %+v, want no new/updated entries", stats)
	}
}

func TestPipeline_Apply_UpdatesChangedWeekPattern(t *testing.T) {
	pipeline, _, semesterID, runID := newTestPipeline(t)
	ctx := context.Background()

	if _, err := pipeline.Apply(ctx, Input{Row: sampleRow(), SemesterID: semesterID, RunID: runID}); err != nil {
		t.Fatalf("first Apply() error = %v", err)
	}

	changed := sampleRow()
	changed.WeekPattern = "14-täglich"
	stats, err := pipeline.Apply(ctx, Input{Row: changed, SemesterID: semesterID, RunID: runID})
	if err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}
	if stats.UpdatedEntries != 1 {
		t.Errorf("UpdatedEntries = %d, want 1", stats.UpdatedEntries)
	}
}

func TestSplitRoomCode(t *testing.T) {
	cases := map[string][2]string{
		"MIB/1001": {"MIB", "1001"},
		"HS-1":     {"HS", "1"},
		"Z1":       {"Z1", "Z1"},
	}
	for code, want := range cases {
		b, n := splitRoomCode(code)
		if b != want[0] || n != want[1] {
			t.Errorf("splitRoomCode(%q) = (%q, %q), want (%q, %q)", code, b, n, want[0], want[1])
		}
	}
}

func TestParseFachSemester(t *testing.T) {
	if n, ok := parseFachSemester("3.Semester"); !ok || n != 3 {
		t.Errorf("parseFachSemester() = (%d, %v), want (3, true)", n, ok)
	}
	if _, ok := parseFachSemester("Semester"); ok {
		t.Error("parseFachSemester(no digits) ok = true, want false")
	}
}
