package repository

import (
	"context"
	"testing"
	"time"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/models"
)

func TestChangeLogRepository_CreateAndListByRun(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	semesterID := testSemester(t, repos, "SS24")

	run := &models.ScrapingRun{
		SemesterID: semesterID,
		StartTime:  time.Now(),
		Status:     models.RunRunning,
		SourceURL:  "https://evlvz.hrz.tu-freiberg.de/~vover/",
	}
	if err := repos.ScrapingRun.Create(ctx, run); err != nil {
		t.Fatalf("create scraping run: %v", err)
	}

	entries := []*models.ChangeLog{
		{ScrapingRunID: run.ID, EntityType: "course", EntityID: 1, ChangeType: models.ChangeCreated, Description: "new course"},
		{ScrapingRunID: run.ID, EntityType: "course", EntityID: 1, ChangeType: models.ChangeUpdated, Description: "sws changed"},
		{ScrapingRunID: run.ID, EntityType: "lecturer", EntityID: 2, ChangeType: models.ChangeCreated, Description: "new lecturer"},
	}
	for _, c := range entries {
		if err := repos.ChangeLog.Create(ctx, c); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if c.ID == "" {
			t.Fatal("Create() did not assign a ULID")
		}
	}

	got, err := repos.ChangeLog.ListByRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListByRun() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}

	stats, err := repos.ChangeLog.StatsByType(ctx, run.ID)
	if err != nil {
		t.Fatalf("StatsByType() error = %v", err)
	}
	if stats["created"] != 2 {
		t.Errorf("stats[created] = %d, want 2", stats["created"])
	}
	if stats["updated"] != 1 {
		t.Errorf("stats[updated] = %d, want 1", stats["updated"])
	}
}
