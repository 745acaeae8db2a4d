package repository

import (
	"context"
	"testing"
	"time"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/models"
)

func TestScrapingRunRepository_CreateCompleteFail(t *testing.T) {
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
		t.Fatalf("Create() error = %v", err)
	}
	if run.ID == "" {
		t.Fatal("Create() did not assign a ULID")
	}

	if err := repos.ScrapingRun.Complete(ctx, run.ID, 42, 10, 5); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	got, err := repos.ScrapingRun.GetByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != models.RunCompleted {
		t.Errorf("Status = %v, want %v", got.Status, models.RunCompleted)
	}
	if got.TotalEntries == nil || *got.TotalEntries != 42 {
		t.Errorf("TotalEntries = %v, want 42", got.TotalEntries)
	}
	if got.EndTime == nil {
		t.Error("EndTime = nil, want set")
	}
}

func TestScrapingRunRepository_Fail(t *testing.T) {
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
		t.Fatalf("Create() error = %v", err)
	}
	if err := repos.ScrapingRun.Fail(ctx, run.ID, "connection reset"); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	got, err := repos.ScrapingRun.GetByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != models.RunFailed {
		t.Errorf("Status = %v, want %v", got.Status, models.RunFailed)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != "connection reset" {
		t.Errorf("ErrorMessage = %v, want 'connection reset'", got.ErrorMessage)
	}
}

func TestScrapingRunRepository_History(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	semesterID := testSemester(t, repos, "SS24")

	for i := 0; i < 3; i++ {
		run := &models.ScrapingRun{
			SemesterID: semesterID,
			StartTime:  time.Now(),
			Status:     models.RunRunning,
			SourceURL:  "https://evlvz.hrz.tu-freiberg.de/~vover/",
		}
		if err := repos.ScrapingRun.Create(ctx, run); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := repos.ScrapingRun.History(ctx, semesterID, 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
}
