package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/database/migrations"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/models"
	_ "github.com/tursodatabase/go-libsql"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := migrations.Run(db, nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// setupTestRepos creates all repositories using a test database.
func setupTestRepos(t *testing.T) *Repositories {
	t.Helper()
	db := setupTestDB(t)
	return NewRepositories(db)
}

func testSemester(t *testing.T, repos *Repositories, shortCode string) int64 {
	t.Helper()
	s := &models.Semester{
		Name:      "Testsemester " + shortCode,
		ShortCode: shortCode,
		StartDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC),
		Active:    true,
	}
	if err := repos.Semester.Create(context.Background(), s); err != nil {
		t.Fatalf("create test semester: %v", err)
	}
	return s.ID
}
