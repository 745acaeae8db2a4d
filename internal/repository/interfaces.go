// Package repository defines and implements data access for the harvester's
// domain entities, backed by database/sql over libsql.
package repository

import (
	"context"
	"time"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/models"
)

// SemesterRepository accesses Semester rows.
type SemesterRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Semester, error)
	GetByShortCode(ctx context.Context, shortCode string) (*models.Semester, error)
	List(ctx context.Context) ([]*models.Semester, error)
	Create(ctx context.Context, s *models.Semester) error
}

// StudyProgramRepository accesses StudyProgram rows.
type StudyProgramRepository interface {
	GetByCode(ctx context.Context, code string) (*models.StudyProgram, error)
	FindByNameContains(ctx context.Context, fragment string) (*models.StudyProgram, error)
}

// CourseTypeRepository accesses CourseType rows.
type CourseTypeRepository interface {
	GetByCode(ctx context.Context, code string) (*models.CourseType, error)
	Create(ctx context.Context, ct *models.CourseType) error
}

// LecturerRepository accesses Lecturer rows.
type LecturerRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.Lecturer, error)
	FindByNameContains(ctx context.Context, fragment string) (*models.Lecturer, error)
	Create(ctx context.Context, l *models.Lecturer) error
	Update(ctx context.Context, l *models.Lecturer) error
}

// RoomRepository accesses Room rows.
type RoomRepository interface {
	GetByCode(ctx context.Context, code string) (*models.Room, error)
	Create(ctx context.Context, r *models.Room) error
}

// CourseRepository accesses Course rows, including the schedule-entry
// collection that the upsert pipeline must eagerly reload after writes.
type CourseRepository interface {
	FindActiveByNameCI(ctx context.Context, semesterID int64, name string) (*models.Course, error)
	Create(ctx context.Context, c *models.Course) error
	Update(ctx context.Context, c *models.Course) error
	// LoadWithScheduleEntries re-reads a course and its active schedule
	// entries in one call, replacing any lazily-assumed state.
	LoadWithScheduleEntries(ctx context.Context, id int64) (*models.Course, error)
}

// CourseStudyProgramRepository accesses the join table.
type CourseStudyProgramRepository interface {
	Exists(ctx context.Context, courseID, studyProgramID int64) (bool, error)
	Create(ctx context.Context, link *models.CourseStudyProgram) error
}

// ScheduleEntryRepository accesses ScheduleEntry rows.
type ScheduleEntryRepository interface {
	Create(ctx context.Context, e *models.ScheduleEntry) error
	Update(ctx context.Context, e *models.ScheduleEntry) error
}

// ScrapingRunRepository accesses ScrapingRun rows.
type ScrapingRunRepository interface {
	Create(ctx context.Context, r *models.ScrapingRun) error
	Complete(ctx context.Context, id string, total, newCount, updated int) error
	Fail(ctx context.Context, id, errMsg string) error
	GetByID(ctx context.Context, id string) (*models.ScrapingRun, error)
	History(ctx context.Context, semesterID int64, limit int) ([]*models.ScrapingRun, error)
	RecentSince(ctx context.Context, since time.Time) ([]*models.ScrapingRun, error)
}

// ChangeLogRepository accesses ChangeLog rows.
type ChangeLogRepository interface {
	Create(ctx context.Context, c *models.ChangeLog) error
	ListByRun(ctx context.Context, runID string) ([]*models.ChangeLog, error)
	StatsByType(ctx context.Context, runID string) (map[string]int, error)
}

// ErrNotFound is returned by single-row lookups that find nothing.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "repository: not found" }

// ErrUniqueViolation is returned when a unique-index constraint rejects a
// write. The upsert pipeline treats this as a normal concurrent-create race,
// not a failure: the caller re-runs its lookup and joins the winning row.
var ErrUniqueViolation = errUniqueViolation{}

type errUniqueViolation struct{}

func (errUniqueViolation) Error() string { return "repository: unique constraint violation" }
