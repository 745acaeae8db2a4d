package repository

import (
	"database/sql"
	"strings"
	"time"
)

// Repositories aggregates every entity repository behind a single
// constructor, mirroring the teacher's repository.NewRepositories(db).
type Repositories struct {
	Semester     SemesterRepository
	StudyProgram StudyProgramRepository
	CourseType   CourseTypeRepository
	Lecturer     LecturerRepository
	Room         RoomRepository
	Course       CourseRepository
	CourseLink   CourseStudyProgramRepository
	Schedule     ScheduleEntryRepository
	ScrapingRun  ScrapingRunRepository
	ChangeLog    ChangeLogRepository
}

// NewRepositories builds every repository over a shared *sql.DB.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Semester:     NewSQLiteSemesterRepository(db),
		StudyProgram: NewSQLiteStudyProgramRepository(db),
		CourseType:   NewSQLiteCourseTypeRepository(db),
		Lecturer:     NewSQLiteLecturerRepository(db),
		Room:         NewSQLiteRoomRepository(db),
		Course:       NewSQLiteCourseRepository(db),
		CourseLink:   NewSQLiteCourseStudyProgramRepository(db),
		Schedule:     NewSQLiteScheduleEntryRepository(db),
		ScrapingRun:  NewSQLiteScrapingRunRepository(db),
		ChangeLog:    NewSQLiteChangeLogRepository(db),
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullStringVal(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func nullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func ptrFromNullString(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}

func ptrFromNullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func ptrFromNullInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func timeFromNullString(n sql.NullString) *time.Time {
	if !n.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, n.String)
	if err != nil {
		return nil
	}
	return &t
}

// isUniqueViolation reports whether err came from a rejected unique index,
// the libsql/SQLite driver surfaces this as a plain string in the error
// message rather than a typed error.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique_constraint") ||
		strings.Contains(msg, "sqlite_constraint_unique")
}
