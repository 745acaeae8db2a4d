// Package models defines the domain entities harvested from the course catalog.
package models

import "time"

// DegreeKind enumerates StudyProgram degree kinds.
type DegreeKind string

const (
	DegreeBachelor  DegreeKind = "bachelor"
	DegreeMaster    DegreeKind = "master"
	DegreeDiploma   DegreeKind = "diploma"
	DegreeDoctorate DegreeKind = "doctorate"
)

// Weekday enumerates ScheduleEntry days, Monday first.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// RunStatus enumerates ScrapingRun lifecycle states.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// ChangeType enumerates ChangeLog entry kinds.
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// Semester is a harvested or operator-created academic term.
type Semester struct {
	ID        int64
	Name      string // unique human-readable name, e.g. "Sommersemester 2024"
	ShortCode string // unique short code, e.g. "SS24"
	StartDate time.Time
	EndDate   time.Time
	Active    bool
}

// StudyProgram is a degree path.
type StudyProgram struct {
	ID          int64
	Code        string // unique short code, e.g. "BAI"
	DisplayName string
	Degree      DegreeKind
	FacultyID   *int64
	Active      bool
}

// CourseType is a short lecture-format tag (V, Ü, S, P, B, ...).
type CourseType struct {
	ID   int64
	Code string // normalized to 1 character
	Name string
}

// Lecturer is a shared reference entity. Never deleted, only filled in further.
type Lecturer struct {
	ID    int64
	Name  string // <=200 chars, never blank; "N.N." placeholder
	Title *string
	Email *string // lower-cased, unique by match
}

// Room is a shared reference entity.
type Room struct {
	ID         int64
	Code       string // unique, e.g. "MIB/1001"
	Building   string
	RoomNumber string
	Capacity   *int
	RoomType   string
	Equipment  string
	Active     bool
}

// Course belongs to exactly one Semester.
type Course struct {
	ID           int64
	Name         string // <=200 chars
	CourseNumber *string
	SemesterID   int64
	LecturerID   int64
	CourseTypeID int64
	SWS          *int
	ECTS         *int
	Active       bool

	// ScheduleEntries is populated by an explicit eager reload after any
	// write so the upsert pipeline always sees its own prior writes within
	// the same scrape — there is no lazy-loading ORM session to rely on.
	ScheduleEntries []ScheduleEntry
}

// CourseStudyProgram links a Course to a StudyProgram, optionally pinned to
// a fach-semester number.
type CourseStudyProgram struct {
	ID             int64
	CourseID       int64
	StudyProgramID int64
	FachSemester   *int
}

// ScheduleEntry is one weekly timetable slot for a Course.
type ScheduleEntry struct {
	ID          int64
	CourseID    int64
	RoomID      int64
	RoomCode    string // denormalized for case-insensitive identity comparisons
	DayOfWeek   Weekday
	StartTime   string // "HH:MM", 24h
	EndTime     string // "HH:MM", 24h
	WeekPattern *string
	Notes       *string
	Active      bool
}

// ScrapingRun is one harvest invocation against a single semester.
type ScrapingRun struct {
	ID             string // ULID
	SemesterID     int64
	StartTime      time.Time
	EndTime        *time.Time
	Status         RunStatus
	TotalEntries   *int
	NewEntries     *int
	UpdatedEntries *int
	ErrorMessage   *string
	SourceURL      string
}

// ChangeLog is an append-only audit row tied to a ScrapingRun.
type ChangeLog struct {
	ID            string // ULID
	ScrapingRunID string
	EntityType    string
	EntityID      int64
	ChangeType    ChangeType
	FieldName     *string
	OldValue      *string
	NewValue      *string
	Description   string
}
