package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/models"
)

// SQLiteCourseRepository implements CourseRepository.
type SQLiteCourseRepository struct {
	db *sql.DB
}

// NewSQLiteCourseRepository creates a new course repository.
func NewSQLiteCourseRepository(db *sql.DB) *SQLiteCourseRepository {
	return &SQLiteCourseRepository{db: db}
}

func (r *SQLiteCourseRepository) scanCourse(row interface{ Scan(...any) error }) (*models.Course, error) {
	var c models.Course
	var courseNumber sql.NullString
	var sws, ects sql.NullInt64
	var active int
	if err := row.Scan(&c.ID, &c.Name, &courseNumber, &c.SemesterID, &c.LecturerID, &c.CourseTypeID, &sws, &ects, &active); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.CourseNumber = ptrFromNullString(courseNumber)
	c.SWS = ptrFromNullInt(sws)
	c.ECTS = ptrFromNullInt(ects)
	c.Active = active != 0
	return &c, nil
}

const courseColumns = `id, name, course_number, semester_id, lecturer_id, course_type_id, sws, ects, active`

func (r *SQLiteCourseRepository) FindActiveByNameCI(ctx context.Context, semesterID int64, name string) (*models.Course, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE semester_id = ? AND name_lower = lower(?) AND active LIMIT 1`,
		semesterID, name)
	return r.scanCourse(row)
}

func (r *SQLiteCourseRepository) Create(ctx context.Context, c *models.Course) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO courses (name, course_number, semester_id, lecturer_id, course_type_id, sws, ects, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, nullString(c.CourseNumber), c.SemesterID, c.LecturerID, c.CourseTypeID, nullInt(c.SWS), nullInt(c.ECTS), boolToInt(c.Active),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUniqueViolation
		}
		return fmt.Errorf("create course %q: %w", c.Name, err)
	}
	id, _ := res.LastInsertId()
	c.ID = id
	return nil
}

func (r *SQLiteCourseRepository) Update(ctx context.Context, c *models.Course) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE courses SET lecturer_id = ?, course_type_id = ?, sws = ?, ects = ? WHERE id = ?`,
		c.LecturerID, c.CourseTypeID, nullInt(c.SWS), nullInt(c.ECTS), c.ID,
	)
	if err != nil {
		return fmt.Errorf("update course id=%d: %w", c.ID, err)
	}
	return nil
}

// LoadWithScheduleEntries replaces the ORM lazy-collection pattern: it
// re-reads the course and its active schedule entries in one call so the
// next duplicate check in the same scrape always sees prior writes.
func (r *SQLiteCourseRepository) LoadWithScheduleEntries(ctx context.Context, id int64) (*models.Course, error) {
	c, err := r.scanCourse(r.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, course_id, room_id, room_code, day_of_week, start_time, end_time, week_pattern, notes, active
		 FROM schedule_entries WHERE course_id = ? AND active`, id)
	if err != nil {
		return nil, fmt.Errorf("load schedule entries for course id=%d: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var e models.ScheduleEntry
		var weekPattern, notes sql.NullString
		var day string
		var active int
		if err := rows.Scan(&e.ID, &e.CourseID, &e.RoomID, &e.RoomCode, &day, &e.StartTime, &e.EndTime, &weekPattern, &notes, &active); err != nil {
			return nil, err
		}
		e.DayOfWeek = models.Weekday(day)
		e.WeekPattern = ptrFromNullString(weekPattern)
		e.Notes = ptrFromNullString(notes)
		e.Active = active != 0
		c.ScheduleEntries = append(c.ScheduleEntries, e)
	}
	return c, rows.Err()
}
