package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/models"
)

// SQLiteScheduleEntryRepository implements ScheduleEntryRepository.
type SQLiteScheduleEntryRepository struct {
	db *sql.DB
}

// NewSQLiteScheduleEntryRepository creates a new schedule-entry repository.
func NewSQLiteScheduleEntryRepository(db *sql.DB) *SQLiteScheduleEntryRepository {
	return &SQLiteScheduleEntryRepository{db: db}
}

func (r *SQLiteScheduleEntryRepository) Create(ctx context.Context, e *models.ScheduleEntry) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO schedule_entries
		 (course_id, room_id, room_code, day_of_week, start_time, end_time, week_pattern, notes, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.CourseID, e.RoomID, e.RoomCode, string(e.DayOfWeek), e.StartTime, e.EndTime,
		nullString(e.WeekPattern), nullString(e.Notes), boolToInt(e.Active),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUniqueViolation
		}
		return fmt.Errorf("create schedule entry for course id=%d: %w", e.CourseID, err)
	}
	id, _ := res.LastInsertId()
	e.ID = id
	return nil
}

func (r *SQLiteScheduleEntryRepository) Update(ctx context.Context, e *models.ScheduleEntry) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE schedule_entries SET room_id = ?, room_code = ?, week_pattern = ?, notes = ?, active = ?
		 WHERE id = ?`,
		e.RoomID, e.RoomCode, nullString(e.WeekPattern), nullString(e.Notes), boolToInt(e.Active), e.ID,
	)
	if err != nil {
		return fmt.Errorf("update schedule entry id=%d: %w", e.ID, err)
	}
	return nil
}
