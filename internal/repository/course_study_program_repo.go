package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/models"
)

// SQLiteCourseStudyProgramRepository implements CourseStudyProgramRepository.
type SQLiteCourseStudyProgramRepository struct {
	db *sql.DB
}

// NewSQLiteCourseStudyProgramRepository creates a new course/study-program link repository.
func NewSQLiteCourseStudyProgramRepository(db *sql.DB) *SQLiteCourseStudyProgramRepository {
	return &SQLiteCourseStudyProgramRepository{db: db}
}

func (r *SQLiteCourseStudyProgramRepository) Exists(ctx context.Context, courseID, studyProgramID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM course_study_programs WHERE course_id = ? AND study_program_id = ? LIMIT 1`,
		courseID, studyProgramID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *SQLiteCourseStudyProgramRepository) Create(ctx context.Context, link *models.CourseStudyProgram) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO course_study_programs (course_id, study_program_id, fach_semester) VALUES (?, ?, ?)`,
		link.CourseID, link.StudyProgramID, nullInt(link.FachSemester),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUniqueViolation
		}
		return fmt.Errorf("create course study program link (course=%d, program=%d): %w", link.CourseID, link.StudyProgramID, err)
	}
	id, _ := res.LastInsertId()
	link.ID = id
	return nil
}
