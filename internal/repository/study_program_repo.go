package repository

import (
	"context"
	"database/sql"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/models"
)

// SQLiteStudyProgramRepository implements StudyProgramRepository.
type SQLiteStudyProgramRepository struct {
	db *sql.DB
}

// NewSQLiteStudyProgramRepository creates a new study program repository.
func NewSQLiteStudyProgramRepository(db *sql.DB) *SQLiteStudyProgramRepository {
	return &SQLiteStudyProgramRepository{db: db}
}

func (r *SQLiteStudyProgramRepository) scan(row interface{ Scan(...any) error }) (*models.StudyProgram, error) {
	var p models.StudyProgram
	var degree string
	var facultyID sql.NullInt64
	var active int
	if err := row.Scan(&p.ID, &p.Code, &p.DisplayName, &degree, &facultyID, &active); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Degree = models.DegreeKind(degree)
	p.FacultyID = ptrFromNullInt64(facultyID)
	p.Active = active != 0
	return &p, nil
}

func (r *SQLiteStudyProgramRepository) GetByCode(ctx context.Context, code string) (*models.StudyProgram, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, code, display_name, degree, faculty_id, active FROM study_programs WHERE code = ?`, code)
	return r.scan(row)
}

func (r *SQLiteStudyProgramRepository) FindByNameContains(ctx context.Context, fragment string) (*models.StudyProgram, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, code, display_name, degree, faculty_id, active FROM study_programs
		 WHERE display_name LIKE '%' || ? || '%' COLLATE NOCASE LIMIT 1`, fragment)
	return r.scan(row)
}
