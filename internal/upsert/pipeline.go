// Package upsert implements the per-row get-or-create pipeline: resolving
// or creating course type, lecturer, room and course rows, linking the
// study program, and upserting the schedule entry. Each repository write
// commits on its own; the writes of one row are not wrapped in a shared
// transaction.
package upsert

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/changelog"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/htmlparse"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/models"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/repository"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/sanitize"
)

// Stats accumulates per-program totals, aggregated by the caller under its
// own mutex (spec §4.5 step (d)).
type Stats struct {
	TotalEntries   int
	NewEntries     int
	UpdatedEntries int
}

// Pipeline resolves one parsed schedule row into persisted rows and
// emits change-log entries via its changelog.Tracker.
type Pipeline struct {
	repos   *repository.Repositories
	tracker *changelog.Tracker
	logger  *slog.Logger
}

// New builds a Pipeline over the given repositories and change tracker.
func New(repos *repository.Repositories, tracker *changelog.Tracker, logger *slog.Logger) *Pipeline {
	return &Pipeline{repos: repos, tracker: tracker, logger: logger}
}

// Input bundles one parsed schedule row with the context it was found in.
type Input struct {
	Row            htmlparse.ScheduleRow
	SemesterID     int64
	StudyProgramID int64 // 0 if the program could not be resolved
	RunID          string
}

// Apply runs the full upsert sequence for one row, returning the stats
// delta this row contributed.
func (p *Pipeline) Apply(ctx context.Context, in Input) (Stats, error) {
	courseType, err := p.resolveCourseType(ctx, in.Row.CourseType, in.RunID, in.SemesterID)
	if err != nil {
		return Stats{}, fmt.Errorf("resolve course type: %w", err)
	}

	lecturer, err := p.resolveLecturer(ctx, in.Row.Lecturer, in.RunID, in.SemesterID)
	if err != nil {
		return Stats{}, fmt.Errorf("resolve lecturer: %w", err)
	}

	room, err := p.resolveRoom(ctx, in.Row.RoomCode, in.RunID, in.SemesterID)
	if err != nil {
		return Stats{}, fmt.Errorf("resolve room: %w", err)
	}

	course, _, err := p.resolveCourse(ctx, in, courseType.ID, lecturer.ID)
	if err != nil {
		return Stats{}, fmt.Errorf("resolve course: %w", err)
	}

	if in.StudyProgramID != 0 {
		if err := p.linkStudyProgram(ctx, course.ID, in.StudyProgramID, in.Row.FachSemester); err != nil {
			return Stats{}, fmt.Errorf("link study program: %w", err)
		}
	}

	stats := Stats{TotalEntries: 1}

	entryCreated, entryUpdated, err := p.upsertScheduleEntry(ctx, course, room, in)
	if err != nil {
		return Stats{}, fmt.Errorf("upsert schedule entry: %w", err)
	}
	if entryCreated {
		stats.NewEntries++
	}
	if entryUpdated {
		stats.UpdatedEntries++
	}

	return stats, nil
}

// resolveCourseType looks up (or creates) a CourseType by its normalized
// single-character code, defaulting to the first character of the raw cell.
func (p *Pipeline) resolveCourseType(ctx context.Context, raw, runID string, semesterID int64) (*models.CourseType, error) {
	code := normalizeCourseTypeCode(raw)
	ct, err := p.repos.CourseType.GetByCode(ctx, code)
	if err == nil {
		return ct, nil
	}
	if err != repository.ErrNotFound {
		return nil, err
	}

	ct = &models.CourseType{Code: code, Name: code}
	if createErr := p.repos.CourseType.Create(ctx, ct); createErr != nil {
		if createErr == repository.ErrUniqueViolation {
			return p.repos.CourseType.GetByCode(ctx, code)
		}
		return nil, createErr
	}
	p.tracker.LogCreated(ctx, runID, "CourseType", ct.ID, fmt.Sprintf("CREATED CourseType %s", code))
	return ct, nil
}

func normalizeCourseTypeCode(raw string) string {
	trimmed := strings.TrimSpace(raw)
	for _, known := range []string{"V", "Ü", "S", "P", "B"} {
		if strings.EqualFold(trimmed, known) {
			return known
		}
	}
	if trimmed == "" {
		return "?"
	}
	r := []rune(trimmed)
	return string(r[0])
}

// resolveLecturer looks up by email if one was extracted, else by
// case-insensitive name fragment; creates on miss, fills blanks on hit.
func (p *Pipeline) resolveLecturer(ctx context.Context, raw, runID string, semesterID int64) (*models.Lecturer, error) {
	identity := sanitize.ParseLecturer(raw)

	var existing *models.Lecturer
	var err error
	if identity.Email != "" {
		existing, err = p.repos.Lecturer.GetByEmail(ctx, identity.Email)
	} else {
		existing, err = p.repos.Lecturer.FindByNameContains(ctx, identity.Name)
	}
	if err != nil && err != repository.ErrNotFound {
		return nil, err
	}

	if existing != nil {
		changed := false
		if existing.Title == nil && identity.Title != "" {
			existing.Title = &identity.Title
			changed = true
		}
		if existing.Email == nil && identity.Email != "" {
			existing.Email = &identity.Email
			changed = true
		}
		if changed {
			if err := p.repos.Lecturer.Update(ctx, existing); err != nil {
				return nil, err
			}
		}
		p.logSanitizerNote(ctx, runID, identity, "Lecturer")
		return existing, nil
	}

	l := &models.Lecturer{Name: identity.Name}
	if identity.Title != "" {
		l.Title = &identity.Title
	}
	if identity.Email != "" {
		l.Email = &identity.Email
	}
	if err := p.repos.Lecturer.Create(ctx, l); err != nil {
		return nil, err
	}
	p.tracker.LogCreated(ctx, runID, "Lecturer", l.ID, fmt.Sprintf("CREATED Lecturer %s", l.Name))
	p.logSanitizerNote(ctx, runID, identity, "Lecturer")
	return l, nil
}

func (p *Pipeline) logSanitizerNote(ctx context.Context, runID string, identity sanitize.LecturerIdentity, entity string) {
	if !identity.Modified && !identity.Truncated {
		return
	}
	note := fmt.Sprintf("%s sanitized: name=%q truncated=%v", entity, identity.Name, identity.Truncated)
	if len(note) > 140 {
		note = note[:140]
	}
	p.logger.Info(note, "run_id", runID)
}

// resolveRoom looks up by code, else creates from a parsed
// building/number split.
func (p *Pipeline) resolveRoom(ctx context.Context, code, runID string, semesterID int64) (*models.Room, error) {
	room, err := p.repos.Room.GetByCode(ctx, code)
	if err == nil {
		return room, nil
	}
	if err != repository.ErrNotFound {
		return nil, err
	}

	building, number := splitRoomCode(code)
	room = &models.Room{Code: code, Building: building, RoomNumber: number, Active: true}
	if createErr := p.repos.Room.Create(ctx, room); createErr != nil {
		if createErr == repository.ErrUniqueViolation {
			return p.repos.Room.GetByCode(ctx, code)
		}
		return nil, createErr
	}
	p.tracker.LogCreated(ctx, runID, "Room", room.ID, fmt.Sprintf("CREATED Room %s", code))
	return room, nil
}

// splitRoomCode parses a room code on the first delimiter in /,-, space, _
// into (building, number); falls back to (code, code) if none is found.
func splitRoomCode(code string) (building, number string) {
	for _, delim := range []string{"/", "-", " ", "_"} {
		if idx := strings.Index(code, delim); idx >= 0 {
			return code[:idx], code[idx+1:]
		}
	}
	return code, code
}

// resolveCourse finds the active course by case-insensitive name within the
// semester, or creates it; either way reloads it with its schedule-entry
// collection so the caller's duplicate checks see this scrape's own writes.
func (p *Pipeline) resolveCourse(ctx context.Context, in Input, courseTypeID, lecturerID int64) (*models.Course, bool, error) {
	existing, err := p.repos.Course.FindActiveByNameCI(ctx, in.SemesterID, in.Row.CourseTitle)
	if err != nil && err != repository.ErrNotFound {
		return nil, false, err
	}

	if existing != nil {
		changed := false
		if existing.LecturerID != lecturerID {
			existing.LecturerID = lecturerID
			changed = true
		}
		if existing.CourseTypeID != courseTypeID {
			existing.CourseTypeID = courseTypeID
			changed = true
		}
		if changed {
			if err := p.repos.Course.Update(ctx, existing); err != nil {
				return nil, false, err
			}
		}
		reloaded, err := p.repos.Course.LoadWithScheduleEntries(ctx, existing.ID)
		if err != nil {
			return nil, false, err
		}
		return reloaded, false, nil
	}

	course := &models.Course{
		Name:         in.Row.CourseTitle,
		SemesterID:   in.SemesterID,
		LecturerID:   lecturerID,
		CourseTypeID: courseTypeID,
		Active:       true,
	}
	if err := p.repos.Course.Create(ctx, course); err != nil {
		if err == repository.ErrUniqueViolation {
			// C1 race: another worker won; re-run the lookup and join it.
			winner, findErr := p.repos.Course.FindActiveByNameCI(ctx, in.SemesterID, in.Row.CourseTitle)
			if findErr != nil {
				return nil, false, findErr
			}
			reloaded, loadErr := p.repos.Course.LoadWithScheduleEntries(ctx, winner.ID)
			return reloaded, false, loadErr
		}
		return nil, false, err
	}
	p.tracker.LogCreated(ctx, in.RunID, "Course", course.ID, fmt.Sprintf("CREATED Course %s", course.Name))

	reloaded, err := p.repos.Course.LoadWithScheduleEntries(ctx, course.ID)
	return reloaded, true, err
}

// linkStudyProgram links the course to the already-resolved study program
// id if the two are not linked yet.
func (p *Pipeline) linkStudyProgram(ctx context.Context, courseID, studyProgramID int64, fachSemesterRaw string) error {
	exists, err := p.repos.CourseLink.Exists(ctx, courseID, studyProgramID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	link := &models.CourseStudyProgram{CourseID: courseID, StudyProgramID: studyProgramID}
	if n, ok := parseFachSemester(fachSemesterRaw); ok {
		link.FachSemester = &n
	}
	if err := p.repos.CourseLink.Create(ctx, link); err != nil && err != repository.ErrUniqueViolation {
		return err
	}
	return nil
}

// parseFachSemester extracts the leading integer from strings like
// "3.Semester".
func parseFachSemester(raw string) (int, bool) {
	trimmed := strings.TrimSpace(raw)
	end := 0
	for end < len(trimmed) && trimmed[end] >= '0' && trimmed[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(trimmed[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// upsertScheduleEntry finds a matching active entry by (day, start, end,
// room code ci) within the course's already-loaded collection; updates
// changed fields or creates a new entry.
func (p *Pipeline) upsertScheduleEntry(ctx context.Context, course *models.Course, room *models.Room, in Input) (created, updated bool, err error) {
	notes := computeNotes(in.Row)

	for i := range course.ScheduleEntries {
		e := &course.ScheduleEntries[i]
		if !e.Active || e.DayOfWeek != in.Row.DayOfWeek || e.StartTime != in.Row.StartTime || e.EndTime != in.Row.EndTime {
			continue
		}
		if !strings.EqualFold(e.RoomCode, room.Code) {
			continue
		}

		changed := false
		if !equalOptionalString(e.WeekPattern, in.Row.WeekPattern) {
			p.tracker.LogUpdated(ctx, in.RunID, "ScheduleEntry", e.ID, "weekPattern", derefOrEmpty(e.WeekPattern), in.Row.WeekPattern)
			e.WeekPattern = nonEmptyPtr(in.Row.WeekPattern)
			changed = true
		}
		if !equalOptionalString(e.Notes, notes) {
			p.tracker.LogUpdated(ctx, in.RunID, "ScheduleEntry", e.ID, "notes", derefOrEmpty(e.Notes), notes)
			e.Notes = nonEmptyPtr(notes)
			changed = true
		}
		if e.RoomID != room.ID {
			e.RoomID = room.ID
			e.RoomCode = room.Code
			changed = true
		}

		if changed {
			if err := p.repos.Schedule.Update(ctx, e); err != nil {
				return false, false, err
			}
		}
		return false, changed, nil
	}

	entry := &models.ScheduleEntry{
		CourseID:  course.ID,
		RoomID:    room.ID,
		RoomCode:  room.Code,
		DayOfWeek: in.Row.DayOfWeek,
		StartTime: in.Row.StartTime,
		EndTime:   in.Row.EndTime,
		Active:    true,
	}
	entry.WeekPattern = nonEmptyPtr(in.Row.WeekPattern)
	entry.Notes = nonEmptyPtr(notes)

	if err := p.repos.Schedule.Create(ctx, entry); err != nil {
		return false, false, err
	}
	p.tracker.LogCreated(ctx, in.RunID, "ScheduleEntry", entry.ID, "CREATED ScheduleEntry")
	return true, false, nil
}

// computeNotes joins the non-blank category, group, fach-semester and
// info-id hints with " | ", exactly as the notes field is displayed.
func computeNotes(row htmlparse.ScheduleRow) string {
	var parts []string
	for _, v := range []string{row.Category, row.Group, row.FachSemester} {
		if strings.TrimSpace(v) != "" {
			parts = append(parts, v)
		}
	}
	if row.InfoID != "" {
		parts = append(parts, "Info "+row.InfoID)
	}
	return strings.Join(parts, " | ")
}

func equalOptionalString(existing *string, next string) bool {
	if existing == nil {
		return next == ""
	}
	return *existing == next
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonEmptyPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
