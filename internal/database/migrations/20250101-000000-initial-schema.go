package migrations

func init() {
	Register(Migration{
		Timestamp:   "20250101-000000",
		Description: "Initial schema",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS semesters (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT UNIQUE NOT NULL,
				short_code TEXT UNIQUE NOT NULL,
				start_date TEXT NOT NULL,
				end_date TEXT NOT NULL,
				active INTEGER NOT NULL DEFAULT 1
			)`,

			`CREATE TABLE IF NOT EXISTS study_programs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				code TEXT UNIQUE NOT NULL,
				display_name TEXT NOT NULL,
				degree TEXT NOT NULL,
				faculty_id INTEGER,
				active INTEGER NOT NULL DEFAULT 1
			)`,

			`CREATE TABLE IF NOT EXISTS course_types (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				code TEXT UNIQUE NOT NULL,
				name TEXT NOT NULL
			)`,

			// Lecturers are matched case-insensitively by email, and (as a
			// fallback) by case-insensitive name-contains, so a plain index
			// on lower(email) speeds the common path without forcing
			// uniqueness (several rows may legitimately lack an email).
			`CREATE TABLE IF NOT EXISTS lecturers (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				title TEXT,
				email TEXT,
				email_lower TEXT GENERATED ALWAYS AS (lower(email)) STORED
			)`,
			`CREATE INDEX IF NOT EXISTS idx_lecturers_email_lower ON lecturers(email_lower)`,

			`CREATE TABLE IF NOT EXISTS rooms (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				code TEXT UNIQUE NOT NULL,
				building TEXT NOT NULL,
				room_number TEXT NOT NULL,
				capacity INTEGER,
				room_type TEXT NOT NULL DEFAULT '',
				equipment TEXT NOT NULL DEFAULT '',
				active INTEGER NOT NULL DEFAULT 1
			)`,

			// C1: at most one active course per case-insensitive name within a
			// semester. libsql/SQLite has no functional index, so the
			// lower(name) projection is persisted as a generated column and a
			// plain partial unique index enforces the invariant.
			`CREATE TABLE IF NOT EXISTS courses (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				name_lower TEXT GENERATED ALWAYS AS (lower(name)) STORED,
				course_number TEXT,
				semester_id INTEGER NOT NULL REFERENCES semesters(id),
				lecturer_id INTEGER NOT NULL REFERENCES lecturers(id),
				course_type_id INTEGER NOT NULL REFERENCES course_types(id),
				sws INTEGER,
				ects INTEGER,
				active INTEGER NOT NULL DEFAULT 1
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS ux_courses_semester_lower_name
				ON courses(semester_id, name_lower) WHERE active`,

			`CREATE TABLE IF NOT EXISTS course_study_programs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				course_id INTEGER NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
				study_program_id INTEGER NOT NULL REFERENCES study_programs(id),
				fach_semester INTEGER
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS ux_csp_course_program
				ON course_study_programs(course_id, study_program_id)`,

			// Identity for upsert: (course, room.code case-insensitive, day, start, end).
			`CREATE TABLE IF NOT EXISTS schedule_entries (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				course_id INTEGER NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
				room_id INTEGER NOT NULL REFERENCES rooms(id),
				room_code_lower TEXT GENERATED ALWAYS AS (lower(room_code)) STORED,
				room_code TEXT NOT NULL,
				day_of_week TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT NOT NULL,
				week_pattern TEXT,
				notes TEXT,
				active INTEGER NOT NULL DEFAULT 1
			)`,
			`CREATE INDEX IF NOT EXISTS idx_schedule_entries_course ON schedule_entries(course_id)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS ux_schedule_entry_identity
				ON schedule_entries(course_id, room_code_lower, day_of_week, start_time, end_time) WHERE active`,

			`CREATE TABLE IF NOT EXISTS scraping_runs (
				id TEXT PRIMARY KEY,
				semester_id INTEGER NOT NULL REFERENCES semesters(id),
				start_time TEXT NOT NULL,
				end_time TEXT,
				status TEXT NOT NULL,
				total_entries INTEGER,
				new_entries INTEGER,
				updated_entries INTEGER,
				error_message TEXT,
				source_url TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX IF NOT EXISTS idx_scraping_runs_semester ON scraping_runs(semester_id)`,

			`CREATE TABLE IF NOT EXISTS change_logs (
				id TEXT PRIMARY KEY,
				scraping_run_id TEXT NOT NULL REFERENCES scraping_runs(id) ON DELETE CASCADE,
				entity_type TEXT NOT NULL,
				entity_id INTEGER NOT NULL,
				change_type TEXT NOT NULL,
				field_name TEXT,
				old_value TEXT,
				new_value TEXT,
				description TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX IF NOT EXISTS idx_change_logs_run ON change_logs(scraping_run_id)`,
		},
	})
}
