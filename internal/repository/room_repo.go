package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/models"
)

// SQLiteRoomRepository implements RoomRepository.
type SQLiteRoomRepository struct {
	db *sql.DB
}

// NewSQLiteRoomRepository creates a new room repository.
func NewSQLiteRoomRepository(db *sql.DB) *SQLiteRoomRepository {
	return &SQLiteRoomRepository{db: db}
}

func (r *SQLiteRoomRepository) GetByCode(ctx context.Context, code string) (*models.Room, error) {
	var room models.Room
	var capacity sql.NullInt64
	var active int
	err := r.db.QueryRowContext(ctx,
		`SELECT id, code, building, room_number, capacity, room_type, equipment, active
		 FROM rooms WHERE code = ? COLLATE NOCASE`, code).
		Scan(&room.ID, &room.Code, &room.Building, &room.RoomNumber, &capacity, &room.RoomType, &room.Equipment, &active)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	room.Capacity = ptrFromNullInt(capacity)
	room.Active = active != 0
	return &room, nil
}

func (r *SQLiteRoomRepository) Create(ctx context.Context, room *models.Room) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (code, building, room_number, capacity, room_type, equipment, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		room.Code, room.Building, room.RoomNumber, nullInt(room.Capacity), room.RoomType, room.Equipment, boolToInt(room.Active),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUniqueViolation
		}
		return fmt.Errorf("create room %q: %w", room.Code, err)
	}
	id, _ := res.LastInsertId()
	room.ID = id
	return nil
}
