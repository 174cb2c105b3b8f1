package repository

import (
	"context"
	"database/sql"
	"fmt"

	"valve_control/internal/models"
)

type ScheduleSQLite struct {
	db *sql.DB
}

func NewScheduleSQLite(db *sql.DB) *ScheduleSQLite {
	return &ScheduleSQLite{db: db}
}

var _ ScheduleRepo = (*ScheduleSQLite)(nil)

const (
	insertEntrySQL = `
		INSERT INTO schedule_entries (valve_number, day, begin_s, end_s)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`

	deleteEntrySQL = `
		DELETE FROM schedule_entries
		WHERE valve_number = ? AND day = ? AND begin_s = ? AND end_s = ?
	`
)

// Add stores an entry. ErrDuplicate if the exact entry already exists.
func (r *ScheduleSQLite) Add(ctx context.Context, number int, e models.ScheduleEntry) error {
	res, err := r.db.ExecContext(ctx, insertEntrySQL, number, int(e.Day), int(e.Begin), int(e.End))
	if err != nil {
		return fmt.Errorf("insert schedule entry for valve %d: %w", number, err)
	}
	return expectOneRow(res, ErrDuplicate)
}

// Remove deletes an entry matching day, begin and end exactly.
func (r *ScheduleSQLite) Remove(ctx context.Context, number int, e models.ScheduleEntry) error {
	res, err := r.db.ExecContext(ctx, deleteEntrySQL, number, int(e.Day), int(e.Begin), int(e.End))
	if err != nil {
		return fmt.Errorf("delete schedule entry for valve %d: %w", number, err)
	}
	return expectOneRow(res, ErrNotFound)
}
