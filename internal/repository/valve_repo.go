package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"valve_control/internal/models"
)

type ValveSQLite struct {
	db *sql.DB
}

func NewValveSQLite(db *sql.DB) *ValveSQLite {
	return &ValveSQLite{db: db}
}

var _ ValveRepo = (*ValveSQLite)(nil)

const (
	insertValveSQL = `
		INSERT INTO valves (number, name, automation_status, valve_status, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(number) DO NOTHING
	`

	selectValveSQL = `
		SELECT number, name, automation_status, valve_status, updated_at
		FROM valves WHERE number = ?
	`

	selectValvesSQL = `
		SELECT number, name, automation_status, valve_status, updated_at
		FROM valves ORDER BY number ASC
	`

	// schedules come back Monday first, matching models.Week
	selectEntriesByValveSQL = `
		SELECT valve_number, day, begin_s, end_s
		FROM schedule_entries WHERE valve_number = ?
		ORDER BY (day + 6) % 7, begin_s, end_s
	`

	selectAllEntriesSQL = `
		SELECT valve_number, day, begin_s, end_s
		FROM schedule_entries
		ORDER BY valve_number, (day + 6) % 7, begin_s, end_s
	`

	updateValveStatusSQL = `
		UPDATE valves SET automation_status = ?, valve_status = ?, updated_at = ?
		WHERE number = ?
	`

	setValveStatusSQL = `
		UPDATE valves SET valve_status = ?, updated_at = ?
		WHERE number = ? AND automation_status = ?
	`

	deleteValveSQL = `DELETE FROM valves WHERE number = ?`
)

// utcOrNow persists timestamps as UTC and fills zero values.
func utcOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// Create inserts v without its schedule. ErrDuplicate if the number is taken.
func (r *ValveSQLite) Create(ctx context.Context, v models.Valve) error {
	res, err := r.db.ExecContext(ctx, insertValveSQL,
		v.Number,
		v.Name,
		string(v.AutomationStatus),
		string(v.ValveStatus),
		utcOrNow(v.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert valve %d: %w", v.Number, err)
	}
	return expectOneRow(res, ErrDuplicate)
}

// Get loads a valve with its schedule.
func (r *ValveSQLite) Get(ctx context.Context, number int) (models.Valve, error) {
	v, err := scanValve(r.db.QueryRowContext(ctx, selectValveSQL, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Valve{}, ErrNotFound
		}
		return models.Valve{}, fmt.Errorf("select valve %d: %w", number, err)
	}

	rows, err := r.db.QueryContext(ctx, selectEntriesByValveSQL, number)
	if err != nil {
		return models.Valve{}, fmt.Errorf("select schedule of valve %d: %w", number, err)
	}
	byValve, err := scanEntries(rows)
	if err != nil {
		return models.Valve{}, err
	}
	v.Schedule = append(v.Schedule, byValve[number]...)
	return v, nil
}

// List returns all valves ordered by number, schedules included.
func (r *ValveSQLite) List(ctx context.Context) ([]models.Valve, error) {
	rows, err := r.db.QueryContext(ctx, selectValvesSQL)
	if err != nil {
		return nil, fmt.Errorf("select valves: %w", err)
	}
	out := make([]models.Valve, 0, 8)
	for rows.Next() {
		v, err := scanValve(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan valve: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	entryRows, err := r.db.QueryContext(ctx, selectAllEntriesSQL)
	if err != nil {
		return nil, fmt.Errorf("select schedules: %w", err)
	}
	byValve, err := scanEntries(entryRows)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Schedule = append(out[i].Schedule, byValve[out[i].Number]...)
	}
	return out, nil
}

// UpdateStatus stores both statuses of a valve.
func (r *ValveSQLite) UpdateStatus(ctx context.Context, number int, auto models.AutomationStatus, st models.ValveStatus, at time.Time) error {
	res, err := r.db.ExecContext(ctx, updateValveStatusSQL, string(auto), string(st), utcOrNow(at), number)
	if err != nil {
		return fmt.Errorf("update valve %d: %w", number, err)
	}
	return expectOneRow(res, ErrNotFound)
}

// SetValveStatus stores st only while the valve still has the automation
// status the caller read. ErrStale if it changed or the valve is gone.
func (r *ValveSQLite) SetValveStatus(ctx context.Context, number int, expect models.AutomationStatus, st models.ValveStatus, at time.Time) error {
	res, err := r.db.ExecContext(ctx, setValveStatusSQL, string(st), utcOrNow(at), number, string(expect))
	if err != nil {
		return fmt.Errorf("set status of valve %d: %w", number, err)
	}
	return expectOneRow(res, ErrStale)
}

// Delete removes a valve; its schedule goes with it via ON DELETE CASCADE.
func (r *ValveSQLite) Delete(ctx context.Context, number int) error {
	res, err := r.db.ExecContext(ctx, deleteValveSQL, number)
	if err != nil {
		return fmt.Errorf("delete valve %d: %w", number, err)
	}
	return expectOneRow(res, ErrNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanValve(row rowScanner) (models.Valve, error) {
	var (
		v           models.Valve
		auto, state string
	)
	if err := row.Scan(&v.Number, &v.Name, &auto, &state, &v.UpdatedAt); err != nil {
		return models.Valve{}, err
	}
	v.AutomationStatus = models.AutomationStatus(auto)
	v.ValveStatus = models.ValveStatus(state)
	v.UpdatedAt = v.UpdatedAt.UTC()
	v.Schedule = []models.ScheduleEntry{}
	return v, nil
}

// scanEntries drains rows into per-valve schedules and closes them.
func scanEntries(rows *sql.Rows) (map[int][]models.ScheduleEntry, error) {
	defer rows.Close()
	out := make(map[int][]models.ScheduleEntry)
	for rows.Next() {
		var number, day, begin, end int
		if err := rows.Scan(&number, &day, &begin, &end); err != nil {
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}
		out[number] = append(out[number], models.ScheduleEntry{
			Day:   models.Weekday(day),
			Begin: models.ClockTime(begin),
			End:   models.ClockTime(end),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// expectOneRow maps "nothing affected" to errNone.
func expectOneRow(res sql.Result, errNone error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return errNone
	}
	return nil
}
