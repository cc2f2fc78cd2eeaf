package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/torc-dev/torc/internal/model"
)

// InsertDispatch atomically records a command dispatch. Returns
// model.ErrAlreadyExists when the key is already present, relying on the
// primary key constraint.
func (r *Repository) InsertDispatch(ctx context.Context, rec model.DispatchRecord) error {
	query := `
		INSERT INTO dispatches (task_id, status, command, result, detail, dispatched_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.Key.TaskID, rec.Key.Status, rec.Key.Command,
		rec.Result, rec.Detail, rec.DispatchedAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: dispatches.") {
			return fmt.Errorf("dispatch %s/%s/%s: %w", rec.Key.TaskID, rec.Key.Status, rec.Key.Command, model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert dispatch: %w", err)
	}

	return nil
}

// GetDispatch retrieves a dispatch record by key.
func (r *Repository) GetDispatch(ctx context.Context, key model.DispatchKey) (*model.DispatchRecord, error) {
	query := `
		SELECT task_id, status, command, result, detail, dispatched_at
		FROM dispatches
		WHERE task_id = ? AND status = ? AND command = ?
	`

	var rec model.DispatchRecord
	var dispatchedAt int64
	err := r.db.QueryRowContext(ctx, query, key.TaskID, key.Status, key.Command).Scan(
		&rec.Key.TaskID, &rec.Key.Status, &rec.Key.Command,
		&rec.Result, &rec.Detail, &dispatchedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("dispatch %s/%s/%s: %w", key.TaskID, key.Status, key.Command, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query dispatch: %w", err)
	}
	rec.DispatchedAt = time.Unix(dispatchedAt, 0).UTC()

	return &rec, nil
}

// UpdateDispatch updates an existing dispatch record.
func (r *Repository) UpdateDispatch(ctx context.Context, rec model.DispatchRecord) error {
	query := `UPDATE dispatches SET result = ?, detail = ? WHERE task_id = ? AND status = ? AND command = ?`

	result, err := r.db.ExecContext(ctx, query, rec.Result, rec.Detail, rec.Key.TaskID, rec.Key.Status, rec.Key.Command)
	if err != nil {
		return fmt.Errorf("could not update dispatch: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("dispatch %s/%s/%s: %w", rec.Key.TaskID, rec.Key.Status, rec.Key.Command, model.ErrNotFound)
	}

	return nil
}

// DeleteDispatch removes a dispatch record.
func (r *Repository) DeleteDispatch(ctx context.Context, key model.DispatchKey) error {
	query := `DELETE FROM dispatches WHERE task_id = ? AND status = ? AND command = ?`

	result, err := r.db.ExecContext(ctx, query, key.TaskID, key.Status, key.Command)
	if err != nil {
		return fmt.Errorf("could not delete dispatch: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("dispatch %s/%s/%s: %w", key.TaskID, key.Status, key.Command, model.ErrNotFound)
	}

	return nil
}

// ListTaskDispatches returns all dispatch records for a task.
func (r *Repository) ListTaskDispatches(ctx context.Context, taskID string) ([]model.DispatchRecord, error) {
	query := `
		SELECT task_id, status, command, result, detail, dispatched_at
		FROM dispatches
		WHERE task_id = ?
		ORDER BY dispatched_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("could not query dispatches: %w", err)
	}
	defer rows.Close()

	records := []model.DispatchRecord{}
	for rows.Next() {
		var rec model.DispatchRecord
		var dispatchedAt int64
		if err := rows.Scan(
			&rec.Key.TaskID, &rec.Key.Status, &rec.Key.Command,
			&rec.Result, &rec.Detail, &dispatchedAt,
		); err != nil {
			return nil, fmt.Errorf("could not scan dispatch: %w", err)
		}
		rec.DispatchedAt = time.Unix(dispatchedAt, 0).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate dispatches: %w", err)
	}

	return records, nil
}
