package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/torc-dev/torc/internal/model"
)

// InsertLease atomically claims a port. Returns model.ErrAlreadyExists when
// the port is already leased, relying on the primary key constraint.
func (r *Repository) InsertLease(ctx context.Context, l model.PortLease) error {
	query := `INSERT INTO port_leases (port, task_id, role, leased_at) VALUES (?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, l.Port, l.TaskID, l.Role, l.LeasedAt.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: port_leases.") {
			return fmt.Errorf("port %d already leased: %w", l.Port, model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert lease: %w", err)
	}

	r.logger.Debugf("Leased port %d to task %s (%s)", l.Port, l.TaskID, l.Role)
	return nil
}

// ListLeases returns all leases.
func (r *Repository) ListLeases(ctx context.Context) ([]model.PortLease, error) {
	query := `SELECT port, task_id, role, leased_at FROM port_leases ORDER BY port ASC`
	return r.queryLeases(ctx, query)
}

// ListTaskLeases returns the leases held by a task.
func (r *Repository) ListTaskLeases(ctx context.Context, taskID string) ([]model.PortLease, error) {
	query := `SELECT port, task_id, role, leased_at FROM port_leases WHERE task_id = ? ORDER BY port ASC`
	return r.queryLeases(ctx, query, taskID)
}

// DeleteLease releases a port lease.
func (r *Repository) DeleteLease(ctx context.Context, port int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM port_leases WHERE port = ?`, port)
	if err != nil {
		return fmt.Errorf("could not delete lease: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("lease for port %d: %w", port, model.ErrNotFound)
	}

	r.logger.Debugf("Released lease for port %d", port)
	return nil
}

func (r *Repository) queryLeases(ctx context.Context, query string, args ...any) ([]model.PortLease, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query leases: %w", err)
	}
	defer rows.Close()

	leases := []model.PortLease{}
	for rows.Next() {
		var l model.PortLease
		var leasedAt int64
		if err := rows.Scan(&l.Port, &l.TaskID, &l.Role, &leasedAt); err != nil {
			return nil, fmt.Errorf("could not scan lease: %w", err)
		}
		l.LeasedAt = time.Unix(leasedAt, 0).UTC()
		leases = append(leases, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate leases: %w", err)
	}

	return leases, nil
}
