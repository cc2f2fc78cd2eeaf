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

const taskColumns = `
	id, name, status, profile, mode, workspace_ref,
	frontend_url, backend_url, blockers,
	repo_path,
	frontend_image, frontend_port_from, frontend_port_to,
	backend_image, backend_port_from, backend_port_to,
	created_at, updated_at
`

// CreateTask creates a new task in the repository.
func (r *Repository) CreateTask(ctx context.Context, t model.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var frontendURL, backendURL string
	if t.Endpoints != nil {
		frontendURL = t.Endpoints.FrontendURL
		backendURL = t.Endpoints.BackendURL
	}

	_, err := r.db.ExecContext(
		ctx,
		query,
		t.ID,
		t.Name,
		t.Status,
		t.Profile,
		t.Mode,
		t.WorkspaceRef,
		frontendURL,
		backendURL,
		t.Blockers,
		t.Config.RepoPath,
		t.Config.Verification.Frontend.Image,
		t.Config.Verification.Frontend.PortRange.From,
		t.Config.Verification.Frontend.PortRange.To,
		t.Config.Verification.Backend.Image,
		t.Config.Verification.Backend.PortRange.From,
		t.Config.Verification.Backend.PortRange.To,
		t.CreatedAt.Unix(),
		t.UpdatedAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: tasks.") {
			return fmt.Errorf("task already exists: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert task: %w", err)
	}

	r.logger.Debugf("Created task in repository: %s", t.ID)
	return nil
}

// GetTask retrieves a task by ID.
func (r *Repository) GetTask(ctx context.Context, id string) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	task, err := r.scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query task: %w", err)
	}

	return task, nil
}

// ListTasks returns all tasks.
func (r *Repository) ListTasks(ctx context.Context) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at ASC, id ASC`
	return r.queryTasks(ctx, query)
}

// ListActiveTasks returns all tasks not in a terminal status.
func (r *Repository) ListActiveTasks(ctx context.Context) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE status != ? ORDER BY created_at ASC, id ASC`
	return r.queryTasks(ctx, query, model.StatusComplete)
}

// UpdateTask updates an existing task.
func (r *Repository) UpdateTask(ctx context.Context, t model.Task) error {
	query := `
		UPDATE tasks SET
			status = ?, workspace_ref = ?,
			frontend_url = ?, backend_url = ?, blockers = ?,
			updated_at = ?
		WHERE id = ?
	`

	var frontendURL, backendURL string
	if t.Endpoints != nil {
		frontendURL = t.Endpoints.FrontendURL
		backendURL = t.Endpoints.BackendURL
	}

	result, err := r.db.ExecContext(
		ctx,
		query,
		t.Status,
		t.WorkspaceRef,
		frontendURL,
		backendURL,
		t.Blockers,
		t.UpdatedAt.Unix(),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("could not update task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %s: %w", t.ID, model.ErrNotFound)
	}

	r.logger.Debugf("Updated task in repository: %s", t.ID)
	return nil
}

// AppendStageEntry appends a stage entry assigning the next sequence number
// for the task.
func (r *Repository) AppendStageEntry(ctx context.Context, e model.StageEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE id = ?`, e.TaskID).Scan(&exists); err != nil {
		return fmt.Errorf("could not check task: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("task %s: %w", e.TaskID, model.ErrNotFound)
	}

	var maxSeq int
	query := `SELECT COALESCE(MAX(seq), 0) FROM stage_entries WHERE task_id = ?`
	if err := tx.QueryRowContext(ctx, query, e.TaskID).Scan(&maxSeq); err != nil {
		return fmt.Errorf("could not get max sequence: %w", err)
	}

	insertQuery := `
		INSERT INTO stage_entries (task_id, seq, status, summary, details, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, insertQuery, e.TaskID, maxSeq+1, e.Status, e.Summary, e.Details, e.Timestamp.Unix())
	if err != nil {
		return fmt.Errorf("could not insert stage entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// ListStageEntries returns the task's stage entries in append order.
func (r *Repository) ListStageEntries(ctx context.Context, taskID string) ([]model.StageEntry, error) {
	query := `
		SELECT task_id, seq, status, summary, details, timestamp
		FROM stage_entries
		WHERE task_id = ?
		ORDER BY seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("could not query stage entries: %w", err)
	}
	defer rows.Close()

	entries := []model.StageEntry{}
	for rows.Next() {
		var e model.StageEntry
		var ts int64
		if err := rows.Scan(&e.TaskID, &e.Seq, &e.Status, &e.Summary, &e.Details, &ts); err != nil {
			return nil, fmt.Errorf("could not scan stage entry: %w", err)
		}
		e.Timestamp = time.Unix(ts, 0).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate stage entries: %w", err)
	}

	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanTask(row rowScanner) (*model.Task, error) {
	var t model.Task
	var frontendURL, backendURL string
	var createdAt, updatedAt int64

	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Status,
		&t.Profile,
		&t.Mode,
		&t.WorkspaceRef,
		&frontendURL,
		&backendURL,
		&t.Blockers,
		&t.Config.RepoPath,
		&t.Config.Verification.Frontend.Image,
		&t.Config.Verification.Frontend.PortRange.From,
		&t.Config.Verification.Frontend.PortRange.To,
		&t.Config.Verification.Backend.Image,
		&t.Config.Verification.Backend.PortRange.From,
		&t.Config.Verification.Backend.PortRange.To,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Config.Name = t.Name
	t.Config.Profile = t.Profile
	t.Config.Mode = t.Mode
	if frontendURL != "" || backendURL != "" {
		t.Endpoints = &model.Endpoints{FrontendURL: frontendURL, BackendURL: backendURL}
	}
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	t.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &t, nil
}

func (r *Repository) queryTasks(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := r.scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate tasks: %w", err)
	}

	return tasks, nil
}
