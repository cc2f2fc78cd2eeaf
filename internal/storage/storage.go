package storage

import (
	"context"

	"github.com/torc-dev/torc/internal/model"
)

// TaskRepository is the interface for task and stage log persistence.
// Stage entries are append-only: the repository assigns increasing sequence
// numbers per task and never edits or deletes entries.
type TaskRepository interface {
	CreateTask(ctx context.Context, t model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context) ([]model.Task, error)
	// ListActiveTasks returns all tasks not in a terminal status.
	ListActiveTasks(ctx context.Context) ([]model.Task, error)
	UpdateTask(ctx context.Context, t model.Task) error
	AppendStageEntry(ctx context.Context, e model.StageEntry) error
	ListStageEntries(ctx context.Context, taskID string) ([]model.StageEntry, error)
}

// LeaseRepository is the interface for port lease persistence. InsertLease is
// the atomic lease-or-fail primitive: it returns model.ErrAlreadyExists when
// the port is already leased, whoever the holder is.
type LeaseRepository interface {
	InsertLease(ctx context.Context, l model.PortLease) error
	ListLeases(ctx context.Context) ([]model.PortLease, error)
	ListTaskLeases(ctx context.Context, taskID string) ([]model.PortLease, error)
	DeleteLease(ctx context.Context, port int) error
}

// DispatchRepository is the interface for command ledger persistence.
// InsertDispatch is the atomic dispatch-or-already-dispatched primitive: it
// returns model.ErrAlreadyExists when the key is already present.
type DispatchRepository interface {
	InsertDispatch(ctx context.Context, r model.DispatchRecord) error
	GetDispatch(ctx context.Context, key model.DispatchKey) (*model.DispatchRecord, error)
	UpdateDispatch(ctx context.Context, r model.DispatchRecord) error
	DeleteDispatch(ctx context.Context, key model.DispatchKey) error
	ListTaskDispatches(ctx context.Context, taskID string) ([]model.DispatchRecord, error)
}

// Repository is the full orchestrator persistence surface.
type Repository interface {
	TaskRepository
	LeaseRepository
	DispatchRepository
}
