package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/torc-dev/torc/internal/log"
	"github.com/torc-dev/torc/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	tasks      map[string]model.Task
	stages     map[string][]model.StageEntry
	leases     map[int]model.PortLease
	dispatches map[model.DispatchKey]model.DispatchRecord
	mu         sync.RWMutex
	logger     log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		tasks:      make(map[string]model.Task),
		stages:     make(map[string][]model.StageEntry),
		leases:     make(map[int]model.PortLease),
		dispatches: make(map[model.DispatchKey]model.DispatchRecord),
		logger:     cfg.Logger,
	}, nil
}

// CreateTask creates a new task in the repository.
func (r *Repository) CreateTask(ctx context.Context, t model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[t.ID]; ok {
		return fmt.Errorf("task with id %s: %w", t.ID, model.ErrAlreadyExists)
	}

	for _, existing := range r.tasks {
		if existing.Name == t.Name {
			return fmt.Errorf("task with name %s: %w", t.Name, model.ErrAlreadyExists)
		}
	}

	r.tasks[t.ID] = t
	r.logger.Debugf("Created task in repository: %s", t.ID)

	return nil
}

// GetTask retrieves a task by ID.
func (r *Repository) GetTask(ctx context.Context, id string) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}

	// Return a copy.
	taskCopy := task
	return &taskCopy, nil
}

// ListTasks returns all tasks.
func (r *Repository) ListTasks(ctx context.Context) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]model.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })

	return tasks, nil
}

// ListActiveTasks returns all tasks not in a terminal status.
func (r *Repository) ListActiveTasks(ctx context.Context) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]model.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		if task.Status.Terminal() {
			continue
		}
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })

	return tasks, nil
}

// UpdateTask updates an existing task.
func (r *Repository) UpdateTask(ctx context.Context, t model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[t.ID]; !ok {
		return fmt.Errorf("task %s: %w", t.ID, model.ErrNotFound)
	}

	r.tasks[t.ID] = t
	r.logger.Debugf("Updated task in repository: %s", t.ID)

	return nil
}

// AppendStageEntry appends a stage entry assigning the next sequence number
// for the task.
func (r *Repository) AppendStageEntry(ctx context.Context, e model.StageEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[e.TaskID]; !ok {
		return fmt.Errorf("task %s: %w", e.TaskID, model.ErrNotFound)
	}

	e.Seq = len(r.stages[e.TaskID]) + 1
	r.stages[e.TaskID] = append(r.stages[e.TaskID], e)

	return nil
}

// ListStageEntries returns the task's stage entries in append order.
func (r *Repository) ListStageEntries(ctx context.Context, taskID string) ([]model.StageEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]model.StageEntry, len(r.stages[taskID]))
	copy(entries, r.stages[taskID])

	return entries, nil
}

// InsertLease atomically claims a port. Returns model.ErrAlreadyExists when
// the port is already leased.
func (r *Repository) InsertLease(ctx context.Context, l model.PortLease) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.leases[l.Port]; ok {
		return fmt.Errorf("port %d leased to task %s: %w", l.Port, existing.TaskID, model.ErrAlreadyExists)
	}

	r.leases[l.Port] = l
	r.logger.Debugf("Leased port %d to task %s (%s)", l.Port, l.TaskID, l.Role)

	return nil
}

// ListLeases returns all leases.
func (r *Repository) ListLeases(ctx context.Context) ([]model.PortLease, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	leases := make([]model.PortLease, 0, len(r.leases))
	for _, l := range r.leases {
		leases = append(leases, l)
	}
	sort.Slice(leases, func(i, j int) bool { return leases[i].Port < leases[j].Port })

	return leases, nil
}

// ListTaskLeases returns the leases held by a task.
func (r *Repository) ListTaskLeases(ctx context.Context, taskID string) ([]model.PortLease, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	leases := []model.PortLease{}
	for _, l := range r.leases {
		if l.TaskID == taskID {
			leases = append(leases, l)
		}
	}
	sort.Slice(leases, func(i, j int) bool { return leases[i].Port < leases[j].Port })

	return leases, nil
}

// DeleteLease releases a port lease.
func (r *Repository) DeleteLease(ctx context.Context, port int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.leases[port]; !ok {
		return fmt.Errorf("lease for port %d: %w", port, model.ErrNotFound)
	}

	delete(r.leases, port)
	r.logger.Debugf("Released lease for port %d", port)

	return nil
}

// InsertDispatch atomically records a command dispatch. Returns
// model.ErrAlreadyExists when the key is already present.
func (r *Repository) InsertDispatch(ctx context.Context, rec model.DispatchRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.dispatches[rec.Key]; ok {
		return fmt.Errorf("dispatch %s/%s/%s: %w", rec.Key.TaskID, rec.Key.Status, rec.Key.Command, model.ErrAlreadyExists)
	}

	r.dispatches[rec.Key] = rec

	return nil
}

// GetDispatch retrieves a dispatch record by key.
func (r *Repository) GetDispatch(ctx context.Context, key model.DispatchKey) (*model.DispatchRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.dispatches[key]
	if !ok {
		return nil, fmt.Errorf("dispatch %s/%s/%s: %w", key.TaskID, key.Status, key.Command, model.ErrNotFound)
	}

	recCopy := rec
	return &recCopy, nil
}

// UpdateDispatch updates an existing dispatch record.
func (r *Repository) UpdateDispatch(ctx context.Context, rec model.DispatchRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.dispatches[rec.Key]; !ok {
		return fmt.Errorf("dispatch %s/%s/%s: %w", rec.Key.TaskID, rec.Key.Status, rec.Key.Command, model.ErrNotFound)
	}

	r.dispatches[rec.Key] = rec

	return nil
}

// DeleteDispatch removes a dispatch record.
func (r *Repository) DeleteDispatch(ctx context.Context, key model.DispatchKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.dispatches[key]; !ok {
		return fmt.Errorf("dispatch %s/%s/%s: %w", key.TaskID, key.Status, key.Command, model.ErrNotFound)
	}

	delete(r.dispatches, key)

	return nil
}

// ListTaskDispatches returns all dispatch records for a task.
func (r *Repository) ListTaskDispatches(ctx context.Context, taskID string) ([]model.DispatchRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := []model.DispatchRecord{}
	for _, rec := range r.dispatches {
		if rec.Key.TaskID == taskID {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].DispatchedAt.Before(records[j].DispatchedAt)
	})

	return records, nil
}
