package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/torc-dev/torc/internal/app/status"
	"github.com/torc-dev/torc/internal/model"
)

// JSONPrinter prints task information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// listItem represents a task in the list output (subset of fields).
type listItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Profile   string    `json:"profile"`
	Mode      string    `json:"mode"`
	UpdatedAt time.Time `json:"updated_at"`
}

// statusOutput represents the full task status output.
type statusOutput struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Status       string           `json:"status"`
	Profile      string           `json:"profile"`
	Mode         string           `json:"mode"`
	WorkspaceRef string           `json:"workspace_ref,omitempty"`
	Endpoints    *endpointsOutput `json:"endpoints,omitempty"`
	Blockers     string           `json:"blockers,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Leases       []leaseOutput    `json:"port_leases,omitempty"`
	Dispatches   []dispatchOutput `json:"commands,omitempty"`
	StageLog     []stageOutput    `json:"stage_log,omitempty"`
}

type endpointsOutput struct {
	FrontendURL string `json:"frontend_url"`
	BackendURL  string `json:"backend_url"`
}

type leaseOutput struct {
	Port     int       `json:"port"`
	Role     string    `json:"role"`
	LeasedAt time.Time `json:"leased_at"`
}

type dispatchOutput struct {
	Command      string    `json:"command"`
	Status       string    `json:"status"`
	Result       string    `json:"result"`
	Detail       string    `json:"detail,omitempty"`
	DispatchedAt time.Time `json:"dispatched_at"`
}

type stageOutput struct {
	Seq       int       `json:"seq"`
	Status    string    `json:"status"`
	Summary   string    `json:"summary"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintList prints tasks in JSON format with a subset of fields.
func (j *JSONPrinter) PrintList(tasks []model.Task) error {
	items := make([]listItem, len(tasks))
	for i, t := range tasks {
		items[i] = listItem{
			ID:        t.ID,
			Name:      t.Name,
			Status:    string(t.Status),
			Profile:   string(t.Profile),
			Mode:      string(t.Mode),
			UpdatedAt: t.UpdatedAt,
		}
	}

	return j.encode(items)
}

// PrintStatus prints the full task view in JSON format.
func (j *JSONPrinter) PrintStatus(view status.TaskView) error {
	task := view.Task
	out := statusOutput{
		ID:           task.ID,
		Name:         task.Name,
		Status:       string(task.Status),
		Profile:      string(task.Profile),
		Mode:         string(task.Mode),
		WorkspaceRef: task.WorkspaceRef,
		Blockers:     task.Blockers,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}

	if task.Endpoints != nil {
		out.Endpoints = &endpointsOutput{
			FrontendURL: task.Endpoints.FrontendURL,
			BackendURL:  task.Endpoints.BackendURL,
		}
	}

	for _, l := range view.Leases {
		out.Leases = append(out.Leases, leaseOutput{Port: l.Port, Role: string(l.Role), LeasedAt: l.LeasedAt})
	}

	for _, d := range view.Dispatches {
		out.Dispatches = append(out.Dispatches, dispatchOutput{
			Command:      string(d.Key.Command),
			Status:       string(d.Key.Status),
			Result:       string(d.Result),
			Detail:       d.Detail,
			DispatchedAt: d.DispatchedAt,
		})
	}

	for _, e := range view.StageLog {
		out.StageLog = append(out.StageLog, stageOutput{
			Seq:       e.Seq,
			Status:    string(e.Status),
			Summary:   e.Summary,
			Details:   e.Details,
			Timestamp: e.Timestamp,
		})
	}

	return j.encode(out)
}

// PrintMessage prints a message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v interface{}) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
