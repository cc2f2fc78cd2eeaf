package printer

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/torc-dev/torc/internal/app/status"
	"github.com/torc-dev/torc/internal/model"
)

// TablePrinter prints task information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintList prints tasks in a table format.
func (t *TablePrinter) PrintList(tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tPROFILE\tMODE\tUPDATED")

	// Print rows
	for _, task := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			task.ID, task.Name, task.Status, task.Profile, task.Mode, TimeAgo(task.UpdatedAt))
	}

	return nil
}

// PrintStatus prints the detailed task view.
func (t *TablePrinter) PrintStatus(view status.TaskView) error {
	task := view.Task

	fmt.Fprintf(t.writer, "Name:       %s\n", task.Name)
	fmt.Fprintf(t.writer, "ID:         %s\n", task.ID)
	fmt.Fprintf(t.writer, "Status:     %s\n", task.Status)
	fmt.Fprintf(t.writer, "Profile:    %s\n", task.Profile)
	fmt.Fprintf(t.writer, "Mode:       %s\n", task.Mode)

	if task.WorkspaceRef != "" {
		fmt.Fprintf(t.writer, "Workspace:  %s\n", task.WorkspaceRef)
	}

	if task.Endpoints != nil {
		fmt.Fprintf(t.writer, "Frontend:   %s\n", task.Endpoints.FrontendURL)
		fmt.Fprintf(t.writer, "Backend:    %s\n", task.Endpoints.BackendURL)
	}

	if task.Blockers != "" {
		fmt.Fprintf(t.writer, "Blockers:   %s\n", task.Blockers)
	}

	fmt.Fprintf(t.writer, "Created:    %s\n", FormatTimestamp(task.CreatedAt))
	fmt.Fprintf(t.writer, "Updated:    %s\n", FormatTimestamp(task.UpdatedAt))

	if len(view.Leases) > 0 {
		fmt.Fprintf(t.writer, "\nPort leases:\n")
		tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  PORT\tROLE\tLEASED")
		for _, l := range view.Leases {
			fmt.Fprintf(tw, "  %d\t%s\t%s\n", l.Port, l.Role, TimeAgo(l.LeasedAt))
		}
		tw.Flush()
	}

	if len(view.Dispatches) > 0 {
		fmt.Fprintf(t.writer, "\nCommands:\n")
		tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  COMMAND\tSTATUS\tRESULT\tDISPATCHED")
		for _, d := range view.Dispatches {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", d.Key.Command, d.Key.Status, d.Result, TimeAgo(d.DispatchedAt))
		}
		tw.Flush()
	}

	if len(view.StageLog) > 0 {
		fmt.Fprintf(t.writer, "\nStage log:\n")
		tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  SEQ\tSTATUS\tSUMMARY\tWHEN")
		for _, e := range view.StageLog {
			fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\n", e.Seq, e.Status, e.Summary, TimeAgo(e.Timestamp))
		}
		tw.Flush()
	}

	return nil
}

// PrintMessage prints a plain message.
func (t *TablePrinter) PrintMessage(msg string) error {
	_, err := fmt.Fprintln(t.writer, msg)
	return err
}
