package printer

import (
	"github.com/torc-dev/torc/internal/app/status"
	"github.com/torc-dev/torc/internal/model"
)

// Printer knows how to print task information in different formats.
type Printer interface {
	PrintList(tasks []model.Task) error
	PrintStatus(view status.TaskView) error
	PrintMessage(msg string) error
}
