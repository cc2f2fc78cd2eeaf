package model

import "time"

// Command names a side-effecting action associated with entering a status.
type Command string

const (
	// CommandStartWork hands the task off to a work performer.
	CommandStartWork Command = "start-work"
	// CommandRunTests asks the work performer for a test run.
	CommandRunTests Command = "run-tests"
	// CommandRequestReview requests a review verdict for the task.
	CommandRequestReview Command = "request-review"
	// CommandOpenPR opens the pull request for an approved task.
	CommandOpenPR Command = "open-pr"
)

// DispatchKey is the idempotency key for side-effecting commands: a given
// key may be dispatched at most once for the life of a task.
type DispatchKey struct {
	TaskID  string
	Status  Status
	Command Command
}

// DispatchResult records how a dispatched command ended.
type DispatchResult string

const (
	// DispatchResultPending indicates the command has been claimed but its
	// execution has not finished yet.
	DispatchResultPending DispatchResult = "pending"
	// DispatchResultOK indicates the command executed without error.
	DispatchResultOK DispatchResult = "ok"
	// DispatchResultFailed indicates the command returned an error. The record
	// is kept: the command may have partially succeeded remotely, so it is
	// only retried through an explicit operator request.
	DispatchResultFailed DispatchResult = "failed"
)

// DispatchRecord is the ledger entry for an executed command.
type DispatchRecord struct {
	Key          DispatchKey
	Result       DispatchResult
	Detail       string
	DispatchedAt time.Time
}
