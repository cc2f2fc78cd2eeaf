package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")

	// ErrIllegalTransition is returned when a requested status edge is not part
	// of the task's workflow. The task state is left unchanged.
	ErrIllegalTransition = errors.New("illegal transition")
	// ErrMissingAuthorization is returned when a terminal transition is requested
	// without an explicit operator authorization token.
	ErrMissingAuthorization = errors.New("missing operator authorization")
	// ErrModeViolation is returned when an automated inference is attempted on a
	// task that runs in manual execution mode.
	ErrModeViolation = errors.New("execution mode violation")
	// ErrPortBindFailed is returned when a process could not be started on a
	// leased port. The lease is released before returning.
	ErrPortBindFailed = errors.New("port bind failed")
	// ErrCleanupPrecondition is returned when a teardown step fails. The task
	// stays in its prior non-terminal status.
	ErrCleanupPrecondition = errors.New("cleanup precondition failed")
)
