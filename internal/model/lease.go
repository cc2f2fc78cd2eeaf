package model

import (
	"fmt"
	"time"
)

// PortRole identifies which verification server a lease belongs to.
type PortRole string

const (
	// PortRoleFrontend is the frontend test server role.
	PortRoleFrontend PortRole = "frontend"
	// PortRoleBackend is the backend test server role.
	PortRoleBackend PortRole = "backend"
)

// PortLease is an exclusive claim on a port by a task. At most one lease
// exists per port at any time; leases are never transferred between tasks
// without an intervening release.
type PortLease struct {
	Port     int
	TaskID   string
	Role     PortRole
	LeasedAt time.Time
}

// PortRange is an inclusive candidate range scanned when leasing a port.
type PortRange struct {
	From int
	To   int
}

// Validate validates the port range.
func (r PortRange) Validate() error {
	if r.From < 1 || r.From > 65535 {
		return fmt.Errorf("port %d out of range (1-65535): %w", r.From, ErrNotValid)
	}
	if r.To < 1 || r.To > 65535 {
		return fmt.Errorf("port %d out of range (1-65535): %w", r.To, ErrNotValid)
	}
	if r.To < r.From {
		return fmt.Errorf("range %d-%d is reversed: %w", r.From, r.To, ErrNotValid)
	}
	return nil
}

// String returns the string representation of the port range.
func (r PortRange) String() string {
	return fmt.Sprintf("%d-%d", r.From, r.To)
}
