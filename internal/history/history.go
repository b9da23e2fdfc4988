// Package history persists register snapshots of bound nodes, giving a
// local audit trail of ventilation state even when no external consumer
// is listening.
package history

import (
	"context"
	"time"
)

// Snapshot source values.
const (
	SourcePoll    = "poll"
	SourceCommand = "command"
)

// Entry is a single persisted register snapshot.
type Entry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// Slave is the Modbus address of the node the snapshot belongs to.
	Slave uint8 `json:"slave"`

	// State maps property names to the decoded register values at the
	// time of the snapshot.
	State map[string]any `json:"state"`

	// Source identifies how the snapshot was taken (poll, command).
	Source string `json:"source"`

	// CreatedAt is the timestamp of the snapshot (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// Store persists and retrieves node snapshot history.
//
// Implementations must be thread-safe and use UTC timestamps.
type Store interface {
	// Record persists a snapshot of a node.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - slave: Modbus address of the node
	//   - state: Property values to persist
	//   - source: Origin of the snapshot (poll, command)
	//
	// Returns:
	//   - error: nil on success, otherwise the underlying persistence error
	Record(ctx context.Context, slave uint8, state map[string]any, source string) error

	// History returns recent snapshots of a node.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - slave: Modbus address of the node
	//   - limit: Maximum entries to return (implementation may clamp bounds)
	//
	// Returns:
	//   - []Entry: Ordered newest-first history entries (may be empty)
	//   - error: nil on success, otherwise the underlying query error
	History(ctx context.Context, slave uint8, limit int) ([]Entry, error)
}
