package client

import "errors"

// Domain errors for the transport client package.
var (
	// ErrConnection is returned when the channel cannot be (re)connected.
	ErrConnection = errors.New("client: connection failed")

	// ErrConnectionInterrupted is returned when the connection drops
	// mid-exchange. The channel is closed and reopened lazily by the
	// next operation.
	ErrConnectionInterrupted = errors.New("client: connection interrupted")

	// ErrSlaveBusy is returned when the device answers with a busy
	// exception. The request can be retried later.
	ErrSlaveBusy = errors.New("client: slave device busy")

	// ErrSlaveFailure is returned when the device reports an internal
	// failure.
	ErrSlaveFailure = errors.New("client: slave device failure")

	// ErrAcknowledge is returned when the device accepted a command but
	// the RF round trip to the node is still pending.
	ErrAcknowledge = errors.New("client: request acknowledged, completion pending")

	// ErrRead is returned for read failures not covered by a more
	// specific sentinel, including short responses.
	ErrRead = errors.New("client: register read failed")

	// ErrWrite is returned for write failures not covered by a more
	// specific sentinel, including echo mismatches.
	ErrWrite = errors.New("client: register write failed")
)
