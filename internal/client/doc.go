// Package client provides the serialized Modbus transport client for
// Airios RF bridges.
//
// The bridge tolerates exactly one request at a time and needs a short
// gap between consecutive commands, especially over USB serial. Client
// therefore funnels every exchange through a single mutex and enforces a
// minimum inter-command delay. A register read and its optional status
// follow-up read happen under the same lock so no other command can
// slip between them.
//
// # Connection handling
//
// The connection is established lazily: each operation reconnects the
// underlying channel once if it is down and fails with ErrConnection if
// that attempt does not succeed. I/O failures mid-exchange close the
// channel and surface as ErrConnectionInterrupted; the next operation
// triggers a fresh connect.
//
// # Error taxonomy
//
// Modbus exception responses map to sentinel errors so callers can
// react per condition: ErrSlaveBusy (retry later), ErrAcknowledge (the
// bridge accepted a command whose RF round trip is still pending),
// ErrSlaveFailure, and generic ErrRead/ErrWrite carrying the exception
// code for everything else.
package client
