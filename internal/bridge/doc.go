// Package bridge drives the Airios BRDG-02R13 RF-to-Modbus gateway.
//
// The bridge is itself a node with the common register group plus
// gateway-specific registers: time and uptime, serial line settings,
// RF load counters and the binding machinery. Binding a new RF product
// is a multi-register sequence (abort, verify idle, configure product,
// create node, fire command) that Bind and BindAccessory run as one
// flow; progress is polled through Status.
//
// Nodes scans the bound node directory and returns typed wrappers for
// the products it recognizes.
package bridge
