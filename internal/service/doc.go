// Package service runs the long-lived serve mode of the bridge: a
// polling loop that snapshots the gateway and every bound node,
// publishes the snapshots over MQTT, persists them to the history
// store, and applies ventilation commands received from the broker.
package service
