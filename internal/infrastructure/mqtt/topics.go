package mqtt

import "fmt"

// DefaultBaseTopic is the topic prefix used when none is configured.
const DefaultBaseTopic = "airios"

// Topics builds the MQTT topics of the bridge service. Using these
// helpers ensures consistent topic naming across the codebase.
//
// The topic scheme is: {base}/{category}/{subject}
//
//	topics := mqtt.Topics{Base: "airios"}
//	stateTopic := topics.NodeState(3)
//	// Returns: "airios/state/node/3"
type Topics struct {
	// Base is the topic prefix. Empty uses DefaultBaseTopic.
	Base string
}

func (t Topics) base() string {
	if t.Base == "" {
		return DefaultBaseTopic
	}
	return t.Base
}

// NodeState returns the topic for state snapshots of a bound node.
//
// Example: airios/state/node/3
func (t Topics) NodeState(slave uint8) string {
	return fmt.Sprintf("%s/state/node/%d", t.base(), slave)
}

// BridgeState returns the topic for gateway state snapshots.
//
// Example: airios/state/bridge
func (t Topics) BridgeState() string {
	return fmt.Sprintf("%s/state/bridge", t.base())
}

// NodeCommand returns the topic for commands to a bound node.
//
// Example: airios/command/node/3
func (t Topics) NodeCommand(slave uint8) string {
	return fmt.Sprintf("%s/command/node/%d", t.base(), slave)
}

// SystemStatus returns the service status topic, also used for the
// Last Will and Testament.
//
// Example: airios/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.base())
}

// AllNodeCommands returns a pattern matching commands to any node.
//
// Pattern: airios/command/node/+
func (t Topics) AllNodeCommands() string {
	return fmt.Sprintf("%s/command/node/+", t.base())
}

// AllNodeStates returns a pattern matching state snapshots of any node.
//
// Pattern: airios/state/node/+
func (t Topics) AllNodeStates() string {
	return fmt.Sprintf("%s/state/node/+", t.base())
}

// AllTopics returns a pattern matching every topic of the service.
// Use with caution - this receives ALL traffic.
//
// Pattern: airios/#
func (t Topics) AllTopics() string {
	return t.base() + "/#"
}
