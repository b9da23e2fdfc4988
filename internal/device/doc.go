// Package device models the RF nodes reachable through an Airios
// bridge: the bridge itself, ventilation controllers (VMD) and remotes
// (VMN).
//
// Every node carries a register table assembled from the common node
// group plus product-specific groups. Node provides generic Get/Set by
// property and a bulk Fetch that reads contiguous register runs in
// single Modbus transactions. Typed wrappers (VMD02RPS78, VMN05LM02)
// add accessors that convert raw register values to domain types such
// as ventilation speeds, bypass modes and sensor samples.
//
// New products are registered by product ID; NewProduct instantiates
// the right wrapper for a bound node discovered on the bridge.
package device
