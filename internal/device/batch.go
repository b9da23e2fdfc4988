package device

import (
	"context"
	"errors"
	"sort"

	"github.com/ventlogic/airios-bridge/internal/client"
	"github.com/ventlogic/airios-bridge/internal/registers"
)

// maxRunWords caps a single Modbus read. The protocol limit for
// holding register reads is 125 words.
const maxRunWords = 125

// run is a contiguous span of registers readable in one transaction.
type run struct {
	start uint16
	words uint16
	descs []*registers.Descriptor
}

// planRuns groups address-ordered descriptors into contiguous spans of
// at most maxWords register words. A gap in the address space or a
// full span starts a new run.
func planRuns(descs []*registers.Descriptor, maxWords uint16) []run {
	var runs []run
	var cur *run
	for _, d := range descs {
		w := d.Words()
		if cur != nil && d.Address == cur.start+cur.words && cur.words+w <= maxWords {
			cur.words += w
			cur.descs = append(cur.descs, d)
			continue
		}
		runs = append(runs, run{start: d.Address, words: w, descs: []*registers.Descriptor{d}})
		cur = &runs[len(runs)-1]
	}
	return runs
}

// FetchOptions controls a bulk register fetch.
type FetchOptions struct {
	// Properties restricts the fetch to the named registers. Nil
	// fetches every readable register in the table.
	Properties []registers.Property
	// WithStatus also reads the freshness word of each register that
	// has one, at the cost of one extra transaction per register.
	WithStatus bool
}

// Snapshot holds the values of one fetch, keyed by property. Every
// planned register gets an entry; registers that could not be read or
// decoded carry a zero Value, reporting Present() == false.
type Snapshot map[registers.Property]registers.Value

// Flat converts a snapshot into plain property-to-value pairs, the
// shape used for JSON publication and persistence. Absent values are
// left out.
func (s Snapshot) Flat() map[string]any {
	out := make(map[string]any, len(s))
	for prop, v := range s {
		if !v.Present() {
			continue
		}
		out[string(prop)] = v.Raw
	}
	return out
}

// Fetch bulk-reads node registers, merging contiguous registers into
// single Modbus transactions.
//
// A run that fails with a device-side error (busy, acknowledge, read
// failure) is skipped; its registers appear in the snapshot as absent
// zero Values, so the result always has one entry per planned
// register. Connection-level failures and context cancellation abort
// the fetch.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - opts: Property selection and status read behavior
//
// Returns:
//   - Snapshot: One entry per planned register, absent on failure
//   - error: Connection-level failure, or unknown property in opts
func (n *Node) Fetch(ctx context.Context, opts FetchOptions) (Snapshot, error) {
	descs, err := n.fetchSet(opts.Properties)
	if err != nil {
		return nil, err
	}

	snap := make(Snapshot, len(descs))
	for _, r := range planRuns(descs, maxRunWords) {
		words, err := n.c.ReadBlock(ctx, n.slave, r.start, r.words)
		if err != nil {
			if fatal(err) {
				return snap, err
			}
			continue
		}
		for _, d := range r.descs {
			off := d.Address - r.start
			raw, err := d.DecodeValue(words[off : off+d.Words()])
			if err != nil {
				continue
			}
			snap[d.Property] = registers.Value{Raw: raw}
		}
	}
	for _, d := range descs {
		if _, ok := snap[d.Property]; !ok {
			snap[d.Property] = registers.Value{}
		}
	}

	if opts.WithStatus {
		n.fetchStatus(ctx, snap, descs)
	}
	return snap, nil
}

// fetchSet resolves the descriptor list for a fetch, in address order.
func (n *Node) fetchSet(props []registers.Property) ([]*registers.Descriptor, error) {
	if props == nil {
		return n.table.Readable(), nil
	}
	descs := make([]*registers.Descriptor, 0, len(props))
	for _, p := range props {
		d, err := n.table.Lookup(p)
		if err != nil {
			return nil, err
		}
		if !d.Access.CanRead() {
			continue
		}
		descs = append(descs, d)
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].Address < descs[j].Address })
	return descs, nil
}

// fetchStatus attaches freshness to snapshot values whose register has
// a status word. Status read failures leave the value without one.
func (n *Node) fetchStatus(ctx context.Context, snap Snapshot, descs []*registers.Descriptor) {
	for _, d := range descs {
		if !d.Access.HasStatus() {
			continue
		}
		v, ok := snap[d.Property]
		if !ok || !v.Present() {
			continue
		}
		words, err := n.c.ReadBlock(ctx, n.slave, d.Address+registers.StatusOffset, 1)
		if err != nil {
			if fatal(err) {
				return
			}
			continue
		}
		freshness := registers.DecodeStatus(words[0])
		v.Status = &freshness
		snap[d.Property] = v
	}
}

// fatal reports errors that make continuing a fetch pointless.
func fatal(err error) bool {
	return errors.Is(err, client.ErrConnection) ||
		errors.Is(err, client.ErrConnectionInterrupted) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
