package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ventlogic/airios-bridge/internal/bridge"
	"github.com/ventlogic/airios-bridge/internal/device"
	"github.com/ventlogic/airios-bridge/internal/history"
	"github.com/ventlogic/airios-bridge/internal/infrastructure/mqtt"
	"github.com/ventlogic/airios-bridge/internal/registers"
)

// Sentinel errors for the service package.
var (
	// ErrInvalidCommand indicates a command payload or topic that
	// cannot be applied to a node.
	ErrInvalidCommand = errors.New("service: invalid command")
)

const (
	// defaultInterval is the poll interval when none is configured.
	defaultInterval = 30 * time.Second

	// directoryRescanRounds is how many poll rounds a directory scan
	// stays cached. Binding changes are rare, so the directory is not
	// re-read on every round.
	directoryRescanRounds = 10

	// pruneInterval limits how often the history store is pruned.
	pruneInterval = time.Hour

	// commandQoS is the QoS level for the command subscription.
	commandQoS = 1
)

// Logger receives service diagnostics. The interface matches
// logging.Logger so a *logging.Logger can be passed directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher is the broker surface the service needs. *mqtt.Client
// satisfies it.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Pruner is implemented by history stores that support retention
// cleanup. *history.SQLiteStore satisfies it.
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Options configures a Service.
type Options struct {
	// Bridge is the gateway handle. Required.
	Bridge *bridge.Bridge

	// Publisher receives state snapshots and delivers node commands.
	// Nil disables MQTT entirely; the service still polls and records
	// history.
	Publisher Publisher

	// Topics builds the MQTT topic names. The zero value uses the
	// default base topic.
	Topics mqtt.Topics

	// Store persists state snapshots. Nil disables history recording.
	Store history.Store

	// Interval is the poll period. Defaults to defaultInterval.
	Interval time.Duration

	// WithStatus also reads register freshness words on each poll.
	WithStatus bool

	// Retention is how long history rows are kept. Zero disables
	// pruning. Pruning requires Store to implement Pruner.
	Retention time.Duration

	// Logger receives diagnostics. Nil discards them.
	Logger Logger
}

// Service is the long-running serve loop: poll the bridge and its
// bound nodes, publish and record the snapshots, and apply commands
// received from the broker.
type Service struct {
	opts Options
	log  Logger

	// nodes is the cached directory scan, refreshed every
	// directoryRescanRounds poll rounds.
	nodes     []bridge.BoundNode
	rounds    int
	lastPrune time.Time
}

// New creates a service from its options.
//
// Parameters:
//   - opts: Service configuration; Bridge is required
//
// Returns:
//   - *Service: Ready to Run
//   - error: Missing bridge handle
func New(opts Options) (*Service, error) {
	if opts.Bridge == nil {
		return nil, errors.New("service: bridge handle is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	log := opts.Logger
	if log == nil {
		log = noopLogger{}
	}
	return &Service{opts: opts, log: log}, nil
}

// Run polls until the context is cancelled. The first poll happens
// immediately; subsequent polls follow the configured interval. When a
// publisher is configured, Run also subscribes to the node command
// topic for the duration of the loop.
//
// Poll failures are logged and do not stop the loop; the next tick
// retries.
func (s *Service) Run(ctx context.Context) error {
	s.log.Info("service started",
		"interval", s.opts.Interval,
		"bridge_slave", s.opts.Bridge.Slave(),
		"mqtt", s.opts.Publisher != nil,
		"history", s.opts.Store != nil)

	if s.opts.Publisher != nil {
		topic := s.opts.Topics.AllNodeCommands()
		handler := func(t string, payload []byte) error {
			return s.handleCommand(ctx, t, payload)
		}
		if err := s.opts.Publisher.Subscribe(topic, commandQoS, handler); err != nil {
			return fmt.Errorf("subscribe commands: %w", err)
		}
		defer func() {
			if err := s.opts.Publisher.Unsubscribe(topic); err != nil {
				s.log.Debug("unsubscribe commands", "error", err)
			}
		}()
	}

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		if err := s.pollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			s.log.Warn("poll round failed", "error", err)
		}
		select {
		case <-ctx.Done():
			s.log.Info("service stopped")
			return nil
		case <-ticker.C:
		}
	}
	s.log.Info("service stopped")
	return nil
}

// pollOnce runs a single poll round: refresh the node directory when
// due, snapshot the bridge and every supported bound node, then prune
// the history store if retention is configured.
func (s *Service) pollOnce(ctx context.Context) error {
	if s.rounds%directoryRescanRounds == 0 {
		nodes, err := s.opts.Bridge.Nodes(ctx)
		if err != nil {
			s.log.Warn("node directory scan failed", "error", err)
		} else {
			s.nodes = nodes
			s.log.Debug("node directory refreshed", "count", len(nodes))
		}
	}
	s.rounds++

	if err := s.pollBridge(ctx); err != nil {
		return err
	}

	for _, n := range s.nodes {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !device.Supported(n.Product) {
			continue
		}
		if err := s.pollNode(ctx, n); err != nil {
			return err
		}
	}

	s.pruneIfDue(ctx)
	return nil
}

// pollBridge snapshots the gateway registers and emits the result.
func (s *Service) pollBridge(ctx context.Context) error {
	b := s.opts.Bridge
	snap, err := b.Fetch(ctx, device.FetchOptions{
		Properties: b.SnapshotProperties(),
		WithStatus: s.opts.WithStatus,
	})
	if err != nil {
		return fmt.Errorf("fetch bridge state: %w", err)
	}
	s.emit(ctx, b.Slave(), s.opts.Topics.BridgeState(), snap)
	return nil
}

// pollNode snapshots one bound node and emits the result. Nodes that
// fail to snapshot are logged and skipped so one dead node cannot
// starve the rest of the round.
func (s *Service) pollNode(ctx context.Context, n bridge.BoundNode) error {
	product, err := device.NewProduct(n.Product, n.Slave, s.opts.Bridge.Client())
	if err != nil {
		return err
	}
	snap, err := product.Fetch(ctx, device.FetchOptions{
		Properties: product.SnapshotProperties(),
		WithStatus: s.opts.WithStatus,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Warn("fetch node state failed", "slave", n.Slave, "error", err)
		return nil
	}
	s.emit(ctx, n.Slave, s.opts.Topics.NodeState(n.Slave), snap)
	return nil
}

// statePayload is the published snapshot envelope.
type statePayload struct {
	Slave     uint8          `json:"slave"`
	Timestamp string         `json:"timestamp"`
	State     map[string]any `json:"state"`
}

// emit publishes a snapshot to the broker and records it in the
// history store. Both sinks are optional and failures in either are
// logged, not propagated; a broker outage must not stop polling.
func (s *Service) emit(ctx context.Context, slave uint8, topic string, snap device.Snapshot) {
	state := snap.Flat()

	if s.opts.Publisher != nil {
		payload, err := json.Marshal(statePayload{
			Slave:     slave,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			State:     state,
		})
		if err != nil {
			s.log.Error("marshal state snapshot", "slave", slave, "error", err)
		} else if err := s.opts.Publisher.PublishRetained(topic, payload); err != nil {
			s.log.Warn("publish state snapshot failed", "topic", topic, "error", err)
		}
	}

	if s.opts.Store != nil {
		if err := s.opts.Store.Record(ctx, slave, state, history.SourcePoll); err != nil {
			s.log.Warn("record state snapshot failed", "slave", slave, "error", err)
		}
	}
}

// pruneIfDue removes history rows older than the retention period, at
// most once per pruneInterval.
func (s *Service) pruneIfDue(ctx context.Context) {
	if s.opts.Retention <= 0 {
		return
	}
	pruner, ok := s.opts.Store.(Pruner)
	if !ok {
		return
	}
	if time.Since(s.lastPrune) < pruneInterval {
		return
	}
	s.lastPrune = time.Now()

	deleted, err := pruner.Prune(ctx, s.opts.Retention)
	if err != nil {
		s.log.Warn("history prune failed", "error", err)
		return
	}
	if deleted > 0 {
		s.log.Info("history pruned", "deleted", deleted)
	}
}

// handleCommand applies one command message. The topic carries the
// target slave address as its last segment; the payload is a JSON
// object of property names to values.
//
// String values for the ventilation speed and bypass mode properties
// are accepted by name ("low", "auto", ...); everything else is
// written through the register table, which validates type and range.
func (s *Service) handleCommand(ctx context.Context, topic string, payload []byte) error {
	slave, err := slaveFromTopic(topic)
	if err != nil {
		s.log.Warn("command rejected", "topic", topic, "error", err)
		return err
	}

	var cmd map[string]any
	if err := json.Unmarshal(payload, &cmd); err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidCommand, err)
		s.log.Warn("command rejected", "topic", topic, "error", err)
		return err
	}
	if len(cmd) == 0 {
		err := fmt.Errorf("%w: empty payload", ErrInvalidCommand)
		s.log.Warn("command rejected", "topic", topic, "error", err)
		return err
	}

	product, err := s.opts.Bridge.NodeBySlave(ctx, slave)
	if err != nil {
		s.log.Warn("command target not found", "slave", slave, "error", err)
		return err
	}

	for prop, value := range cmd {
		if err := applyCommand(ctx, product, prop, value); err != nil {
			s.log.Warn("command failed", "slave", slave, "property", prop, "error", err)
			return err
		}
		s.log.Info("command applied", "slave", slave, "property", prop, "value", value)
	}
	return nil
}

// applyCommand writes one property of a command payload.
func applyCommand(ctx context.Context, product device.Product, prop string, value any) error {
	if str, ok := value.(string); ok {
		switch registers.Property(prop) {
		case device.PropRequestedSpeed:
			speed, err := device.ParseRequestedSpeed(str)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidCommand, err)
			}
			if vmd, ok := product.(*device.VMD02RPS78); ok {
				return vmd.SetVentilationSpeed(ctx, speed)
			}
			return product.Set(ctx, device.PropRequestedSpeed, uint16(speed))
		case device.PropRequestedBypassMode:
			mode, err := device.ParseBypassMode(str)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidCommand, err)
			}
			return product.Set(ctx, device.PropRequestedBypassMode, uint16(mode))
		default:
			return fmt.Errorf("%w: property %q does not take a string value", ErrInvalidCommand, prop)
		}
	}

	// JSON numbers arrive as float64. Integer registers need an int.
	if f, ok := value.(float64); ok && f == math.Trunc(f) {
		value = int(f)
	}
	return product.Set(ctx, registers.Property(prop), value)
}

// slaveFromTopic extracts the slave address from the last segment of a
// command topic.
func slaveFromTopic(topic string) (uint8, error) {
	idx := strings.LastIndexByte(topic, '/')
	if idx < 0 || idx == len(topic)-1 {
		return 0, fmt.Errorf("%w: topic %q has no slave segment", ErrInvalidCommand, topic)
	}
	slave, err := strconv.ParseUint(topic[idx+1:], 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: topic %q: bad slave address", ErrInvalidCommand, topic)
	}
	return uint8(slave), nil
}
