// airiosctl - Airios BRDG-02R13 bridge control tool
//
// The binary speaks Modbus to an Airios RF bridge and exposes its
// functions as subcommands: register access, node directory scans,
// RF binding management, and a serve mode that polls the bridge and
// publishes state snapshots over MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "github.com/ventlogic/airios-bridge/migrations"

	"github.com/ventlogic/airios-bridge/internal/bridge"
	"github.com/ventlogic/airios-bridge/internal/client"
	"github.com/ventlogic/airios-bridge/internal/device"
	"github.com/ventlogic/airios-bridge/internal/history"
	"github.com/ventlogic/airios-bridge/internal/infrastructure/config"
	"github.com/ventlogic/airios-bridge/internal/infrastructure/database"
	"github.com/ventlogic/airios-bridge/internal/infrastructure/logging"
	"github.com/ventlogic/airios-bridge/internal/infrastructure/mqtt"
	"github.com/ventlogic/airios-bridge/internal/registers"
	"github.com/ventlogic/airios-bridge/internal/service"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches the subcommand, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command line arguments without the program name
//
// Returns:
//   - error: nil on success, or error describing the failure
func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage()
		return errors.New("no command given")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "fetch":
		return cmdFetch(ctx, rest)
	case "get":
		return cmdGet(ctx, rest)
	case "set":
		return cmdSet(ctx, rest)
	case "nodes":
		return cmdNodes(ctx, rest)
	case "bind":
		return cmdBind(ctx, rest)
	case "bind-accessory":
		return cmdBindAccessory(ctx, rest)
	case "bind-status":
		return cmdBindStatus(ctx, rest)
	case "unbind":
		return cmdUnbind(ctx, rest)
	case "serve":
		return cmdServe(ctx, rest)
	case "version":
		fmt.Printf("airiosctl %s (commit %s, built %s)\n", version, commit, date)
		return nil
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: airiosctl <command> [flags]

Commands:
  fetch           Read a state snapshot from the bridge or a bound node
  get             Read a single register by property name
  set             Write a single register by property name
  nodes           Scan the bound node directory
  bind            Bind a new controller to the bridge
  bind-accessory  Bind an accessory to an already bound controller
  bind-status     Show the state of the binding machine
  unbind          Remove a bound node
  serve           Poll continuously, publish to MQTT, record history
  version         Show build information

Run 'airiosctl <command> -h' for command flags.`)
}

// getConfigPath returns the configuration file path. Uses the
// AIRIOS_CONFIG environment variable if set, otherwise the default.
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv("AIRIOS_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// loadConfig loads the configuration file. A missing file at the
// default path falls back to built-in defaults, so simple bus access
// works without any configuration; an explicitly named file must
// exist.
func loadConfig(flagValue string) (*config.Config, error) {
	path := getConfigPath(flagValue)
	cfg, err := config.Load(path)
	if err != nil {
		if flagValue == "" && os.Getenv("AIRIOS_CONFIG") == "" && errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// stack is the connected protocol stack shared by every subcommand.
type stack struct {
	cfg *config.Config
	log *logging.Logger
	ch  client.Channel
	b   *bridge.Bridge
}

func (s *stack) Close() {
	if err := s.ch.Close(); err != nil {
		s.log.Debug("closing channel", "error", err)
	}
}

// connect builds the channel, transport client and bridge handle from
// configuration. The connection itself is lazy; the first register
// exchange opens it.
func connect(configFlag string) (*stack, error) {
	cfg, err := loadConfig(configFlag)
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.Logging, version)

	var ch client.Channel
	switch cfg.Modbus.Mode {
	case "tcp":
		ch = client.NewTCPChannel(client.TCPOptions{
			Address: fmt.Sprintf("%s:%d", cfg.Modbus.TCPHost, cfg.Modbus.TCPPort),
			Timeout: cfg.RequestTimeout(),
		})
	default:
		ch = client.NewRTUChannel(client.RTUOptions{
			Device:   cfg.Modbus.RTUDevice,
			BaudRate: cfg.Modbus.RTUBaud,
			Parity:   cfg.Modbus.RTUParity,
			StopBits: cfg.Modbus.RTUStopBits,
			Timeout:  cfg.RequestTimeout(),
		})
	}

	c := client.New(ch, client.Options{Pace: cfg.PaceInterval(), Logger: log})
	b, err := bridge.New(c, bridge.Options{Slave: uint8(cfg.Bridge.Slave), Logger: log})
	if err != nil {
		return nil, fmt.Errorf("creating bridge handle: %w", err)
	}
	return &stack{cfg: cfg, log: log, ch: ch, b: b}, nil
}

// target resolves the node a command addresses. Slave 0 means the
// bridge itself.
func (s *stack) target(ctx context.Context, slave uint) (device.Product, error) {
	if slave == 0 {
		return s.b, nil
	}
	return s.b.NodeBySlave(ctx, uint8(slave))
}

// ─── Register access ───────────────────────────────────────────────

func cmdFetch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	configFlag := fs.String("config", "", "configuration file path")
	slave := fs.Uint("slave", 0, "node slave address (0 = bridge)")
	withStatus := fs.Bool("status", false, "also read register freshness")
	all := fs.Bool("all", false, "fetch every readable register, not just the snapshot set")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := connect(*configFlag)
	if err != nil {
		return err
	}
	defer s.Close()

	product, err := s.target(ctx, *slave)
	if err != nil {
		return err
	}

	opts := device.FetchOptions{WithStatus: *withStatus}
	if !*all {
		opts.Properties = product.SnapshotProperties()
	}
	snap, err := product.Fetch(ctx, opts)
	if err != nil {
		return fmt.Errorf("fetch slave %d: %w", product.Slave(), err)
	}

	printSnapshot(snap)
	return nil
}

// printSnapshot writes a snapshot in property order, one line each.
func printSnapshot(snap device.Snapshot) {
	props := make([]string, 0, len(snap))
	for p := range snap {
		props = append(props, string(p))
	}
	sort.Strings(props)
	for _, p := range props {
		fmt.Printf("%-36s %s\n", p, snap[registers.Property(p)])
	}
}

func cmdGet(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	configFlag := fs.String("config", "", "configuration file path")
	slave := fs.Uint("slave", 0, "node slave address (0 = bridge)")
	withStatus := fs.Bool("status", false, "also read register freshness")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: get [flags] <property>")
	}
	prop := registers.Property(fs.Arg(0))

	s, err := connect(*configFlag)
	if err != nil {
		return err
	}
	defer s.Close()

	product, err := s.target(ctx, *slave)
	if err != nil {
		return err
	}

	v, err := product.Get(ctx, prop)
	if err != nil {
		return err
	}
	if !*withStatus {
		v.Status = nil
	}
	fmt.Println(v)
	return nil
}

func cmdSet(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	configFlag := fs.String("config", "", "configuration file path")
	slave := fs.Uint("slave", 0, "node slave address (0 = bridge)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: set [flags] <property> <value>")
	}
	prop := registers.Property(fs.Arg(0))

	s, err := connect(*configFlag)
	if err != nil {
		return err
	}
	defer s.Close()

	product, err := s.target(ctx, *slave)
	if err != nil {
		return err
	}

	value, err := parseValue(prop, fs.Arg(1))
	if err != nil {
		return err
	}
	if err := product.Set(ctx, prop, value); err != nil {
		return err
	}
	fmt.Printf("%s = %s\n", prop, fs.Arg(1))
	return nil
}

// parseValue converts a command line argument to the value type a
// register write expects. Named values are resolved for the speed and
// bypass request registers; numbers are passed as int or float64;
// anything else stays a string for the text registers.
func parseValue(prop registers.Property, arg string) (any, error) {
	switch prop {
	case device.PropRequestedSpeed:
		speed, err := device.ParseRequestedSpeed(arg)
		if err != nil {
			return nil, err
		}
		return uint16(speed), nil
	case device.PropRequestedBypassMode:
		mode, err := device.ParseBypassMode(arg)
		if err != nil {
			return nil, err
		}
		return uint16(mode), nil
	}
	if n, err := strconv.Atoi(arg); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(arg, 64); err == nil {
		return f, nil
	}
	return arg, nil
}

// ─── Node directory ────────────────────────────────────────────────

func cmdNodes(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("nodes", flag.ExitOnError)
	configFlag := fs.String("config", "", "configuration file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := connect(*configFlag)
	if err != nil {
		return err
	}
	defer s.Close()

	nodes, err := s.b.Nodes(ctx)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		fmt.Println("no bound nodes")
		return nil
	}

	fmt.Printf("%-6s %-14s %-10s %s\n", "SLAVE", "PRODUCT", "RF", "SUPPORTED")
	for _, n := range nodes {
		fmt.Printf("%-6d %-14s %08X   %t\n", n.Slave, n.Product, n.RFAddress, device.Supported(n.Product))
	}
	return nil
}

// ─── Binding ───────────────────────────────────────────────────────

// parseProduct resolves a product argument: a model name or a raw
// numeric product ID.
func parseProduct(arg string) (device.ProductID, error) {
	switch strings.ToUpper(arg) {
	case "VMD-02RPS78", "VMD":
		return device.ProductVMD02RPS78, nil
	case "VMN-05LM02", "VMN05":
		return device.ProductVMN05LM02, nil
	case "VMN-02LM11", "VMN02":
		return device.ProductVMN02LM11, nil
	}
	id, err := strconv.ParseUint(arg, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown product %q", arg)
	}
	return device.ProductID(id), nil
}

func cmdBind(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bind", flag.ExitOnError)
	configFlag := fs.String("config", "", "configuration file path")
	slave := fs.Uint("slave", 0, "Modbus address to assign to the new node (2-247)")
	productArg := fs.String("product", "VMD-02RPS78", "product to bind (name or numeric ID)")
	serial := fs.Uint64("serial", 0, "bind only the device with this serial number (0 = any)")
	wait := fs.Duration("wait", 2*time.Minute, "how long to wait for the RF handshake (0 = don't wait)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	product, err := parseProduct(*productArg)
	if err != nil {
		return err
	}

	s, err := connect(*configFlag)
	if err != nil {
		return err
	}
	defer s.Close()

	req := bridge.BindRequest{
		Slave:   uint8(*slave),
		Product: product,
		Serial:  uint32(*serial),
	}
	if err := s.b.Bind(ctx, req); err != nil {
		return err
	}
	fmt.Printf("binding started: %s as slave %d\n", product, req.Slave)

	if *wait <= 0 {
		return nil
	}
	return waitForBinding(ctx, s.b, *wait)
}

func cmdBindAccessory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bind-accessory", flag.ExitOnError)
	configFlag := fs.String("config", "", "configuration file path")
	controller := fs.Uint("controller", 0, "slave address of the bound controller")
	slave := fs.Uint("slave", 0, "Modbus address to assign to the accessory (2-247)")
	productArg := fs.String("product", "VMN-05LM02", "accessory product (name or numeric ID)")
	wait := fs.Duration("wait", 2*time.Minute, "how long to wait for the RF handshake (0 = don't wait)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	product, err := parseProduct(*productArg)
	if err != nil {
		return err
	}

	s, err := connect(*configFlag)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.b.BindAccessory(ctx, uint8(*controller), uint8(*slave), product); err != nil {
		return err
	}
	fmt.Printf("listening window open: trigger binding on the %s now\n", product)

	if *wait <= 0 {
		return nil
	}
	return waitForBinding(ctx, s.b, *wait)
}

// waitForBinding polls the binding machine until it reaches a terminal
// state or the deadline passes. The RF handshake takes seconds to
// minutes depending on when the device answers.
func waitForBinding(ctx context.Context, b *bridge.Bridge, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("binding did not complete within %s", timeout)
		case <-ticker.C:
			status := b.BindingStatus(ctx)
			switch {
			case status.Completed():
				fmt.Printf("binding completed: %s\n", status)
				return nil
			case status.Failed():
				return fmt.Errorf("binding failed: %s", status)
			}
		}
	}
}

func cmdBindStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bind-status", flag.ExitOnError)
	configFlag := fs.String("config", "", "configuration file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := connect(*configFlag)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Println(s.b.BindingStatus(ctx))
	return nil
}

func cmdUnbind(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("unbind", flag.ExitOnError)
	configFlag := fs.String("config", "", "configuration file path")
	slave := fs.Uint("slave", 0, "slave address of the node to remove")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := connect(*configFlag)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.b.RemoveNode(ctx, uint8(*slave)); err != nil {
		return err
	}
	fmt.Printf("node %d removed\n", *slave)
	return nil
}

// ─── Serve mode ────────────────────────────────────────────────────

func cmdServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configFlag := fs.String("config", "", "configuration file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := connect(*configFlag)
	if err != nil {
		return err
	}
	defer s.Close()
	log := s.log

	log.Info("starting airiosctl serve",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	opts := service.Options{
		Bridge:     s.b,
		Topics:     mqtt.Topics{Base: s.cfg.MQTT.BaseTopic},
		Interval:   s.cfg.PollInterval(),
		WithStatus: s.cfg.Poll.WithStatus,
		Logger:     log,
	}

	// History store (optional)
	if s.cfg.History.Enabled {
		db, err := database.Open(database.Config{
			Path:        s.cfg.History.Database.Path,
			WALMode:     s.cfg.History.Database.WALMode,
			BusyTimeout: s.cfg.History.Database.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("history store ready", "path", s.cfg.History.Database.Path)

		opts.Store = history.NewSQLiteStore(db.DB)
		opts.Retention = s.cfg.Retention()
	} else {
		log.Info("history disabled")
	}

	// MQTT (optional)
	if s.cfg.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(s.cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", s.cfg.MQTT.Broker.Host, s.cfg.MQTT.Broker.Port),
			"client_id", s.cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		opts.Publisher = mqttClient
		opts.Topics = mqttClient.Topics()
	} else {
		log.Info("MQTT disabled")
	}

	svc, err := service.New(opts)
	if err != nil {
		return err
	}
	if err := svc.Run(ctx); err != nil {
		return err
	}

	log.Info("airiosctl stopped")
	return nil
}
