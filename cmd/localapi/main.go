// Local API - a local HTTP, SSE, WebSocket and GraphQL gateway into a
// running game client.
//
// This binary embeds the gateway in a simulated client: a player walks
// around a world at 20 ticks per second and the gateway exposes that
// state on the loopback interface. Position and world changes are
// mirrored to MQTT and recorded in InfluxDB when those are enabled. Every
// write into the game is kept in the SQLite audit log.
//
// Signals:
//   - SIGINT, SIGTERM: stop the gateway and exit
//   - SIGHUP: reload the config file (endpoint flags apply immediately)
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/local-api-gateway/internal/audit"
	"github.com/nerrad567/local-api-gateway/internal/gateway"
	"github.com/nerrad567/local-api-gateway/internal/host"
	"github.com/nerrad567/local-api-gateway/internal/host/sim"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/config"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/database"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/influxdb"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/mqtt"
	"github.com/nerrad567/local-api-gateway/internal/relay"
	"github.com/nerrad567/local-api-gateway/internal/tracker"
	"github.com/nerrad567/local-api-gateway/internal/waypoint"
	"github.com/nerrad567/local-api-gateway/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=0.3.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "0.3.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

const (
	// defaultConfigPath is used when LOCALAPI_CONFIG is unset.
	defaultConfigPath = "configs/config.yaml"

	// modID is this gateway's entry in the mods list.
	modID = "localapi"

	// minimapMod is the simulated minimap's entry in the mods list.
	minimapMod     = "xaerominimap"
	minimapVersion = "24.6.1"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting local API",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath, explicit := getConfigPath()
	cfg, storePath, err := loadConfig(configPath, explicit)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if storePath == "" {
		log.Info("no config file, using defaults", "path", configPath)
	} else {
		log.Info("configuration loaded", "path", storePath)
	}
	store := config.NewStore(storePath, cfg)

	log = logging.New(cfg.Logging, version)

	// Waypoint store behind the simulated minimap.
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	game := sim.New(cfg.Sim, waypoint.NewSQLiteRepository(db.DB), log,
		host.ModInfo{ID: modID, Version: version},
		host.ModInfo{ID: minimapMod, Version: minimapVersion},
	)
	// Requests reach the game through the audited view; the detector reads
	// through it too. Close runs after the tick loop has stopped.
	auditLog := audit.NewSQLiteRepository(db.DB)
	audited := audit.Wrap(game, auditLog, log)
	defer func() {
		if closeErr := audited.Close(); closeErr != nil {
			log.Error("error flushing audit log", "error", closeErr)
		}
	}()

	relays := connectRelays(ctx, cfg, log)
	defer relays.close(log)

	gw, err := gateway.New(gateway.Deps{
		Config:    store,
		Logger:    log,
		Operator:  game,
		Identity:  sim.Identity(cfg.Sim),
		Version:   version,
		Audit:     auditLog,
		Observers: relays.observers,
	})
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}
	for _, s := range relays.services {
		gw.AddService(s)
	}
	if relays.mqtt != nil {
		gw.AddService(relay.NewChatRelay(relays.mqtt, relays.mqtt.Topics(), relays.mqtt.QoS(),
			gw.Registry(), gw.Executor(), log))
	}

	// The tick loop outlives the gateway so in-flight host calls drain
	// during Stop.
	tickCtx, stopTicks := context.WithCancel(context.Background())
	ticksDone := make(chan struct{})
	go func() {
		defer close(ticksDone)
		runTicks(tickCtx, tickInterval(cfg.Sim.TickRate), game, audited, gw)
	}()
	defer func() {
		stopTicks()
		<-ticksDone
	}()

	if cfg.Gateway.AutoStart {
		startGateway(ctx, gw, log)
	} else {
		log.Info("auto start disabled, gateway stopped")
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received, cleaning up")
			if gw.State() == gateway.Running {
				if err := gw.Stop(); err != nil {
					log.Error("error stopping gateway", "error", err)
				}
			}
			log.Info("local API stopped")
			return nil
		case <-hup:
			reload(ctx, store, gw, log)
		}
	}
}

// getConfigPath returns the configuration file path and whether it was
// set explicitly through LOCALAPI_CONFIG.
func getConfigPath() (string, bool) {
	if path := os.Getenv("LOCALAPI_CONFIG"); path != "" {
		return path, true
	}
	return defaultConfigPath, false
}

// loadConfig loads path. A missing file at the default path falls back to
// the built-in defaults, reported by an empty storePath.
func loadConfig(path string, explicit bool) (cfg *config.Config, storePath string, err error) {
	if _, statErr := os.Stat(path); !explicit && errors.Is(statErr, os.ErrNotExist) {
		cfg = config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, "", fmt.Errorf("validating defaults: %w", err)
		}
		return cfg, "", nil
	}
	cfg, err = config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// startGateway starts gw. Failures are reported to the operator by the
// gateway and logged here; the process keeps running so a SIGHUP with a
// corrected config can retry.
func startGateway(ctx context.Context, gw *gateway.Gateway, log *logging.Logger) {
	if err := gw.Start(ctx); err != nil {
		log.Error("gateway did not start", "error", err)
		return
	}
	log.Info("gateway running", "address", gw.Addr())
}

// reload re-reads the config file. A stopped gateway with auto_start set
// is started again, so a bind failure can be fixed without a restart.
func reload(ctx context.Context, store *config.Store, gw *gateway.Gateway, log *logging.Logger) {
	cfg, err := store.Reload()
	if err != nil {
		log.Error("config reload failed, keeping previous config", "error", err)
		return
	}
	log.Info("configuration reloaded", "path", store.Path())
	if cfg.Gateway.AutoStart && gw.State() == gateway.Stopped {
		startGateway(ctx, gw, log)
	}
}

// Ticker receives one call per simulation tick. *gateway.Gateway
// satisfies it.
type Ticker interface {
	Tick(h host.Host)
}

// runTicks steps the simulation and hands h to the gateway until ctx is
// done.
func runTicks(ctx context.Context, interval time.Duration, game *sim.Sim, h host.Host, t Ticker) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			game.Step()
			t.Tick(h)
		}
	}
}

// tickInterval converts a tick rate to the period between ticks.
func tickInterval(rate int) time.Duration {
	if rate < 1 {
		rate = 1
	}
	return time.Second / time.Duration(rate)
}

// relaySet holds the optional MQTT and InfluxDB connections and the
// relays built on them.
type relaySet struct {
	mqtt      *mqtt.Client
	influx    *influxdb.Client
	observers []tracker.Observer
	services  []gateway.Service
}

// connectRelays connects to the enabled brokers. A broker that cannot be
// reached is logged and skipped; the gateway runs without it.
func connectRelays(ctx context.Context, cfg *config.Config, log *logging.Logger) *relaySet {
	rs := &relaySet{}

	if cfg.MQTT.Enabled {
		client, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			log.Warn("MQTT unavailable, relays disabled", "error", err)
		} else {
			client.SetLogger(log)
			client.SetOnConnect(func() { log.Info("MQTT reconnected") })
			client.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
			log.Info("MQTT connected",
				"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
				"client_id", cfg.MQTT.Broker.ClientID,
				"topic_prefix", cfg.MQTT.TopicPrefix,
			)

			mirror := relay.NewMirror(client, client.Topics(), client.QoS(), log)
			rs.mqtt = client
			rs.observers = append(rs.observers, mirror)
			rs.services = append(rs.services, mirror)
		}
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.InfluxDB.Enabled {
		client, err := influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			log.Warn("InfluxDB unavailable, telemetry disabled", "error", err)
		} else {
			client.SetOnError(func(err error) {
				log.Error("InfluxDB write error", "error", err)
			})
			log.Info("InfluxDB connected",
				"url", cfg.InfluxDB.URL,
				"org", cfg.InfluxDB.Org,
				"bucket", cfg.InfluxDB.Bucket,
			)

			telemetry := relay.NewTelemetry(client, cfg.Sim.PlayerName, log)
			rs.influx = client
			rs.observers = append(rs.observers, telemetry)
			rs.services = append(rs.services, telemetry)
		}
	} else {
		log.Info("InfluxDB disabled")
	}

	return rs
}

// close disconnects in reverse order of connection.
func (rs *relaySet) close(log *logging.Logger) {
	if rs.influx != nil {
		log.Info("closing InfluxDB connection")
		if err := rs.influx.Close(); err != nil {
			log.Error("error closing InfluxDB", "error", err)
		}
	}
	if rs.mqtt != nil {
		log.Info("disconnecting from MQTT")
		if err := rs.mqtt.Close(); err != nil {
			log.Error("error closing MQTT", "error", err)
		}
	}
}
