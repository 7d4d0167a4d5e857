package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/huelink/internal/api"
	"github.com/nerrad567/huelink/internal/bridge"
	"github.com/nerrad567/huelink/internal/clip"
	"github.com/nerrad567/huelink/internal/discovery"
	"github.com/nerrad567/huelink/internal/infrastructure/database"
	"github.com/nerrad567/huelink/internal/infrastructure/influxdb"
	"github.com/nerrad567/huelink/internal/infrastructure/logging"
	"github.com/nerrad567/huelink/internal/infrastructure/mqtt"
	"github.com/nerrad567/huelink/internal/monitor"
)

// serveCmd runs the long-lived daemon.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the huelink daemon",
	Long: `Run the huelink daemon: the REST API, the WebSocket event feed, the
state monitor, and the MQTT mirror. The daemon runs until interrupted
and shuts its components down in reverse start order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// runServe is the daemon logic, separated from the command for
// testability. Returning an error lets main handle exit codes
// consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func runServe(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting huelink",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database and apply migrations
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database ready", "path", cfg.Database.Path)

	bridgeRepo := bridge.NewSQLiteRepository(db.DB)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Dispatch router used by the monitor. Telemetry is only wired when
	// the concrete client exists; a typed-nil interface would defeat the
	// router's nil check.
	routerOpts := clip.RouterOptions{
		Client: clip.NewClient(clip.ClientOptions{
			TLSVerify: cfg.Dispatch.TLSVerify,
			Logger:    log,
		}),
		LocalTimeout: cfg.GetLocalDispatchTimeout(),
		RemoteBase:   cfg.Remote.APIBase,
		Logger:       log,
	}
	if influxClient != nil {
		routerOpts.Telemetry = influxClient
	}
	router, err := clip.NewRouter(routerOpts)
	if err != nil {
		return fmt.Errorf("creating dispatch router: %w", err)
	}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
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
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Discovery scanner for the on-demand scan endpoint
	scanOpts := discovery.ScannerOptions{Logger: log}
	if cfg.Discovery.MDNS.Enabled {
		scanOpts.MDNS = discovery.NewMDNSTransport(discovery.MDNSOptions{
			Service: cfg.Discovery.MDNS.Service,
			Domain:  cfg.Discovery.MDNS.Domain,
			Timeout: cfg.GetMDNSTimeout(),
			Logger:  log,
		})
	}
	scanOpts.Endpoint = discovery.NewEndpointTransport(discovery.EndpointOptions{
		URL:     cfg.Discovery.Endpoint.URL,
		Timeout: cfg.GetEndpointTimeout(),
		Logger:  log,
	})
	scanner := discovery.NewScanner(scanOpts)

	// WebSocket hub, created here so the monitor can broadcast through
	// it. The hub outlives the API server and stops with the run context.
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	apiDeps := api.Deps{
		Config:  cfg.API,
		WS:      cfg.WebSocket,
		Logger:  log,
		Bridges: bridgeRepo,
		Scanner: scanner,
		Hub:     hub,
		Version: version,
	}
	if influxClient != nil {
		apiDeps.Telemetry = influxClient
	}

	server, err := api.New(apiDeps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Start state monitor (optional)
	if cfg.Monitor.Enabled {
		monOpts := monitor.Options{
			Config:      cfg.Monitor,
			Dispatcher:  router,
			Bridges:     bridgeRepo,
			Broadcaster: hub,
			Logger:      log,
		}
		if mqttClient != nil {
			monOpts.Publisher = mqttClient
		}

		mon, monErr := monitor.New(monOpts)
		if monErr != nil {
			return fmt.Errorf("creating monitor: %w", monErr)
		}
		mon.Start(ctx)
		defer func() {
			log.Info("stopping monitor")
			mon.Stop()
		}()
		log.Info("monitor started", "interval", cfg.GetMonitorInterval())
	} else {
		log.Info("monitor disabled")
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. Monitor (if enabled)
	// 2. API server
	// 3. MQTT (if enabled)
	// 4. InfluxDB (if enabled)
	// 5. Database

	log.Info("huelink stopped")
	return nil
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	// Check database
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	// Check MQTT (if enabled)
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	// Check InfluxDB (if enabled)
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
