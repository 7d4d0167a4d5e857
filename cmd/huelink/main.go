// huelink - Philips Hue bridge toolkit
//
// This is the main entry point for the huelink CLI and daemon. huelink
// discovers Hue bridges on the local network, pairs with them, and issues
// authenticated CLIP v2 requests - transparently failing over from the
// local connection to the cloud relay, and managing the OAuth tokens the
// relay requires.
//
// One binary carries both the one-shot commands (discover, pair, get,
// auth, ...) and the long-running serve daemon.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	_ "github.com/nerrad567/huelink/migrations"

	"github.com/nerrad567/huelink/internal/bridge"
	"github.com/nerrad567/huelink/internal/clip"
	"github.com/nerrad567/huelink/internal/infrastructure/config"
	"github.com/nerrad567/huelink/internal/infrastructure/database"
	"github.com/nerrad567/huelink/internal/infrastructure/logging"
	"github.com/nerrad567/huelink/internal/remote"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "huelink.yaml"

// cfgFile is the --config flag value.
var cfgFile string

// rootCmd is the base command for huelink.
var rootCmd = &cobra.Command{
	Use:   "huelink",
	Short: "Discover, pair, and talk to Philips Hue bridges",
	Long: `huelink locates Hue bridges on the local network, pairs with them,
and issues authenticated CLIP v2 requests - transparently choosing
between a direct local connection and the cloud relay, and managing
the OAuth tokens the relay requires.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./huelink.yaml)")
}

// loadConfig resolves and loads the configuration.
//
// Resolution order: --config flag, then HUELINK_CONFIG, then the default
// path. A missing default file falls back to built-in defaults; a missing
// explicitly-named file is an error.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	explicit := path != ""
	if path == "" {
		if env := os.Getenv("HUELINK_CONFIG"); env != "" {
			path = env
			explicit = true
		} else {
			path = defaultConfigPath
		}
	}

	if !explicit {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Defaults()
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the logger from config.
func newLogger(cfg *config.Config) *logging.Logger {
	return logging.New(cfg.Logging, version)
}

// openDatabase opens the SQLite store and applies pending migrations.
func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // the migrate failure is the error worth reporting
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// newRouter builds the dispatch router for one-shot commands.
func newRouter(cfg *config.Config, log *logging.Logger) (*clip.Router, error) {
	client := clip.NewClient(clip.ClientOptions{
		TLSVerify: cfg.Dispatch.TLSVerify,
		Logger:    log,
	})
	return clip.NewRouter(clip.RouterOptions{
		Client:       client,
		LocalTimeout: cfg.GetLocalDispatchTimeout(),
		RemoteBase:   cfg.Remote.APIBase,
		Logger:       log,
	})
}

// newFlow builds the remote authorisation flow from config. Returns an
// error when the OAuth application credentials are not configured.
func newFlow(cfg *config.Config, log *logging.Logger) (*remote.Flow, error) {
	if cfg.Remote.ClientID == "" || cfg.Remote.ClientSecret == "" {
		return nil, fmt.Errorf("remote API credentials are not configured; set remote.client_id and remote.client_secret")
	}
	return remote.NewFlow(remote.FlowOptions{
		ClientID:     cfg.Remote.ClientID,
		ClientSecret: cfg.Remote.ClientSecret,
		RedirectURI:  cfg.Remote.RedirectURI,
		DeviceName:   cfg.App.DeviceName,
		APIBase:      cfg.Remote.APIBase,
		Logger:       log,
	})
}

// resolveBridge picks the bridge a dispatch command operates on. With an
// explicit id the repository is queried directly; otherwise a single
// saved bridge is used, and several saved bridges demand --bridge.
func resolveBridge(ctx context.Context, repo bridge.Repository, id string) (*bridge.Bridge, error) {
	if id != "" {
		b, err := repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, bridge.ErrBridgeNotFound) {
				return nil, fmt.Errorf("no saved bridge with id %q; run 'huelink bridges list'", id)
			}
			return nil, err
		}
		return b, nil
	}

	bridges, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	switch len(bridges) {
	case 0:
		return nil, fmt.Errorf("no bridges paired; run 'huelink discover' and 'huelink pair'")
	case 1:
		return &bridges[0], nil
	default:
		return nil, fmt.Errorf("%d bridges paired; choose one with --bridge", len(bridges))
	}
}

// loadBearer fetches the stored remote access token for dispatch,
// refreshing it first when expired. Returns the empty string when no
// usable token exists, which disables the remote fallback.
func loadBearer(ctx context.Context, cfg *config.Config, tokens remote.TokenRepository, log *logging.Logger) string {
	set, err := tokens.Get(ctx)
	if err != nil {
		if !errors.Is(err, remote.ErrNoTokens) {
			log.Warn("reading stored tokens", "error", err)
		}
		return ""
	}

	if !set.Expired(time.Now()) {
		return set.AccessToken
	}

	// Access token expired; try a refresh so the command still gets its
	// remote fallback.
	flow, err := newFlow(cfg, log)
	if err != nil {
		log.Warn("stored access token expired and cannot refresh", "error", err)
		return ""
	}

	fresh, err := flow.Refresh(ctx, set.RefreshToken)
	if err != nil {
		if errors.Is(err, remote.ErrRefreshTokenExpired) {
			log.Warn("refresh token expired; run 'huelink auth login'")
		} else {
			log.Warn("refreshing access token", "error", err)
		}
		return ""
	}

	if err := tokens.Save(ctx, fresh); err != nil {
		log.Warn("saving refreshed tokens", "error", err)
	}
	return fresh.AccessToken
}
