package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nerrad567/huelink/internal/bridge"
	"github.com/nerrad567/huelink/internal/clip"
	"github.com/nerrad567/huelink/internal/infrastructure/config"
	"github.com/nerrad567/huelink/internal/pairing"
)

var pairTimeout int

// pairCmd performs first-contact pairing with a bridge.
var pairCmd = &cobra.Command{
	Use:   "pair <ip>",
	Short: "Pair with a bridge by pressing its link button",
	Long: `Pair with the bridge at the given IP address. The bridge is polled
once per second until its link button is pressed or the timeout
elapses. Press Ctrl+C once to stop after the poll in flight; press it
again to abort immediately.

On success the bridge and its credentials are saved locally.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ip := args[0]

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		db, err := openDatabase(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck // nothing useful to do with a close error here

		client := clip.NewClient(clip.ClientOptions{
			TLSVerify: cfg.Dispatch.TLSVerify,
			Logger:    log,
		})
		coord, err := pairing.NewCoordinator(pairing.Options{
			Transport:  client,
			DeviceType: deviceTypeFromConfig(cfg),
			Logger:     log,
		})
		if err != nil {
			return err
		}

		timeout := cfg.Pairing.Timeout
		if cmd.Flags().Changed("timeout") {
			timeout = pairTimeout
		}
		ctrl := pairing.NewController(timeout)

		// The root context is already signal-bound, but pairing wants a
		// two-stage stop: the first interrupt requests a cooperative
		// cancel that lands at the next poll boundary, the second tears
		// the attempt down immediately.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 2)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			select {
			case <-sigCh:
				fmt.Fprintln(cmd.ErrOrStderr(), "Stopping after the current poll; press Ctrl+C again to abort.")
				ctrl.Cancel()
			case <-ctx.Done():
				return
			}
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()

		fmt.Fprintf(cmd.OutOrStdout(), "Press the link button on the bridge at %s (%d seconds)...\n", ip, ctrl.TimeoutSeconds())

		b, err := coord.FirstContact(ctx, ip, ctrl)
		if err != nil {
			switch {
			case errors.Is(err, pairing.ErrCancelled):
				fmt.Fprintln(cmd.OutOrStdout(), "Pairing cancelled.")
				return nil
			case errors.Is(err, pairing.ErrTimeout):
				return fmt.Errorf("link button was not pressed within %d seconds", ctrl.TimeoutSeconds())
			default:
				return err
			}
		}

		// Save with the pairing context: a success that raced the first
		// interrupt must still be persisted even though the root context
		// is gone.
		if err := bridge.NewSQLiteRepository(db.DB).Save(ctx, b); err != nil {
			return fmt.Errorf("saving bridge: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Paired with bridge %s at %s\n", b.ID, b.IPAddress)
		return nil
	},
}

// deviceTypeFromConfig assembles the pairing devicetype from the
// configured application identity. Empty means the coordinator derives
// one from the hostname.
func deviceTypeFromConfig(cfg *config.Config) string {
	if cfg.App.Name != "" && cfg.App.DeviceName != "" {
		return cfg.App.Name + "#" + cfg.App.DeviceName
	}
	return ""
}

func init() {
	pairCmd.Flags().IntVar(&pairTimeout, "timeout", pairing.DefaultTimeoutSeconds, "polling window in seconds (0-30)")
	rootCmd.AddCommand(pairCmd)
}
