package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/huelink/internal/bridge"
	"github.com/nerrad567/huelink/internal/discovery"
)

var (
	discoverAll     bool
	discoverTimeout int
)

// discoverCmd scans the network and the cloud registry for bridges.
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Scan for Hue bridges on the network",
	Long: `Scan for Hue bridges using multicast DNS and the cloud registry,
merge the results, and print one row per bridge found.

Bridges already paired are hidden unless --all is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		mdnsTimeout := cfg.GetMDNSTimeout()
		if cmd.Flags().Changed("timeout") {
			mdnsTimeout = time.Duration(discoverTimeout) * time.Second
		}

		opts := discovery.ScannerOptions{Logger: log}
		if cfg.Discovery.MDNS.Enabled {
			opts.MDNS = discovery.NewMDNSTransport(discovery.MDNSOptions{
				Service: cfg.Discovery.MDNS.Service,
				Domain:  cfg.Discovery.MDNS.Domain,
				Timeout: mdnsTimeout,
				Logger:  log,
			})
		}
		opts.Endpoint = discovery.NewEndpointTransport(discovery.EndpointOptions{
			URL:     cfg.Discovery.Endpoint.URL,
			Timeout: cfg.GetEndpointTimeout(),
			Logger:  log,
		})
		scanner := discovery.NewScanner(opts)

		// Known bridges are filtered out of the results unless --all
		// asks for everything. Only that filter needs the database.
		var known []bridge.Bridge
		if !discoverAll {
			db, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // read-only usage

			known, err = bridge.NewSQLiteRepository(db.DB).List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing saved bridges: %w", err)
			}
		}

		found := scanner.Discover(cmd.Context(), known)
		if len(found) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No bridges found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "IP ADDRESS\tMDNS ID\tENDPOINT ID")
		for _, b := range found {
			fmt.Fprintf(w, "%s\t%s\t%s\n", b.IPAddress, orDash(b.MDNSID), orDash(b.EndpointID))
		}
		return w.Flush()
	},
}

// orDash substitutes a dash for empty table cells.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverAll, "all", false, "include bridges that are already paired")
	discoverCmd.Flags().IntVar(&discoverTimeout, "timeout", 0, "mDNS browse window in seconds (default from config)")
	rootCmd.AddCommand(discoverCmd)
}
