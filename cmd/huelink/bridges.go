package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nerrad567/huelink/internal/bridge"
)

// bridgesCmd groups the saved-bridge subcommands.
var bridgesCmd = &cobra.Command{
	Use:   "bridges",
	Short: "Manage paired bridges",
}

// bridgesListCmd prints the saved bridges.
var bridgesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List paired bridges",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := openDatabase(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck // read-only usage

		bridges, err := bridge.NewSQLiteRepository(db.DB).List(cmd.Context())
		if err != nil {
			return err
		}
		if len(bridges) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No bridges paired.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tBRIDGE ID\tIP ADDRESS\tPAIRED")
		for _, b := range bridges {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				b.ID, orDash(b.BridgeID), b.IPAddress, b.CreatedAt.UTC().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

// bridgesRemoveCmd forgets a paired bridge and its credentials.
var bridgesRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a paired bridge",
	Long: `Remove a paired bridge and its stored credentials. The bridge itself
keeps the issued application key; pairing again reuses the button
press flow from scratch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := openDatabase(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck // nothing useful to do with a close error here

		if err := bridge.NewSQLiteRepository(db.DB).Delete(cmd.Context(), args[0]); err != nil {
			if errors.Is(err, bridge.ErrBridgeNotFound) {
				return fmt.Errorf("no saved bridge with id %q; run 'huelink bridges list'", args[0])
			}
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed bridge %s\n", args[0])
		return nil
	},
}

func init() {
	bridgesCmd.AddCommand(bridgesListCmd, bridgesRemoveCmd)
	rootCmd.AddCommand(bridgesCmd)
}
