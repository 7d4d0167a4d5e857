package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nerrad567/huelink/internal/bridge"
	"github.com/nerrad567/huelink/internal/clip"
	"github.com/nerrad567/huelink/internal/remote"
)

var (
	dispatchBridgeID  string
	dispatchLocalOnly bool
	dispatchData      string
)

// getCmd fetches resources from a bridge.
var getCmd = &cobra.Command{
	Use:   "get [type] [id]",
	Short: "Fetch resources from a bridge",
	Long: `Fetch resources from a paired bridge and print them as JSON.

With no arguments every resource is returned; a type narrows the
listing and a type plus id selects one resource. The request goes to
the bridge's LAN address first and falls over to the cloud relay when
the local attempt times out.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rtype, path := dispatchArgs(args)
		return runDispatch(cmd, func(d *dispatcher) (*clip.Response, error) {
			return d.router.Fetch(cmd.Context(), d.target, rtype, path)
		})
	},
}

// createCmd adds a resource to a bridge.
var createCmd = &cobra.Command{
	Use:   "create <type>",
	Short: "Create a resource on a bridge",
	Long: `Create a resource of the given type. The resource body comes from
--data, either inline JSON or @file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := loadData(dispatchData)
		if err != nil {
			return err
		}
		return runDispatch(cmd, func(d *dispatcher) (*clip.Response, error) {
			return d.router.Create(cmd.Context(), d.target, clip.ResourceType(args[0]), "", body)
		})
	},
}

// updateCmd modifies a resource on a bridge.
var updateCmd = &cobra.Command{
	Use:   "update <type> <id>",
	Short: "Update a resource on a bridge",
	Long: `Update the resource with the given type and id. The change body
comes from --data, either inline JSON or @file.

Updates never run twice: the local attempt either completes or times
out before the relay is tried.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := loadData(dispatchData)
		if err != nil {
			return err
		}
		return runDispatch(cmd, func(d *dispatcher) (*clip.Response, error) {
			return d.router.Update(cmd.Context(), d.target, clip.ResourceType(args[0]), args[1], body)
		})
	},
}

// removeCmd deletes a resource from a bridge.
var removeCmd = &cobra.Command{
	Use:   "remove <type> <id>",
	Short: "Delete a resource from a bridge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDispatch(cmd, func(d *dispatcher) (*clip.Response, error) {
			return d.router.Remove(cmd.Context(), d.target, clip.ResourceType(args[0]), args[1])
		})
	},
}

// dispatcher bundles what one dispatch command needs.
type dispatcher struct {
	router *clip.Router
	target clip.Target
}

// runDispatch wires up the router and target shared by the four verb
// commands, runs the operation, and prints the response envelope.
func runDispatch(cmd *cobra.Command, op func(*dispatcher) (*clip.Response, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	db, err := openDatabase(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // read-mostly usage

	b, err := resolveBridge(cmd.Context(), bridge.NewSQLiteRepository(db.DB), dispatchBridgeID)
	if err != nil {
		return err
	}

	router, err := newRouter(cfg, log)
	if err != nil {
		return err
	}

	target := clip.Target{
		IPAddress:      b.IPAddress,
		ApplicationKey: b.ApplicationKey,
	}
	if !dispatchLocalOnly {
		target.BearerToken = loadBearer(cmd.Context(), cfg, remote.NewTokenRepository(db.DB), log)
	}

	resp, err := op(&dispatcher{router: router, target: target})
	if err != nil {
		return err
	}

	for _, apiErr := range resp.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "bridge error: %s\n", apiErr.Description)
	}

	return printData(cmd, resp.Data)
}

// dispatchArgs maps optional [type] [id] arguments onto the router's
// resource type and path.
func dispatchArgs(args []string) (clip.ResourceType, string) {
	var rtype clip.ResourceType
	var path string
	if len(args) > 0 {
		rtype = clip.ResourceType(args[0])
	}
	if len(args) > 1 {
		path = args[1]
	}
	return rtype, path
}

// loadData resolves a --data value: inline JSON, or @file to read from
// disk. The payload must be valid JSON; the bridge's own validation
// covers everything beyond syntax.
func loadData(data string) (json.RawMessage, error) {
	if data == "" {
		return nil, fmt.Errorf("--data is required; pass inline JSON or @file")
	}

	raw := []byte(data)
	if strings.HasPrefix(data, "@") {
		var err error
		raw, err = os.ReadFile(strings.TrimPrefix(data, "@"))
		if err != nil {
			return nil, fmt.Errorf("reading --data file: %w", err)
		}
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("--data is not valid JSON")
	}
	return json.RawMessage(raw), nil
}

// printData pretty-prints the envelope's data array.
func printData(cmd *cobra.Command, data json.RawMessage) error {
	if len(data) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		// Not JSON we can re-shape; show it as received.
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil //nolint:nilerr // raw output already delivered
	}
	fmt.Fprintln(cmd.OutOrStdout(), buf.String())
	return nil
}

// addDispatchFlags registers the flags every verb command shares.
func addDispatchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&dispatchBridgeID, "bridge", "", "bridge id to dispatch to (default: the only paired bridge)")
	cmd.Flags().BoolVar(&dispatchLocalOnly, "local-only", false, "never fall over to the cloud relay")
}

func init() {
	addDispatchFlags(getCmd)
	addDispatchFlags(createCmd)
	addDispatchFlags(updateCmd)
	addDispatchFlags(removeCmd)
	createCmd.Flags().StringVar(&dispatchData, "data", "", "resource body: inline JSON or @file")
	updateCmd.Flags().StringVar(&dispatchData, "data", "", "change body: inline JSON or @file")
	rootCmd.AddCommand(getCmd, createCmd, updateCmd, removeCmd)
}
