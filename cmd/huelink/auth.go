package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/huelink/internal/remote"
)

var (
	authDeviceName string
	authState      string
)

// authCmd groups the remote authorisation subcommands.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage cloud relay authorisation",
	Long: `Authorise huelink against the cloud relay and manage the stored
tokens. A valid access token lets dispatch commands fall over to the
relay when the bridge is unreachable locally.`,
}

// authLoginCmd runs the interactive authorisation flow.
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorise huelink with the cloud relay",
	Long: `Run the interactive authorisation flow. A browser URL is printed;
opening it and approving access redirects back to a short-lived
loopback listener, which completes the exchange and stores the
resulting tokens locally.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if authDeviceName != "" {
			cfg.App.DeviceName = authDeviceName
		}
		log := newLogger(cfg)

		db, err := openDatabase(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck // nothing useful to do with a close error here

		flow, err := newFlow(cfg, log)
		if err != nil {
			return err
		}

		req, err := flow.AuthorizationRequest(authState)
		if err != nil {
			return err
		}

		// Bind the listener before printing the URL so the redirect
		// cannot race a server that is not up yet.
		cb, err := remote.NewCallbackServer(remote.CallbackOptions{
			ListenAddr:    cfg.Remote.CallbackListen,
			ExpectedState: req.State,
			Logger:        log,
		})
		if err != nil {
			return fmt.Errorf("starting callback listener: %w", err)
		}
		defer cb.Close() //nolint:errcheck // short-lived listener

		fmt.Fprintf(cmd.OutOrStdout(), "Open this URL in your browser to authorise huelink:\n\n  %s\n\n", req.URL)
		fmt.Fprintf(cmd.OutOrStdout(), "Waiting for the redirect on %s (Ctrl+C to abort)...\n", cb.Addr())

		result, err := cb.Wait(cmd.Context())
		if err != nil {
			return err
		}

		tokens, err := flow.ExchangeCode(cmd.Context(), result.Code, req.Verifier)
		if err != nil {
			return fmt.Errorf("exchanging authorisation code: %w", err)
		}

		if err := remote.NewTokenRepository(db.DB).Save(cmd.Context(), tokens); err != nil {
			return fmt.Errorf("saving tokens: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Authorised. Access token valid until %s UTC.\n", tokens.Expiration)
		return nil
	},
}

// authRefreshCmd exchanges the refresh token for a fresh grant.
var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		tokens := remote.NewTokenRepository(db.DB)
		set, err := tokens.Get(cmd.Context())
		if err != nil {
			if errors.Is(err, remote.ErrNoTokens) {
				return fmt.Errorf("no tokens stored; run 'huelink auth login' first")
			}
			return err
		}

		flow, err := newFlow(cfg, log)
		if err != nil {
			return err
		}

		fresh, err := flow.Refresh(cmd.Context(), set.RefreshToken)
		if err != nil {
			if errors.Is(err, remote.ErrRefreshTokenExpired) {
				return fmt.Errorf("refresh token has expired; run 'huelink auth login' again")
			}
			return err
		}

		if err := tokens.Save(cmd.Context(), fresh); err != nil {
			return fmt.Errorf("saving tokens: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Refreshed. Access token valid until %s UTC.\n", fresh.Expiration)
		return nil
	},
}

// authStatusCmd reports the stored token set without exposing the
// tokens themselves.
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored authorisation state",
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

		set, err := remote.NewTokenRepository(db.DB).Get(cmd.Context())
		if err != nil {
			if errors.Is(err, remote.ErrNoTokens) {
				fmt.Fprintln(cmd.OutOrStdout(), "No tokens stored. Run 'huelink auth login' to authorise.")
				return nil
			}
			return err
		}

		validity := "valid"
		if set.Expired(time.Now()) {
			validity = "expired (run 'huelink auth refresh')"
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Token type:  %s\n", set.TokenType)
		fmt.Fprintf(cmd.OutOrStdout(), "Obtained:    %s\n", set.CreatedAt.UTC().Format(time.RFC3339))
		fmt.Fprintf(cmd.OutOrStdout(), "Expires:     %s UTC\n", set.Expiration)
		fmt.Fprintf(cmd.OutOrStdout(), "Access:      %s\n", validity)
		return nil
	},
}

func init() {
	authLoginCmd.Flags().StringVar(&authDeviceName, "device-name", "", "name shown on the consent page (default from config)")
	authLoginCmd.Flags().StringVar(&authState, "state", "", "opaque value round-tripped through the redirect")
	authCmd.AddCommand(authLoginCmd, authRefreshCmd, authStatusCmd)
	rootCmd.AddCommand(authCmd)
}
