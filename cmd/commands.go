package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/1023-Ventures/qlaunch/internal/ws"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func addrFlag(cmd *cobra.Command) string {
	addr, _ := cmd.Flags().GetString("addr")
	return addr
}

func newSnapshotCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the running daemon's workspace snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := newAPIClient(addrFlag(cmd)).Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			printSnapshot(cmd.OutOrStdout(), info)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Ask the daemon to push a fresh snapshot to every UI client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newAPIClient(addrFlag(cmd)).Refresh(cmd.Context()); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "Snapshot refresh initiated")
			return nil
		},
	}
}

func newPatternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Show or replace the watch patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newAPIClient(addrFlag(cmd)).WatchPatterns(cmd.Context())
			if err != nil {
				return err
			}
			printPatterns(cmd.OutOrStdout(), p.Patterns, p.WatcherCount)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set PATTERN...",
		Short: "Replace the watch patterns",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newAPIClient(addrFlag(cmd)).SetWatchPatterns(cmd.Context(), args)
			if err != nil {
				return err
			}
			printPatterns(cmd.OutOrStdout(), p.Patterns, -1)
			return nil
		},
	})
	return cmd
}

func newTailCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Stream notifications from the daemon as a UI client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			log := logger.Discard()
			if verbose {
				log = logger.NewConsole(cmd.ErrOrStderr())
			}
			return tail(ctx, addrFlag(cmd), cmd, log)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log connection details to stderr")
	return cmd
}

func tail(ctx context.Context, baseURL string, cmd *cobra.Command, log logger.Logger) error {
	client := ws.NewClient(baseURL, models.RoleUI, ctx, log)
	out := cmd.OutOrStdout()
	client.HandleAll(func(msg *models.Inbound) error {
		printNotification(out, msg)
		return nil
	})
	if err := client.Connect(); err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", baseURL, err)
	}
	defer client.Close()
	client.RunPumps()
	if err := client.Send(models.Message{Type: models.CmdWebviewReady}); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-client.Disconnected():
		color.New(color.FgRed).Fprintln(cmd.ErrOrStderr(), "Connection to daemon closed")
	}
	return nil
}
