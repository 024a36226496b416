package main

import (
	"github.com/1023-Ventures/qlaunch/internal/config"
	"github.com/1023-Ventures/qlaunch/internal/daemon"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:          "qlaunch",
		Short:        "Workspace quick-launch host",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("addr", cfg.BaseURL(), "base URL of the running daemon")

	root.AddCommand(newServeCmd(cfg))
	root.AddCommand(newServiceCmds(cfg)...)
	root.AddCommand(newSnapshotCmd(), newRefreshCmd(), newPatternsCmd(), newTailCmd())
	return root
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon in the foreground or under the service manager",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.Init(cfg.LogFile(), cfg.LogLevel())
			log.Info("Starting qlaunch", "roots", cfg.WorkspaceRoots(), "addr", cfg.ListenAddr())
			return daemon.NewManager(cfg, log).Run()
		},
	}
}

func newServiceCmds(cfg *config.Config) []*cobra.Command {
	action := func(use, short, done string, fn func(*daemon.Manager) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m := daemon.NewManager(cfg, logger.Init(cfg.LogFile(), cfg.LogLevel()))
				if err := fn(m); err != nil {
					return err
				}
				color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), done)
				return nil
			},
		}
	}
	status := &cobra.Command{
		Use:   "status",
		Short: "Show the service state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := daemon.NewManager(cfg, logger.Discard()).Status()
			if err != nil {
				return err
			}
			c := color.New(color.FgYellow)
			if st == "running" {
				c = color.New(color.FgGreen)
			}
			c.Fprintln(cmd.OutOrStdout(), st)
			return nil
		},
	}
	return []*cobra.Command{
		action("install", "Install and start the per-user service", "Service installed", (*daemon.Manager).Install),
		action("uninstall", "Stop and remove the service", "Service uninstalled", (*daemon.Manager).Uninstall),
		action("start", "Start the installed service", "Service started", (*daemon.Manager).Start),
		action("stop", "Stop the installed service", "Service stopped", (*daemon.Manager).Stop),
		action("restart", "Restart the installed service", "Service restarted", (*daemon.Manager).Restart),
		status,
	}
}
