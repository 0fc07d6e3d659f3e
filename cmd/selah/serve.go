package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/selahapp/selah/internal/config"
	"github.com/selahapp/selah/internal/server"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Selah server",
	Long: `Start the Selah HTTP server.

The server loads provider credentials from config and watches the config
file for changes, reloading providers without a restart.

Endpoints include:
  - /health           - Basic server health check
  - /ready            - Readiness check (includes cache backend)
  - /api/devotionals  - Devotional bundle generation (NDJSON stream)

Examples:
  selah serve                    # Start on default port 8475
  selah serve --port 3000        # Start on custom port
  selah serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		cfgMgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfgMgr.WatchConfig()

		host := serveHost
		port := servePort
		if !cmd.Flags().Changed("host") && cfgMgr.Get().Server.Host != "" {
			host = cfgMgr.Get().Server.Host
		}
		if !cmd.Flags().Changed("port") && cfgMgr.Get().Server.Port != 0 {
			port = cfgMgr.Get().Server.Port
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			ConfigManager: cfgMgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil {
			return os.ErrExist
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		cmd.Printf("Wrote default config to %s\n", path)
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().IntVar(&servePort, "port", 8475, "Port to listen on")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initConfigCmd)
}
