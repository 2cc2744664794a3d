package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/dirops/freeipa-mcp/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "freeipa-mcp",
		Short:         "MCP server exposing FreeIPA directory management tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	var (
		transport string
		host      string
		port      int
		logLevel  string
	)

	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Start the MCP server",
		Long:          "Start the MCP server. Configuration is read from FREEIPA_* environment variables; flags override the transport settings.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := server.LoadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("transport") {
				cfg.Transport = transport
			}
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			// Logs go to stderr: stdout belongs to the protocol when
			// serving stdio.
			logger := hclog.New(&hclog.LoggerOptions{
				Name:   "freeipa-mcp",
				Level:  hclog.LevelFromString(cfg.LogLevel),
				Output: os.Stderr,
			})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.New(cfg, logger).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "http", "transport to serve on: http or stdio")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().IntVar(&port, "port", 8000, "HTTP listen port")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: trace, debug, info, warn or error")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("freeipa-mcp %s\n", server.Version)
		},
	}
}
