package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"issuedb/internal/web"
)

func newWebCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the web dashboard",
		Long: `Start an HTTP server with a live dashboard and a JSON API over
the issue database. The dashboard refreshes automatically when
the database changes, including changes made by the CLI.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if host != "" {
				app.Config.WebHost = host
			}
			if port > 0 {
				app.Config.WebPort = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Printf("Serving dashboard on http://%s\n", app.Config.WebAddr())
			server := web.NewServer(app.Config, app.Store)
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Bind address (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (default from config)")

	return cmd
}

func init() {
	rootCmd.AddCommand(newWebCmd())
}
