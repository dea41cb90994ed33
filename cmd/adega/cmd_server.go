package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adegaexpress/adega/config"
	"github.com/adegaexpress/adega/internal/kernel"
	"github.com/adegaexpress/adega/internal/server"
	"github.com/adegaexpress/adega/pkg/database"
	"github.com/adegaexpress/adega/pkg/logger"
)

var serveWorkersFlag int

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run", "start"},
	Short:   "Start the HTTP and gRPC servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := bootDB()
		if err != nil {
			return err
		}
		defer database.Close(db) //nolint:errcheck

		if uri := config.LogMongoURI(); uri != "" {
			flush, err := logger.EnableMongo(uri, config.LogMongoDB())
			if err != nil {
				logger.Warn("logger: mongo sink disabled", "error", err)
			}
			defer flush()
		}

		app, err := kernel.New(ctx, kernel.Options{DB: db})
		if err != nil {
			return err
		}
		defer app.Close()

		workers := serveWorkersFlag
		if workers < 0 {
			workers = config.QueueWorkers()
		}
		return server.Run(ctx, app, workers)
	},
}

var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range kernel.RouteTable().Routes() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&serveWorkersFlag, "workers", "w", -1,
		"in-process queue workers (0 when a separate queue:work runs; default QUEUE_WORKERS)")
}
