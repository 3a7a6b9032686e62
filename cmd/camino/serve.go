package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/camino-run/camino"
	"github.com/camino-run/camino/pkg/adapters/memory"
	"github.com/camino-run/camino/pkg/ports"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the journey HTTP API",
	Long: `Starts the Camino HTTP API backed by Redis. With --dev the service
runs entirely in memory and processes steps itself, so no Redis or
separate workers are needed.`,
	Run: func(cmd *cobra.Command, args []string) {
		dev, _ := cmd.Flags().GetBool("dev")

		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		var store ports.Store
		var scheduler ports.Scheduler
		if dev {
			store = memory.NewStore()
			scheduler = memory.NewScheduler(memory.WithVisibilityTimeout(cfg.VisibilityTimeout))
		} else {
			client, rstore, queue := openRedis(cfg)
			defer client.Close()
			store, scheduler = rstore, queue
		}

		sys := camino.New(store, scheduler,
			camino.WithLogger(logger),
			camino.WithWorkers(cfg.Workers),
		)

		srv := &http.Server{
			Addr:    cfg.ListenAddr,
			Handler: sys.Handler(),
		}

		workerCtx, stopWorkers := context.WithCancel(context.Background())
		defer stopWorkers()
		workersDone := make(chan struct{})
		if dev {
			go func() {
				defer close(workersDone)
				sys.RunWorkers(workerCtx)
			}()
		} else {
			close(workersDone)
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("starting server", "addr", srv.Addr, "dev", dev)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", cfg.ShutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("error closing server", "err", err)
				}
			}

			stopWorkers()
			<-workersDone
			logger.Info("server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("dev", false, "Run with in-memory storage and embedded workers")
}
