package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/camino-run/camino"
)

var workCmd = &cobra.Command{
	Use:   "work",
	Short: "Run journey step workers",
	Long: `Starts a pool of workers that claim queued journey steps from Redis,
execute them, and schedule their successors. Multiple work processes can
share one queue; each step is delivered to exactly one worker at a time.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		client, store, queue := openRedis(cfg)
		defer client.Close()

		sys := camino.New(store, queue,
			camino.WithLogger(logger),
			camino.WithWorkers(cfg.Workers),
		)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("starting workers", "workers", cfg.Workers, "redis", cfg.RedisAddr)
		sys.RunWorkers(ctx)
		logger.Info("workers stopped")
	},
}

func init() {
	rootCmd.AddCommand(workCmd)
}
