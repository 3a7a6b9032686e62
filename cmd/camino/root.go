package main

import (
	"fmt"
	"log/slog"
	"os"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/camino-run/camino/internal/config"
	"github.com/camino-run/camino/internal/logging"
	redisadapter "github.com/camino-run/camino/pkg/adapters/redis"
)

var rootCmd = &cobra.Command{
	Use:   "camino",
	Short: "Camino is a journey execution engine",
	Long:  `Camino runs directed workflow graphs of typed nodes, driving each run step by step through a durable queue.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
}

func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.New(cfg.LogLevel), nil
}

func openRedis(cfg config.Config) (*goredis.Client, *redisadapter.Store, *redisadapter.Queue) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := redisadapter.NewStore(client, redisadapter.WithStorePrefix(cfg.KeyPrefix))
	queue := redisadapter.NewQueue(client,
		redisadapter.WithQueuePrefix(cfg.KeyPrefix),
		redisadapter.WithPollInterval(cfg.PollInterval),
		redisadapter.WithVisibilityTimeout(cfg.VisibilityTimeout),
	)
	return client, store, queue
}
