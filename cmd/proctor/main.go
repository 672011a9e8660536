package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"proctorexam/internal/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "proctor",
		Short:        "Proctored online examination backend",
		SilenceUsage: true,
	}

	serve := serveCmd()
	root.AddCommand(serve, seedCmd(), checkDBCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// storeFlags registers the connection and logging flags every command shares
func storeFlags(f *pflag.FlagSet) {
	f.String("mongo-uri", "", "MongoDB connection URI (or MONGO_URI)")
	f.String("mongo-db", "", "MongoDB database name")
	f.String("redis-addr", "", "Redis host:port or redis:// URL (or REDIS_URI)")
	f.String("log-level", "", "Log level (debug, info, warn, error)")
	f.String("log-format", "", "Log format (text, json)")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	var h slog.Handler
	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		h = slog.NewJSONHandler(os.Stderr, opts)
	default:
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

// loadConfig binds the command's changed flags and resolves the full config
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	var bindErr error
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}

	v.SetConfigName("proctor")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/proctor")
	v.AddConfigPath("/etc/proctor")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg)
	if used := v.ConfigFileUsed(); used != "" {
		slog.Info("loaded config file", "path", used)
	}
	return cfg, nil
}

// stores holds the live database connections
type stores struct {
	mongo *mongo.Client
	db    *mongo.Database
	redis *redis.Client
}

func connectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	slog.Info("connected to MongoDB", "database", cfg.MongoDB)
	return client, nil
}

func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	opts, err := cfg.RedisOptions()
	if err != nil {
		return nil, fmt.Errorf("parse redis address: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("connected to Redis", "addr", opts.Addr)
	return rdb, nil
}

func connect(ctx context.Context, cfg *config.Config) (*stores, error) {
	mc, err := connectMongo(ctx, cfg)
	if err != nil {
		return nil, err
	}
	rdb, err := connectRedis(ctx, cfg)
	if err != nil {
		_ = mc.Disconnect(ctx)
		return nil, err
	}
	return &stores{mongo: mc, db: mc.Database(cfg.MongoDB), redis: rdb}, nil
}

func (s *stores) Close() {
	if err := s.redis.Close(); err != nil {
		slog.Warn("close redis", "error", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.mongo.Disconnect(ctx); err != nil {
		slog.Warn("disconnect mongodb", "error", err)
	}
}
