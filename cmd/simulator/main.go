package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"before-after/simulator"

	"github.com/lmittmann/tint"
	"github.com/spf13/viper"
)

// loadConfig reads simulator.yml if present, overridden by SIM_* variables.
func loadConfig() (simulator.SimConfig, error) {
	defaults := simulator.DefaultConfig()

	v := viper.New()
	v.SetConfigName("simulator")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("SIM")
	v.AutomaticEnv()

	v.SetDefault("engine_url", defaults.EngineURL)
	v.SetDefault("auth_header", defaults.AuthHeader)
	v.SetDefault("users", defaults.NumUsers)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("duration", defaults.SimulationTime)
	v.SetDefault("post_weight", defaults.PostWeight)
	v.SetDefault("vote_weight", defaults.VoteWeight)
	v.SetDefault("comment_weight", defaults.CommentWeight)
	v.SetDefault("follow_weight", defaults.FollowWeight)
	v.SetDefault("browse_weight", defaults.BrowseWeight)
	v.SetDefault("private_ratio", defaults.PrivateRatio)
	v.SetDefault("zipf_s", defaults.ZipfS)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return simulator.SimConfig{}, err
		}
	}

	return simulator.SimConfig{
		NumUsers:       v.GetInt("users"),
		Workers:        v.GetInt("workers"),
		SimulationTime: v.GetDuration("duration"),
		PostWeight:     v.GetInt("post_weight"),
		VoteWeight:     v.GetInt("vote_weight"),
		CommentWeight:  v.GetInt("comment_weight"),
		FollowWeight:   v.GetInt("follow_weight"),
		BrowseWeight:   v.GetInt("browse_weight"),
		PrivateRatio:   v.GetFloat64("private_ratio"),
		ZipfS:          v.GetFloat64("zipf_s"),
		EngineURL:      v.GetString("engine_url"),
		AuthHeader:     v.GetString("auth_header"),
	}, nil
}

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{TimeFormat: time.Kitchen})))

	config, err := loadConfig()
	if err != nil {
		slog.Error("invalid simulator configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("starting simulation",
		"engine_url", config.EngineURL,
		"users", config.NumUsers,
		"workers", config.Workers,
		"duration", config.SimulationTime,
		"zipf_s", config.ZipfS)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := simulator.NewSimulator(config).Run(ctx)
	if err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}

	slog.Info("simulation completed",
		"elapsed", stats.Elapsed.Round(time.Millisecond),
		"requests", stats.TotalRequests,
		"succeeded", stats.SuccessRequests,
		"failed", stats.FailedRequests,
		"avg_latency", stats.AverageLatency,
		"posts", stats.Posts,
		"votes", stats.Votes,
		"comments", stats.Comments,
		"follows", stats.Follows,
		"feed_reads", stats.FeedReads)
}
