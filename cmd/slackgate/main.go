// Copyright 2025-2026 Andres Torres

// Command slackgate runs the Slack client engine as a standalone daemon.
// It connects to Slack, keeps the resume watermark persisted across
// restarts, and logs the normalized event feed. Protocol gateways embed
// the engine through the pkg/slack API instead.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/atorresm/slackgate/pkg/rtm"
	"github.com/atorresm/slackgate/pkg/slack"
)

// These are filled at build time with -ldflags.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:     "slackgate",
		Short:   "Slack client engine for protocol bridges",
		Version: fmt.Sprintf("%s (%s, built %s)", Tag, Commit, BuildTime),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
		SilenceUsage: true,
	}
	root.Flags().StringVarP(&configPath, "config", "c", "slackgate.yaml", "path to the YAML config file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	var prevStatus []byte
	if cfg.StatusFile != "" {
		prevStatus, err = os.ReadFile(cfg.StatusFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading status file: %w", err)
		}
	}

	transport := rtm.New(rtm.Config{
		Token:  cfg.Token,
		Cookie: cfg.Cookie,
		Logger: log,
	})
	client, err := slack.NewClient(transport, prevStatus, slack.Options{Logger: log})
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Login(ctx); err != nil {
		return err
	}
	if info := client.LoginInfo(); info != nil {
		log.Info().Str("user", info.UserName).Str("team", info.TeamName).Msg("logged in")
	}
	if err := client.Connect(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			ev, err := client.NextEvent(ctx)
			if err != nil {
				return err
			}
			if ev != nil {
				log.Info().Type("event", ev).Interface("data", ev).Msg("event")
			}
		}
	})

	err = g.Wait()
	if saveErr := saveStatus(client, cfg.StatusFile); saveErr != nil {
		log.Error().Err(saveErr).Msg("cannot persist status")
	}
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("shutting down")
		return nil
	}
	return err
}

func saveStatus(client *slack.Client, path string) error {
	if path == "" {
		return nil
	}
	blob, err := client.ExportStatus()
	if err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o600)
}
