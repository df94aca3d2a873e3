package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/trunkline/trunkline/internal/api"
	"github.com/trunkline/trunkline/internal/assignment"
	"github.com/trunkline/trunkline/internal/config"
	"github.com/trunkline/trunkline/internal/escalate"
	"github.com/trunkline/trunkline/internal/events"
	"github.com/trunkline/trunkline/internal/notify"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the assignment API server",
		Long:  "Runs the HTTP API, event broadcasting and the escalation sweeper.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trunkline.yaml", "path to Trunkline config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if port <= 0 {
		port = cfg.HTTP.Port
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	broadcaster, err := newBroadcaster(cfg, logger)
	if err != nil {
		return err
	}
	defer broadcaster.Close()

	engine, err := assignment.New(assignment.Opts{
		DB:          gormDB,
		Broadcaster: broadcaster,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	sweeper, err := escalate.New(escalate.Opts{
		DB:          gormDB,
		Engine:      engine,
		Broadcaster: broadcaster,
		Notifier:    newNotifier(cfg, logger),
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	go func() {
		if err := sweeper.Run(ctx, cfg.Escalate.Schedule); err != nil {
			logger.Error("escalation sweeper stopped", zap.Error(err))
		}
	}()

	return api.Start(ctx, api.StartOpts{
		Engine: engine,
		Port:   port,
		Logger: logger,
		Out:    cmd.OutOrStdout(),
	})
}

// newBroadcaster picks AMQP when configured, otherwise log-only delivery.
func newBroadcaster(cfg *config.Config, logger *zap.Logger) (events.Broadcaster, error) {
	if cfg.Events.URL == "" {
		return events.NewLog(logger), nil
	}
	b, err := events.NewAMQP(cfg.Events.URL, cfg.Events.Exchange, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to AMQP: %w", err)
	}
	return b, nil
}

// newNotifier returns a Slack notifier when a token is configured, else nil.
func newNotifier(cfg *config.Config, logger *zap.Logger) notify.Notifier {
	if cfg.Slack.Token == "" {
		return nil
	}
	n, err := notify.NewSlack(notify.SlackOpts{
		Token:   cfg.Slack.Token,
		Channel: cfg.Slack.Channel,
		Logger:  logger,
	})
	if err != nil {
		logger.Warn("slack notifier disabled", zap.Error(err))
		return nil
	}
	return n
}
