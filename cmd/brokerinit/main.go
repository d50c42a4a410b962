// Command brokerinit creates and verifies the broker topology: one stream,
// consumer group and dead-letter pair per configured route.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/customers/backend/internal/infrastructure/cache"
	"github.com/customers/backend/internal/infrastructure/config"
	"github.com/customers/backend/internal/infrastructure/logger"
	"github.com/customers/backend/internal/infrastructure/messaging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd(connectBroker).Execute(); err != nil {
		os.Exit(1)
	}
}

type brokerFactory func(ctx context.Context, log *zap.Logger) (messaging.Broker, func(), error)

func newRootCmd(connect brokerFactory) *cobra.Command {
	var (
		logLevel string
		timeout  time.Duration
	)
	root := &cobra.Command{
		Use:          "brokerinit",
		Short:        "Create and verify the customer command topology",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall deadline")

	withBroker := func(run func(ctx context.Context, b messaging.Broker, out io.Writer) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			log, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stderr"})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync(log) }()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			b, release, err := connect(ctx, log)
			if err != nil {
				return err
			}
			defer release()
			return run(ctx, b, cmd.OutOrStdout())
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Create missing streams, consumer groups and dead-letter queues",
			Args:  cobra.NoArgs,
			RunE:  withBroker(runInit),
		},
		&cobra.Command{
			Use:   "check",
			Short: "Fail unless every topic and dead-letter topic exists",
			Args:  cobra.NoArgs,
			RunE:  withBroker(runCheck),
		},
	)
	return root
}

func connectBroker(_ context.Context, log *zap.Logger) (messaging.Broker, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Messaging.Broker != config.BrokerRedis {
		return nil, nil, fmt.Errorf("broker %q has no external topology", cfg.Messaging.Broker)
	}
	client, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	b, err := messaging.NewBroker(cfg.Messaging, client, log)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return b, func() {
		_ = b.Close()
		_ = client.Close()
	}, nil
}

func runInit(ctx context.Context, b messaging.Broker, out io.Writer) error {
	if err := b.EnsureTopology(ctx); err != nil {
		return err
	}
	for _, r := range b.Routes() {
		dlq := r.DeadLetter()
		fmt.Fprintf(out, "ready  %s -> %s\n", r.Topic, r.Subscription)
		fmt.Fprintf(out, "ready  %s -> %s\n", dlq.Topic, dlq.Subscription)
	}
	return nil
}

func runCheck(ctx context.Context, b messaging.Broker, out io.Writer) error {
	missing := 0
	for _, r := range b.Routes() {
		for _, topic := range []string{r.Topic, r.DeadLetter().Topic} {
			ok, err := b.TopicExists(ctx, topic)
			if err != nil {
				return err
			}
			status := "ok"
			if !ok {
				status = "MISSING"
				missing++
			}
			fmt.Fprintf(out, "%-8s %s\n", status, topic)
		}
	}
	if missing > 0 {
		return fmt.Errorf("%d topic(s) missing; run brokerinit init", missing)
	}
	return nil
}
