package main

import (
	"context"
	"os"
	"time"

	"github.com/gangrun/outreach/pkg/carts"
	"github.com/gangrun/outreach/pkg/cmd"
	"github.com/gangrun/outreach/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "outreach-sweeper",
		EnableShellCompletion: true,
		Usage:                 "Run periodic jobs: resume waits, start scheduled workflows, scan carts and inactivity",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus type (kafka, gochannel)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis connection URL for cart sessions",
				Value:   "redis://localhost:6379/0",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.DurationFlag{
				Name:    "cart-abandon-after",
				Usage:   "How long a cart session may idle before it counts as abandoned",
				Value:   time.Hour,
				Sources: cli.EnvVars("CART_ABANDON_AFTER"),
			},
			&cli.IntFlag{
				Name:    "inactive-after-days",
				Usage:   "Days without an order before a customer counts as inactive",
				Value:   30,
				Sources: cli.EnvVars("INACTIVE_AFTER_DAYS"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithService("outreach-sweeper")

			logger.InfoContext(ctx, "Initializing Outreach Sweeper")

			eventBus := cmd.NewEventBus(command.String("event-bus"), "outreach-sweeper", logger)
			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}
			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			cartStore, err := carts.NewStore(ctx, command.String("redis-url"), logger)
			if err != nil {
				return err
			}
			defer func() {
				err := cartStore.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close cart store", "error", err)
				}
			}()

			inactiveAfter := time.Duration(command.Int("inactive-after-days")) * 24 * time.Hour

			sweeper := NewSweeper(
				persistence,
				eventBus,
				cartStore,
				logger,
				command.Duration("cart-abandon-after"),
				inactiveAfter,
			)

			return sweeper.Start(ctx)
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
