package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-meeting-sync/core/logger"
	"go-meeting-sync/core/server"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "meeting-sync",
		Usage: "Meetings API with two-way Google Calendar synchronization.",
		Commands: []*cli.Command{
			serveCommand(),
			workerCommand(),
			reverseSyncCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

// withApp bootstraps dependencies, runs fn and releases them. fn's context
// is cancelled on SIGINT or SIGTERM.
func withApp(fn func(ctx context.Context, app *server.App) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.Bootstrap(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(ctx, app)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API.",
		Action: func(c *cli.Context) error {
			return withApp(func(ctx context.Context, app *server.App) error {
				return app.Serve(ctx)
			})
		},
	}
}

func workerCommand() *cli.Command {
	return &cli.Command{
		Name:  "worker",
		Usage: "Run background calendar tasks and the periodic reconcile.",
		Action: func(c *cli.Context) error {
			return withApp(func(ctx context.Context, app *server.App) error {
				return app.Work(ctx)
			})
		},
	}
}

func reverseSyncCommand() *cli.Command {
	return &cli.Command{
		Name:  "reverse-sync",
		Usage: "Import meetings from one user's calendar once.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Required: true, Usage: "User id to sync."},
			&cli.IntFlag{Name: "days", Value: 30, Usage: "Number of days ahead to import."},
		},
		Action: func(c *cli.Context) error {
			userID, err := uuid.Parse(c.String("user"))
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}

			return withApp(func(ctx context.Context, app *server.App) error {
				start := time.Now()
				end := start.AddDate(0, 0, c.Int("days"))
				summary, err := app.Calendar.ReverseSync(ctx, userID, &start, &end)
				if err != nil {
					return err
				}
				fmt.Printf("total=%d processed=%d created=%d updated=%d linked=%d skipped=%d errors=%d\n",
					summary.Total, summary.Processed, summary.MeetingsCreated, summary.MeetingsUpdated,
					summary.MeetingsLinked, summary.Skipped, summary.Errors)
				return nil
			})
		},
	}
}
