package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisson/colkeys/cmd/app/commands"
	"github.com/allisson/colkeys/internal/app"
	"github.com/allisson/colkeys/internal/config"
)

// historyConfig loads the configuration and requires a history database. The
// target database and key vault settings are not needed here.
func historyConfig() (*config.Config, error) {
	cfg := config.Load()
	if cfg.HistoryDBDriver == "" {
		return nil, fmt.Errorf("run history is disabled: set HISTORY_DB_DRIVER and HISTORY_DB_CONNECTION_STRING")
	}
	return cfg, nil
}

func getSystemCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "migrate",
			Usage: "Run run-history database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := historyConfig()
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer commands.CloseContainer(container)

				return commands.RunMigrations(container.Logger(), cfg.HistoryDBDriver, cfg.HistoryDBConnectionString)
			},
		},
		{
			Name:  "history",
			Usage: "List recent migration runs",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   20,
					Usage:   "Maximum number of runs to list",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := historyConfig()
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer commands.CloseContainer(container)

				runRepository, err := container.RunRepository()
				if err != nil {
					return err
				}

				return commands.RunHistory(
					ctx,
					runRepository,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("limit")),
					cmd.String("format"),
				)
			},
		},
	}
}
