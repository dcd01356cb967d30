package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/colkeys/cmd/app/commands"
	"github.com/allisson/colkeys/internal/app"
	"github.com/allisson/colkeys/internal/config"
	migrationUsecase "github.com/allisson/colkeys/internal/migration/usecase"
)

// migrationAction loads and validates the configuration, then hands the
// migration use case to run. The container is closed when run returns.
func migrationAction(
	cfg *config.Config,
	run func(container *app.Container, migrationUseCase migrationUsecase.MigrationUseCase) error,
) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	container := app.NewContainer(cfg)
	defer commands.CloseContainer(container)

	migrationUseCase, err := container.MigrationUseCase()
	if err != nil {
		return err
	}
	return run(container, migrationUseCase)
}

func getMigrationCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "provision",
			Usage: "Create the master key, encryption key and table, then seed and verify a sample record",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "keep",
					Aliases: []string{"k"},
					Value:   false,
					Usage:   "Keep the created objects after a successful run",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				if cmd.Bool("keep") {
					cfg.KeepObjects = true
				}
				return migrationAction(cfg, func(c *app.Container, uc migrationUsecase.MigrationUseCase) error {
					return commands.RunProvision(ctx, uc, c.Logger(), commands.DefaultIO().Writer, cmd.String("format"))
				})
			},
		},
		{
			Name:  "teardown",
			Usage: "Drop the table, encryption key and master key if they exist",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return migrationAction(config.Load(), func(c *app.Container, uc migrationUsecase.MigrationUseCase) error {
					return commands.RunTeardown(ctx, uc, c.Logger(), commands.DefaultIO().Writer)
				})
			},
		},
		{
			Name:  "plan",
			Usage: "Print the statements of a migration without executing them",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "strategy",
					Aliases: []string{"s"},
					Value:   "create-table",
					Usage:   "Migration strategy: 'create-table' or 'alter-existing'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return migrationAction(config.Load(), func(c *app.Container, uc migrationUsecase.MigrationUseCase) error {
					return commands.RunPlan(ctx, uc, c.Logger(), commands.DefaultIO().Writer, cmd.String("strategy"))
				})
			},
		},
		{
			Name:  "encrypt-columns",
			Usage: "Recreate the keys and re-add the existing table's columns encrypted (deletes rows)",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return migrationAction(config.Load(), func(c *app.Container, uc migrationUsecase.MigrationUseCase) error {
					return commands.RunEncryptColumns(ctx, uc, c.Logger(), commands.DefaultIO().Writer)
				})
			},
		},
		{
			Name:  "revert-columns",
			Usage: "Re-add the table's encrypted columns as plaintext and drop the keys (deletes rows)",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return migrationAction(config.Load(), func(c *app.Container, uc migrationUsecase.MigrationUseCase) error {
					return commands.RunRevertColumns(ctx, uc, c.Logger(), commands.DefaultIO().Writer)
				})
			},
		},
	}
}
