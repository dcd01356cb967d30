package usecase

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/colkeys/internal/database"
	"github.com/allisson/colkeys/internal/errors"
	migrationDomain "github.com/allisson/colkeys/internal/migration/domain"
	schemaDomain "github.com/allisson/colkeys/internal/schema/domain"
	schemaService "github.com/allisson/colkeys/internal/schema/service"
)

// Config holds the resolved settings of one orchestrator.
type Config struct {
	Names   schemaDomain.KeyNames
	Table   schemaDomain.TableSpec
	KeyPath string

	// Authority and Resource, when set, are used to authenticate to the KMS
	// before the master key is signed.
	Authority string
	Resource  string

	// KeepObjects skips the final teardown of a successful run.
	KeepObjects bool
}

// Orchestrator runs migrations strictly sequentially. Two orchestrators must not
// target the same schema objects concurrently.
type Orchestrator struct {
	config    Config
	ddl       database.Querier
	encrypted *sql.DB
	txManager database.TxManager
	builder   StatementBuilder
	probe     Prober
	runRepo   RunRepository
	logger    *slog.Logger
	now       func() time.Time
}

// NewOrchestrator validates config and creates an Orchestrator. DDL runs on ddl;
// seeding runs on encrypted, a connection with column encryption enabled, inside
// transactions from txManager. runRepo may be nil to disable run history.
func NewOrchestrator(
	config Config,
	ddl database.Querier,
	encrypted *sql.DB,
	txManager database.TxManager,
	builder StatementBuilder,
	probe Prober,
	runRepo RunRepository,
	logger *slog.Logger,
) (*Orchestrator, error) {
	if err := config.Names.Validate(); err != nil {
		return nil, err
	}
	if err := config.Table.Validate(); err != nil {
		return nil, err
	}
	if config.KeyPath == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "key path is required")
	}

	return &Orchestrator{
		config:    config,
		ddl:       ddl,
		encrypted: encrypted,
		txManager: txManager,
		builder:   builder,
		probe:     probe,
		runRepo:   runRepo,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// exec runs statements in order on the DDL connection.
func (o *Orchestrator) exec(ctx context.Context, logger *slog.Logger, stmts ...schemaDomain.Statement) error {
	for _, stmt := range stmts {
		if _, err := o.ddl.ExecContext(ctx, stmt.SQL); err != nil {
			return errors.Join(
				migrationDomain.ErrStatementExecution,
				errors.Wrapf(err, "%s %s", stmt.Kind, stmt.Object),
			)
		}
		logger.Debug("statement executed",
			slog.String("kind", string(stmt.Kind)),
			slog.String("object", stmt.Object),
		)
	}
	return nil
}

// dropExisting drops the table, encryption key and master key if they exist.
func (o *Orchestrator) dropExisting(ctx context.Context, logger *slog.Logger) error {
	return o.exec(ctx, logger, o.builder.BuildDropStatements(o.config.Names, o.config.Table)...)
}

// cleanup is the best-effort teardown on the way out of a run. Errors are
// logged so the original failure stays visible.
func (o *Orchestrator) cleanup(ctx context.Context, logger *slog.Logger) {
	// a cancelled run still gets its cleanup attempt
	ctx = context.WithoutCancel(ctx)
	if err := o.dropExisting(ctx, logger); err != nil {
		logger.Error("cleanup failed", slog.Any("error", err))
		return
	}
	logger.Info("cleanup completed")
}

// masterKeyStatement authenticates when an authority is configured, then signs the master key.
func (o *Orchestrator) masterKeyStatement(ctx context.Context) (schemaDomain.Statement, error) {
	if o.config.Authority != "" {
		if err := o.builder.Authenticate(ctx, o.config.Authority, o.config.Resource); err != nil {
			return schemaDomain.Statement{}, err
		}
	}
	stmt, _, err := o.builder.BuildMasterKeyStatement(ctx, o.config.Names.MasterKey, o.config.KeyPath)
	return stmt, err
}

func (o *Orchestrator) encryptionKeyStatement(ctx context.Context) (schemaDomain.Statement, error) {
	stmt, _, err := o.builder.BuildEncryptionKeyStatement(
		ctx,
		o.config.Names.EncryptionKey,
		o.config.Names.MasterKey,
		o.config.KeyPath,
	)
	return stmt, err
}

func (o *Orchestrator) createMasterKey(ctx context.Context, logger *slog.Logger) error {
	stmt, err := o.masterKeyStatement(ctx)
	if err != nil {
		return err
	}
	return o.exec(ctx, logger, stmt)
}

func (o *Orchestrator) createEncryptionKey(ctx context.Context, logger *slog.Logger) error {
	stmt, err := o.encryptionKeyStatement(ctx)
	if err != nil {
		return err
	}
	return o.exec(ctx, logger, stmt)
}

func (o *Orchestrator) createSchema(ctx context.Context, logger *slog.Logger) error {
	return o.exec(ctx, logger, o.builder.BuildCreateTableStatement(o.config.Table))
}

// insertStatement renders a parameterized INSERT for the fields of r.
func (o *Orchestrator) insertStatement(r migrationDomain.Record) (string, []any) {
	columns := make([]string, len(r))
	params := make([]string, len(r))
	args := make([]any, len(r))
	for i, f := range r {
		columns[i] = "[" + f.Name + "]"
		params[i] = "@" + f.Name
		args[i] = sql.Named(f.Name, f.Value)
	}
	query := "INSERT INTO " + o.config.Table.QualifiedName() +
		" (" + strings.Join(columns, ", ") + ") VALUES (" + strings.Join(params, ", ") + ")"
	return query, args
}

// seed inserts records on the encrypted connection in one transaction. The
// driver encrypts parameters bound to encrypted columns before sending them.
func (o *Orchestrator) seed(ctx context.Context, logger *slog.Logger, records []migrationDomain.Record) error {
	if len(records) == 0 {
		return nil
	}
	err := o.txManager.WithTx(ctx, func(txCtx context.Context) error {
		querier := database.GetTx(txCtx, o.encrypted)
		for _, r := range records {
			for _, f := range r {
				if err := schemaDomain.ValidateIdentifier(f.Name); err != nil {
					return err
				}
			}
			query, args := o.insertStatement(r)
			if _, err := querier.ExecContext(txCtx, query, args...); err != nil {
				return errors.Join(migrationDomain.ErrStatementExecution, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, schemaDomain.ErrInvalidIdentifier) {
			return err
		}
		if !errors.Is(err, migrationDomain.ErrStatementExecution) {
			err = errors.Join(migrationDomain.ErrStatementExecution, err)
		}
		return err
	}
	logger.Info("seeded records", slog.Int("count", len(records)))
	return nil
}

// Run executes the full state machine once.
func (o *Orchestrator) Run(
	ctx context.Context,
	records []migrationDomain.Record,
	expected migrationDomain.Record,
) (*migrationDomain.RunReport, error) {
	report := &migrationDomain.RunReport{
		Run: migrationDomain.Run{
			ID:                uuid.Must(uuid.NewV7()),
			MasterKeyName:     o.config.Names.MasterKey,
			EncryptionKeyName: o.config.Names.EncryptionKey,
			TableName:         o.config.Table.Name,
			State:             migrationDomain.StateIdle,
			StartedAt:         o.now().UTC(),
		},
	}
	logger := o.logger.With(slog.String("run_id", report.ID.String()))

	steps := []struct {
		state migrationDomain.State
		fn    func(ctx context.Context) error
	}{
		{migrationDomain.StateDroppingExisting, func(ctx context.Context) error { return o.dropExisting(ctx, logger) }},
		{migrationDomain.StateCreatingMasterKey, func(ctx context.Context) error { return o.createMasterKey(ctx, logger) }},
		{migrationDomain.StateCreatingEncryptionKey, func(ctx context.Context) error {
			return o.createEncryptionKey(ctx, logger)
		}},
		{migrationDomain.StateCreatingSchema, func(ctx context.Context) error { return o.createSchema(ctx, logger) }},
		{migrationDomain.StateSeedingData, func(ctx context.Context) error { return o.seed(ctx, logger, records) }},
		{migrationDomain.StateVerifying, func(ctx context.Context) error {
			if expected == nil {
				return nil
			}
			result, err := o.probe.Verify(ctx, expected)
			if err != nil {
				return err
			}
			report.Verification = &result
			return nil
		}},
	}

	var runErr error
	for _, step := range steps {
		report.State = step.state
		logger.Info("migration step", slog.String("step", string(step.state)))
		if err := step.fn(ctx); err != nil {
			runErr = &migrationDomain.StepError{Step: step.state, Err: err}
			break
		}
	}

	if runErr != nil {
		report.FailedStep = report.State
		report.State = migrationDomain.StateFailed
		report.Error = runErr.Error()
		logger.Error("migration failed",
			slog.String("step", string(report.FailedStep)),
			slog.Any("error", runErr),
		)
	} else {
		report.State = migrationDomain.StateDone
		logger.Info("migration completed", slog.Bool("verified", report.Verification == nil || report.Verification.Matched))
	}

	if runErr != nil || !o.config.KeepObjects {
		o.cleanup(ctx, logger)
	}

	report.FinishedAt = o.now().UTC()
	o.recordRun(ctx, &report.Run, logger)

	return report, runErr
}

// recordRun appends run to the history. Failures are logged only.
func (o *Orchestrator) recordRun(ctx context.Context, run *migrationDomain.Run, logger *slog.Logger) {
	if o.runRepo == nil {
		return
	}
	if err := o.runRepo.Create(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("failed to record migration run", slog.Any("error", err))
	}
}

// Teardown runs only the DroppingExisting step.
func (o *Orchestrator) Teardown(ctx context.Context) error {
	if err := o.dropExisting(ctx, o.logger); err != nil {
		return &migrationDomain.StepError{Step: migrationDomain.StateDroppingExisting, Err: err}
	}
	o.logger.Info("teardown completed", slog.String("table", o.config.Table.Name))
	return nil
}

// Plan builds a validated plan for strategy without executing anything.
// Building a plan signs the master key metadata and wraps a fresh encryption key.
func (o *Orchestrator) Plan(ctx context.Context, strategy schemaService.Strategy) (*schemaDomain.MigrationPlan, error) {
	return o.builder.BuildPlan(ctx, o.config.Names, o.config.KeyPath, o.config.Table, strategy)
}

// stateOf maps a statement kind to the run state that executes it.
func stateOf(kind schemaDomain.StatementKind) migrationDomain.State {
	switch kind {
	case schemaDomain.KindDropTable, schemaDomain.KindDropCEK, schemaDomain.KindDropCMK:
		return migrationDomain.StateDroppingExisting
	case schemaDomain.KindCreateCMK:
		return migrationDomain.StateCreatingMasterKey
	case schemaDomain.KindCreateCEK:
		return migrationDomain.StateCreatingEncryptionKey
	default:
		return migrationDomain.StateCreatingSchema
	}
}

// execPlan executes plan statements in order, attributing failures to their step.
func (o *Orchestrator) execPlan(ctx context.Context, stmts []schemaDomain.Statement) error {
	for _, stmt := range stmts {
		if err := o.exec(ctx, o.logger, stmt); err != nil {
			return &migrationDomain.StepError{Step: stateOf(stmt.Kind), Err: err}
		}
	}
	return nil
}

// EncryptColumns executes the alter-existing plan against the configured table.
// The table's columns must not reference the previous encryption key; run
// RevertColumns first when re-keying.
func (o *Orchestrator) EncryptColumns(ctx context.Context) error {
	plan := &schemaDomain.MigrationPlan{
		DropStatements: o.builder.BuildDropStatements(o.config.Names, o.config.Table)[1:],
	}
	cmk, err := o.masterKeyStatement(ctx)
	if err != nil {
		return &migrationDomain.StepError{Step: migrationDomain.StateCreatingMasterKey, Err: err}
	}
	cek, err := o.encryptionKeyStatement(ctx)
	if err != nil {
		return &migrationDomain.StepError{Step: migrationDomain.StateCreatingEncryptionKey, Err: err}
	}
	plan.CreateKeyStatements = []schemaDomain.Statement{cmk, cek}
	plan.AlterColumnStatements = o.builder.BuildAlterColumnStatements(o.config.Table)
	if err := plan.Validate(); err != nil {
		return &migrationDomain.StepError{Step: migrationDomain.StateCreatingSchema, Err: err}
	}

	if err := o.execPlan(ctx, plan.Statements()); err != nil {
		return err
	}
	o.logger.Info("columns encrypted", slog.String("table", o.config.Table.Name))
	return nil
}

// RevertColumns re-adds the encrypted columns as plaintext, then drops the
// encryption key and master key. Existing rows are deleted.
func (o *Orchestrator) RevertColumns(ctx context.Context) error {
	stmts := o.builder.BuildRevertColumnStatements(o.config.Table)
	stmts = append(stmts, o.builder.BuildDropStatements(o.config.Names, o.config.Table)[1:]...)
	if err := o.execPlan(ctx, stmts); err != nil {
		return err
	}
	o.logger.Info("columns reverted", slog.String("table", o.config.Table.Name))
	return nil
}

// History lists recent runs.
func (o *Orchestrator) History(ctx context.Context, limit int) ([]*migrationDomain.Run, error) {
	if o.runRepo == nil {
		return nil, errors.Wrap(errors.ErrUnavailable, "run history is not configured")
	}
	return o.runRepo.List(ctx, limit)
}
