// ledgerctl is the operator CLI for a ledgercore deployment: audit
// chain verification, idempotency retention, outbox draining, and
// report inspection against a live database. It is an operations
// surface, not the tenant-facing API; tenant requests reach the core
// through a transport layer in a separate compilation unit.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	auditlog "github.com/ledgercore/core/internal/audit"
	"github.com/ledgercore/core/internal/config"
	"github.com/ledgercore/core/internal/outbox"
	"github.com/ledgercore/core/internal/outbox/rabbitmq"
	"github.com/ledgercore/core/internal/reporting"
	"github.com/ledgercore/core/internal/scope"
	"github.com/ledgercore/core/internal/storage/postgres"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "ledgerctl operates a ledgercore deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newVerifyAuditCommand(),
		newPurgeIdempotencyCommand(),
		newDrainOutboxCommand(),
		newTrialBalanceCommand(),
	)

	return cmd
}

// env holds the process-level wiring every subcommand shares.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	conn   *postgres.Connection
	repo   *postgres.Repository
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	conn := &postgres.Connection{
		ConnectionString: cfg.DatabaseURL,
		MigrationsPath:   cfg.MigrationsPath,
		Logger:           logger,
	}

	if err := conn.Connect(ctx); err != nil {
		return nil, err
	}

	return &env{cfg: cfg, logger: logger, conn: conn, repo: postgres.NewRepository(conn)}, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.EnvName == "development" {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

// companyScope builds the operator's request scope for a single
// company. The operator acts as an admin with no tenant user identity.
func companyScope(ctx context.Context, companyFlag string) (context.Context, error) {
	companyID, err := uuid.Parse(companyFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid --company: %w", err)
	}

	return scope.With(ctx, scope.New(uuid.New(), uuid.Nil, uuid.Nil, companyID, "admin")), nil
}

func newVerifyAuditCommand() *cobra.Command {
	var company string

	cmd := &cobra.Command{
		Use:   "verify-audit",
		Short: "Replay a company's audit chain and report the first broken link",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			e, err := setup(ctx)
			if err != nil {
				return err
			}
			defer e.conn.Close()

			ctx, err = companyScope(ctx, company)
			if err != nil {
				return err
			}

			log := &auditlog.Log{Repo: e.repo}

			result, err := log.VerifyChain(ctx)
			if err != nil {
				return err
			}

			if !result.Intact {
				return fmt.Errorf("audit chain broken at event %s (index %d)", result.BrokenAt, result.BrokenIndex)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "audit chain intact")

			return nil
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "company ID (required)")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}

func newPurgeIdempotencyCommand() *cobra.Command {
	var graceHours int

	cmd := &cobra.Command{
		Use:   "purge-idempotency",
		Short: "Delete idempotency rows whose retention window has passed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			e, err := setup(ctx)
			if err != nil {
				return err
			}
			defer e.conn.Close()

			sys := scope.System(uuid.New())
			ctx = scope.With(ctx, sys)

			cutoff := time.Now().UTC().Add(-time.Duration(graceHours) * time.Hour)

			n, err := e.repo.PurgeExpiredIdempotency(ctx, cutoff)
			if err != nil {
				return err
			}

			e.logger.Info("system scope purge completed",
				zap.String("request_id", sys.RequestID.String()),
				zap.Int64("purged", n))
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired idempotency rows\n", n)

			return nil
		},
	}

	cmd.Flags().IntVar(&graceHours, "grace-hours", 24, "extra hours past expiry before a row is purged")

	return cmd
}

func newDrainOutboxCommand() *cobra.Command {
	var (
		company string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "drain-outbox",
		Short: "Publish pending outbox records to the message broker",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			e, err := setup(ctx)
			if err != nil {
				return err
			}
			defer e.conn.Close()

			ctx, err = companyScope(ctx, company)
			if err != nil {
				return err
			}

			amqpURL := fmt.Sprintf("amqp://%s:%s@%s:%s/",
				e.cfg.RabbitMQUser, e.cfg.RabbitMQPass, e.cfg.RabbitMQHost, e.cfg.RabbitMQPortAMQP)

			conn, err := amqp.Dial(amqpURL)
			if err != nil {
				return fmt.Errorf("dial rabbitmq: %w", err)
			}
			defer conn.Close()

			ch, err := conn.Channel()
			if err != nil {
				return fmt.Errorf("open channel: %w", err)
			}
			defer ch.Close()

			drainer := &outbox.Drainer{
				Repo:      e.repo,
				Publisher: rabbitmq.NewPublisher(ch, e.cfg.RabbitMQExchange),
				Logger:    e.logger,
			}

			published, err := drainer.Drain(ctx, limit)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "published %d outbox records\n", published)

			return nil
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "company ID (required)")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum records to publish in one run")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}

func newTrialBalanceCommand() *cobra.Command {
	var (
		company string
		from    string
		to      string
	)

	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Print a company's trial balance for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			e, err := setup(ctx)
			if err != nil {
				return err
			}
			defer e.conn.Close()

			ctx, err = companyScope(ctx, company)
			if err != nil {
				return err
			}

			fromDate, err := time.Parse("2006-01-02", from)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}

			toDate, err := time.Parse("2006-01-02", to)
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}

			reporter := &reporting.Reporter{Repo: e.repo}

			report, err := reporter.TrialBalance(ctx, fromDate, toDate)
			if err != nil {
				return err
			}

			var totalDebit, totalCredit int64

			for _, row := range report.Rows {
				totalDebit += row.DebitMinor
				totalCredit += row.CreditMinor
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-32s %14s %14s\n", row.Code, row.Name, row.Debit, row.Credit)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "totals (minor units): debit=%d credit=%d\n", totalDebit, totalCredit)
			fmt.Fprintf(cmd.OutOrStdout(), "integrity hash: %s\n", report.IntegrityHash)

			return nil
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "company ID (required)")
	cmd.Flags().StringVar(&from, "from", "", "range start, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&to, "to", "", "range end, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
