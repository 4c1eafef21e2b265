package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"organizer/internal/auth"
	"organizer/internal/backend"
	"organizer/internal/config"
	"organizer/internal/core"
	"organizer/internal/ledger"
	"organizer/internal/log"
	"organizer/internal/storage"
)

var (
	ownerFlag string
	monthFlag int
	yearFlag  int
	kindFlag  string
	ttlFlag   time.Duration
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations for the configured SQL backend.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		bcfg, err := backend.FromAppConfig(cfg)
		if err != nil {
			return err
		}
		var repo *storage.Repository
		var dsn string
		switch bcfg.Type {
		case backend.SQLiteBackend:
			dsn = bcfg.SQLiteDBPath
			repo, err = storage.NewSQLiteRepository(dsn, nil)
		case backend.PostgresBackend:
			dsn = bcfg.PostgresURL
			repo, err = storage.NewPostgresRepository(dsn, nil)
		default:
			return fmt.Errorf("backend %q has no migrations", bcfg.Type)
		}
		if err != nil {
			return err
		}
		defer repo.Close()

		version, dirty, err := storage.MigrationVersion(repo.Dialect(), dsn)
		if err != nil {
			return err
		}
		count, err := repo.Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s schema at version %d (dirty=%t), %d transactions stored\n", repo.Dialect(), version, dirty, count)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List an owner's transactions for a month.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withOwnerService(cmd, func(ctx context.Context, svc *ledger.Service, p core.Period) error {
			txs, err := svc.ListTransactions(ctx, p, kindFlag)
			if err != nil {
				return err
			}
			return writeList(cmd.OutOrStdout(), txs)
		})
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print an owner's monthly summary.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withOwnerService(cmd, func(ctx context.Context, svc *ledger.Service, p core.Period) error {
			s, err := svc.GetSummary(ctx, p)
			if err != nil {
				return err
			}
			return writeSummary(cmd.OutOrStdout(), p, s)
		})
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for an owner (development use).",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if strings.TrimSpace(ownerFlag) == "" {
			return errors.New("--owner is required")
		}
		cfg := config.Load()
		authn, err := auth.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer, nil)
		if err != nil {
			return err
		}
		tok, err := authn.Issue(core.OwnerID(ownerFlag), ttlFlag)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	now := time.Now().UTC()
	for _, c := range []*cobra.Command{listCmd, summaryCmd} {
		c.Flags().StringVar(&ownerFlag, "owner", "", "Owner whose ledger is read.")
		c.Flags().IntVar(&monthFlag, "month", int(now.Month()), "Month (1-12).")
		c.Flags().IntVar(&yearFlag, "year", now.Year(), "Year.")
		_ = c.MarkFlagRequired("owner")
	}
	listCmd.Flags().StringVar(&kindFlag, "kind", "", "Only income or expense.")

	tokenCmd.Flags().StringVar(&ownerFlag, "owner", "", "Token subject.")
	tokenCmd.Flags().DurationVar(&ttlFlag, "ttl", 24*time.Hour, "Token lifetime.")
}

// withOwnerService opens the configured backend and runs fn as the --owner.
func withOwnerService(cmd *cobra.Command, fn func(context.Context, *ledger.Service, core.Period) error) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := log.New(log.Config{Level: log.ParseLevel("warn"), Component: log.ComponentCLI, Output: cmd.ErrOrStderr()})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	if result.Cleanup != nil {
		defer result.Cleanup()
	}

	svc := ledger.NewService(result.Backend, auth.ContextResolver{},
		ledger.WithRounding(cfg.Rounding()), ledger.WithLogger(logger))
	ctx = auth.WithOwner(ctx, core.OwnerID(ownerFlag))
	return fn(ctx, svc, core.Period{Year: yearFlag, Month: monthFlag})
}

func writeList(w io.Writer, txs []core.Transaction) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tKIND\tCATEGORY\tAMOUNT\tTITLE\tID")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.Date, tx.Kind, tx.Category, tx.SignedAmount().FormatBRL(), tx.Title, tx.ID)
	}
	return tw.Flush()
}

func writeSummary(w io.Writer, p core.Period, s core.PeriodSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Period\t%s\t\n", p)
	fmt.Fprintf(tw, "Transactions\t%d\t\n", s.TransactionCount)
	fmt.Fprintf(tw, "Income\t%s\t\n", s.TotalIncome.FormatBRL())
	fmt.Fprintf(tw, "Expense\t%s\t\n", s.TotalExpense.FormatBRL())
	fmt.Fprintf(tw, "Balance\t%s\t\n", s.Balance.FormatBRL())
	for _, row := range s.ByCategory {
		fmt.Fprintf(tw, "  %s\t+%s / -%s\t\n", row.Category, row.IncomeSubtotal.FormatBRL(), row.ExpenseSubtotal.FormatBRL())
	}
	return tw.Flush()
}
