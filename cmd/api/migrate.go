package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/support-accounts/internal/config"
	"github.com/spec-kit/support-accounts/internal/persistence"
)

var migrateSteps int

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE:  migrateRunner(func(cmd *cobra.Command, m *persistence.Migrator) error { return m.Down(cmd.Context(), migrateSteps) }),
	}
	down.Flags().IntVarP(&migrateSteps, "steps", "n", 1, "Number of migrations to rollback")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Run all pending migrations",
			RunE:  migrateRunner(func(cmd *cobra.Command, m *persistence.Migrator) error { return m.Up(cmd.Context()) }),
		},
		down,
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			RunE:  migrateRunner(printStatus),
		},
	)
	return cmd
}

func migrateRunner(fn func(*cobra.Command, *persistence.Migrator) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return withPostgres(cmd.Context(), func(_ *config.Config, logger *zap.Logger, pg *persistence.Postgres) error {
			pool, err := pg.Require()
			if err != nil {
				return err
			}
			migrator, err := persistence.NewMigrator(pool, logger)
			if err != nil {
				return err
			}
			defer migrator.Close() //nolint:errcheck
			return fn(cmd, migrator)
		})
	}
}

func printStatus(cmd *cobra.Command, m *persistence.Migrator) error {
	states, err := m.Status(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-8s %-10s %s\n", "VERSION", "STATE", "FILE")
	for _, st := range states {
		state := "pending"
		if st.Applied {
			state = "applied"
		}
		fmt.Fprintf(out, "%-8d %-10s %s\n", st.Version, state, st.File)
	}
	return nil
}
