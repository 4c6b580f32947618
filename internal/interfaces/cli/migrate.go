package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/boodo/silvasync/internal/infrastructure/migration"
	"github.com/boodo/silvasync/migrations"
)

const defaultMigrationsDir = "migrations"

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the store schema migrations",
		Long: `Apply the embedded schema migrations to the store database.

Example:
  silvasync migrate up
  silvasync migrate steps -1
  silvasync migrate create add_order_index --description "index orders by date"`,
	}

	cmd.AddCommand(
		migrateAction(opts, "up", "Apply all pending migrations", cobra.NoArgs, func(m *migration.Migrator, cmd *cobra.Command, _ []string) error {
			return m.Up()
		}),
		migrateAction(opts, "down", "Roll back all migrations", cobra.NoArgs, func(m *migration.Migrator, cmd *cobra.Command, _ []string) error {
			return m.Down()
		}),
		migrateAction(opts, "steps <n>", "Apply n migrations, or roll back when n is negative", cobra.ExactArgs(1), func(m *migration.Migrator, cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n == 0 {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			return m.Steps(n)
		}),
		migrateAction(opts, "version", "Print the current schema version", cobra.NoArgs, func(m *migration.Migrator, cmd *cobra.Command, _ []string) error {
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		}),
		migrateAction(opts, "force <version>", "Set the schema version without running migrations", cobra.ExactArgs(1), func(m *migration.Migrator, cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.Force(v)
		}),
		newMigrateCreateCommand(),
		newMigrateListCommand(),
	)
	return cmd
}

func migrateAction(opts *RootOptions, use, short string, args cobra.PositionalArgs, fn func(*migration.Migrator, *cobra.Command, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.connect(ctx, false); err != nil {
					return err
				}
				sqlDB, err := a.db.DB.DB()
				if err != nil {
					return fmt.Errorf("failed to get underlying sql.DB: %w", err)
				}
				m, err := migration.New(sqlDB, migrations.FS, a.log)
				if err != nil {
					return err
				}
				defer func() { _ = m.Close() }()
				return fn(m, cmd, args)
			})
		},
	}
}

func newMigrateCreateCommand() *cobra.Command {
	var dir, description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Write a new numbered up/down migration pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := migration.CreateMigration(dir, args[0], description)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s\n", file.UpPath)
			fmt.Fprintf(out, "Created %s\n", file.DownPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", defaultMigrationsDir, "migrations directory")
	cmd.Flags().StringVar(&description, "description", "", "comment written at the top of both files")
	return cmd
}

func newMigrateListCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the migrations found in a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := migration.ListMigrations(dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintf(out, "No migrations in %s\n", dir)
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", defaultMigrationsDir, "migrations directory")
	return cmd
}
