// Command migrate manages the feed schema: users, the fame ledger, the
// social graph and posts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"famefeed/internal/config"
	"famefeed/internal/database"
	"famefeed/internal/middleware"
)

const usageText = `usage: migrate <command> [version]

commands:
  up              apply pending SQL migrations of the feed schema (PostgreSQL)
  auto            build the feed tables with GORM AutoMigrate
  status          show the schema policy, migrations and feed table row counts
  down <version>  roll back one SQL migration`

func main() {
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usageText) }
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	middleware.InitLogger(cfg.Env, cfg.LogLevel)

	if err := run(context.Background(), cfg, flag.Args()); err != nil {
		middleware.Logger.Error("migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("missing command\n%s", usageText)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		middleware.Logger.Info("feed schema migrations applied")
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		middleware.Logger.Info("feed tables migrated", slog.Int("tables", len(database.PersistentModels())))
	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		printStatus(status)
	case "down":
		if len(args) < 2 {
			return fmt.Errorf("down needs a version\n%s", usageText)
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		middleware.Logger.Info("migration rolled back", slog.Int("version", version))
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usageText)
	}
	return nil
}

func printStatus(status *database.SchemaStatus) {
	fmt.Printf("mode:     %s (env %s)\n", status.Mode, status.Environment)
	fmt.Printf("sql:      %t, applied %v\n", status.WillRunSQL, status.AppliedVersions)
	fmt.Printf("auto:     %t\n", status.WillRunAutoMigrate)
	for _, m := range status.PendingMigrations {
		fmt.Printf("pending:  %s\n", m.String())
	}
	fmt.Println("tables:")
	for _, t := range status.Tables {
		if !t.Exists {
			fmt.Printf("  %-22s missing\n", t.Name)
			continue
		}
		fmt.Printf("  %-22s %d rows\n", t.Name, t.Rows)
	}
	if missing := status.Missing(); len(missing) > 0 {
		fmt.Printf("run `migrate up` or `migrate auto` to create: %s\n", strings.Join(missing, ", "))
	}
}
