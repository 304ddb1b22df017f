package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/Strob0t/PropDesk/internal/adapter/postgres"
	"github.com/Strob0t/PropDesk/internal/config"
)

// runMigrate dispatches migrate subcommands (up, down, version).
func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dsn := fs.String("dsn", "", "PostgreSQL connection string (defaults to config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		printMigrateHelp()
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	target := cfg.Postgres.DSN
	if *dsn != "" {
		target = *dsn
	}

	ctx := context.Background()
	switch rest[0] {
	case "up":
		if err := postgres.RunMigrations(ctx, target); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Migrations applied.")
	case "down":
		steps := 1
		if len(rest) > 1 {
			if steps, err = strconv.Atoi(rest[1]); err != nil || steps < 1 {
				return fmt.Errorf("invalid step count %q", rest[1])
			}
		}
		if err := postgres.RollbackMigrations(ctx, target, steps); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Rolled back %d migration(s).\n", steps)
	case "version":
		v, err := postgres.MigrationVersion(ctx, target)
		if err != nil {
			return err
		}
		fmt.Println(v)
	default:
		printMigrateHelp()
		return fmt.Errorf("unknown migrate command: %s", rest[0])
	}
	return nil
}

func printMigrateHelp() {
	fmt.Fprintf(os.Stderr, `Usage: propdesk migrate [--dsn DSN] <command>

Commands:
  up          Apply all pending migrations
  down [N]    Roll back the last N migrations (default 1)
  version     Print the current schema version
`)
}
