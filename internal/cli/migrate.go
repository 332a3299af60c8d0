package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply, roll back or inspect schema migrations" }
func (*migrateCmd) Usage() string {
	return `stocktracker migrate up|down|version

  up       apply all pending migrations
  down     roll back every migration
  version  print the current schema version
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return subcommands.ExitUsageError
	}

	cfg, err := loadConfig()
	if err != nil {
		return fail("%v", err)
	}
	db, err := openDatabase(cfg.Database)
	if err != nil {
		return fail("%v", err)
	}
	defer db.Close()

	switch f.Arg(0) {
	case "up":
		if err := db.Migrate(); err != nil {
			return fail("%v", err)
		}
	case "down":
		if err := db.MigrateDown(); err != nil {
			return fail("%v", err)
		}
	case "version":
	default:
		return subcommands.ExitUsageError
	}

	version, dirty, err := db.MigrationVersion()
	if err != nil {
		return fail("%v", err)
	}
	fmt.Printf("schema version %d", version)
	if dirty {
		fmt.Print(" (dirty)")
	}
	fmt.Println()
	return subcommands.ExitSuccess
}
