// Command migrate runs schema operations for the database stores.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"docfeed/internal/config"
	"docfeed/internal/database"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|auto|status|reconcile|down>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := open(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	ctx := context.Background()
	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))
	switch cmd {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		log.Println("sql migrations applied")
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		log.Println("automigrations applied")
	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		log.Printf("mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d", status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate, len(status.AppliedVersions), len(status.PendingMigrations))
		for _, m := range status.PendingMigrations {
			log.Printf("pending: %s", m)
		}
		for _, d := range status.CounterDrift {
			log.Printf("counter drift: %s", d)
		}
	case "reconcile":
		fixed, err := database.ReconcileCounters(ctx, db)
		if err != nil {
			return fmt.Errorf("reconcile counters failed: %w", err)
		}
		log.Printf("reconciled %d posts", len(fixed))
	case "down":
		m, err := database.RollbackLatest(ctx, db)
		if err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		if m == nil {
			log.Println("nothing to roll back")
			return nil
		}
		log.Printf("rolled back migration %s", m)
	default:
		return usage()
	}

	return nil
}

// open connects without applying the schema policy; that is this command's job.
func open(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverSQLite:
		return database.OpenSQLite(cfg.SQLitePath)
	case config.StoreDriverPostgres:
		return gorm.Open(postgres.Open(database.PostgresDSN(cfg)), &gorm.Config{Logger: database.NewGormLogger()})
	default:
		return nil, fmt.Errorf("STORE_DRIVER=%s has no schema to migrate", cfg.StoreDriver)
	}
}
