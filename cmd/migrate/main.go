package main

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/config"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	action := flag.String("action", "up", "Migration action: up, down, version, force")
	steps := flag.Int("steps", 0, "Steps to roll back (down) or version to force (force)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbName, err := databaseName(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	// golang-migrate works on database/sql
	db, err := database.NewPool(database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	log.Printf("Connected to database %s\n", dbName)

	migrator, err := database.NewMigrator(db, dbName)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()

	switch *action {
	case "up":
		log.Println("Running migrations...")
		if err := migrator.Up(); err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
		log.Println("✓ Migrations completed successfully")

	case "down":
		n := *steps
		if n <= 0 {
			n = 1
		}
		log.Printf("Rolling back %d migration(s)...\n", n)
		if err := migrator.Down(n); err != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}
		log.Println("✓ Migration rolled back successfully")

	case "version":
		version, dirty, err := migrator.Version()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		if dirty {
			log.Printf("Current version: %d (DIRTY - migration incomplete)\n", version)
		} else {
			log.Printf("Current version: %d\n", version)
		}

	case "force":
		if *steps == 0 {
			return fmt.Errorf("steps flag is required for force action")
		}
		log.Printf("Forcing migration to version %d...\n", *steps)
		if err := migrator.Force(*steps); err != nil {
			return fmt.Errorf("force migration failed: %w", err)
		}
		log.Println("✓ Migration version forced successfully")

	default:
		return fmt.Errorf("invalid action: %s (use: up, down, version, force)", *action)
	}

	return nil
}

// databaseName extracts the database from a postgres:// URL
func databaseName(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" {
		return "", fmt.Errorf("DATABASE_URL has no database name")
	}
	return name, nil
}
