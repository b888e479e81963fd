// ABOUTME: Schema and seed utility for the reference deal server database.
// ABOUTME: Provides dry-run and backup capabilities before touching an existing file.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/harperreed/dealflow/db"
)

func main() {
	dbPath := flag.String("db", "", "Path to database file (required)")
	seedPath := flag.String("seed", "", "YAML seed file to import")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Create backup before migration")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("Error: -db flag is required")
	}

	if err := migrate(*dbPath, *seedPath, *dryRun, *backup); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed successfully")
}

func migrate(dbPath, seedPath string, dryRun, createBackup bool) error {
	_, statErr := os.Stat(dbPath)
	exists := statErr == nil

	var seed *db.Seed
	if seedPath != "" {
		s, err := db.LoadSeedFile(seedPath)
		if err != nil {
			return err
		}
		seed = s
	}

	if dryRun {
		log.Printf("[DRY RUN] Would perform the following actions:")
		if exists && createBackup {
			log.Printf("[DRY RUN] - Back up %s", dbPath)
		}
		if !exists {
			log.Printf("[DRY RUN] - Create database %s", dbPath)
		}
		log.Printf("[DRY RUN] - Ensure tables: deals, entities")
		if seed != nil {
			log.Printf("[DRY RUN] - Import %d deals, %d clients, %d products from %s",
				len(seed.Deals), len(seed.Clients), len(seed.Products), seedPath)
		}
		return nil
	}

	if exists && createBackup {
		backupPath, err := backupFile(dbPath, time.Now())
		if err != nil {
			return err
		}
		log.Printf("Backup created: %s", backupPath)
	}

	database, err := db.OpenDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	tables, err := db.Tables(database)
	if err != nil {
		return fmt.Errorf("failed to get current tables: %w", err)
	}
	log.Printf("Current tables: %v", tables)

	if seed != nil {
		res, err := db.ApplySeed(database, seed)
		if err != nil {
			return err
		}
		log.Printf("Imported %d deals, %d clients, %d products", res.Deals, res.Clients, res.Products)
	}

	return nil
}

func backupFile(path string, now time.Time) (string, error) {
	backupPath := fmt.Sprintf("%s.backup.%s", path, now.Format("20060102-150405"))

	input, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read database: %w", err)
	}
	if err := os.WriteFile(backupPath, input, 0644); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	return backupPath, nil
}
