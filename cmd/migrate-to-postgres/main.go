// migrate-to-postgres copies the run history from SQLite to PostgreSQL.
//
// Usage:
//
//	go run ./cmd/migrate-to-postgres \
//	    -sqlite data/runs.db \
//	    -pg-host localhost \
//	    -pg-port 5432 \
//	    -pg-user randomizer \
//	    -pg-password randomizer \
//	    -pg-database randomizer
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/database"
)

func main() {
	sqlitePath := flag.String("sqlite", "data/runs.db", "Path to SQLite run history")
	pgHost := flag.String("pg-host", "localhost", "PostgreSQL host")
	pgPort := flag.Int("pg-port", 5432, "PostgreSQL port")
	pgUser := flag.String("pg-user", "randomizer", "PostgreSQL user")
	pgPassword := flag.String("pg-password", "randomizer", "PostgreSQL password")
	pgDatabase := flag.String("pg-database", "randomizer", "PostgreSQL database name")
	pgSSLMode := flag.String("pg-sslmode", "disable", "PostgreSQL SSL mode")
	dryRun := flag.Bool("dry-run", false, "Show what would be migrated without making changes")
	flag.Parse()

	log.Println("Run History Migration Tool")
	log.Println("==========================")

	if _, err := os.Stat(*sqlitePath); err != nil {
		log.Fatalf("SQLite run history not found: %v", err)
	}

	log.Printf("Opening SQLite database: %s", *sqlitePath)
	src, err := database.Open(*sqlitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite database: %v", err)
	}
	defer src.Close()

	pg := database.DefaultPostgresConfig()
	pg.Host = *pgHost
	pg.Port = *pgPort
	pg.User = *pgUser
	pg.Password = *pgPassword
	pg.Database = *pgDatabase
	pg.SSLMode = *pgSSLMode

	// Opening runs the schema migrations
	log.Printf("Opening PostgreSQL database: %s@%s:%d/%s", *pgUser, *pgHost, *pgPort, *pgDatabase)
	dst, err := database.OpenWithConfig(database.Config{Driver: "postgres", Postgres: pg})
	if err != nil {
		log.Fatalf("Failed to open PostgreSQL database: %v", err)
	}
	defer dst.Close()

	if *dryRun {
		log.Println("DRY RUN MODE - No changes will be made")
	}

	runs, resizes, err := dst.CopyHistory(src, *dryRun)
	if err != nil {
		log.Fatalf("Migration failed after %d runs: %v", runs, err)
	}

	log.Println("==========================")
	log.Printf("Migration complete! Runs: %d, group resizes: %d", runs, resizes)
	if *dryRun {
		log.Println("(DRY RUN - No actual changes were made)")
	}
}

func init() {
	// Custom usage message
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Copies the randomizer run history from SQLite to PostgreSQL.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s -sqlite data/runs.db -pg-host localhost -pg-user randomizer -pg-password randomizer -pg-database randomizer\n", os.Args[0])
	}
}
