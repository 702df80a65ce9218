package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/EmpoweredVote/czone-backend/internal/zones"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CLI flags
var (
	fixturePath = flag.String("file", "", "Path to the zones YAML fixture (required)")
	dsn         = flag.String("dsn", "", "Postgres DSN (default: env DATABASE_URL)")
	dryRun      = flag.Bool("dry-run", false, "Parse + validate only; no DB writes")
	confirm     = flag.Bool("confirm", false, "Required to write to the database")
	replace     = flag.Bool("replace", false, "Delete all zones and their data before inserting")
	migrate     = flag.Bool("migrate", false, "Create the czone schema and tables first")
)

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *dsn == "" {
		*dsn = os.Getenv("DATABASE_URL")
	}
	if *fixturePath == "" {
		fatalf("--file is required")
	}

	fix, err := loadFixture(*fixturePath)
	if err != nil {
		fatalf("[seed] fixture error: %v", err)
	}
	fmt.Printf("[seed] loaded %d zones from %s\n", len(fix.Zones), *fixturePath)

	if *dryRun {
		printPlan(fix)
		fmt.Println("[seed] dry run complete. No changes made.")
		return
	}
	if !*confirm {
		fatalf("Refusing to run without --confirm. Add --dry-run to preview.")
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	if *migrate {
		gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			fatalf("open gorm: %v", err)
		}
		if err := zones.Migrate(gdb); err != nil {
			fatalf("migrate: %v", err)
		}
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		fatalf("begin tx: %v", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op if already committed
	}()

	if *replace {
		if err := wipeZones(ctx, tx); err != nil {
			fatalf("wipe zones: %v", err)
		}
	}

	ids, err := insertZones(ctx, tx, fix.Zones)
	if err != nil {
		fatalf("insert zones: %v", err)
	}

	if err := tx.Commit(); err != nil {
		fatalf("commit: %v", err)
	}
	fmt.Printf("[seed] inserted %d zones (ids %v)\n", len(ids), ids)
}

func printPlan(fix *Fixture) {
	for _, z := range fix.Zones {
		fmt.Printf("  - %s lat=%.4f lng=%.4f size=%g cbgs=%d start=%s\n",
			z.Name, *z.Latitude, *z.Longitude, *z.Size, len(z.CBGList), z.startDate.Format(time.RFC3339))
	}
}

// wipeZones deletes children before zones (no ON DELETE CASCADE).
func wipeZones(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{
		"czone.sim_data",
		"czone.movement_patterns",
		"czone.pap_data",
		"czone.convenience_zones",
	} {
		res, err := tx.ExecContext(ctx, `DELETE FROM `+table)
		if err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		fmt.Printf("[seed] deleted %d rows from %s\n", n, table)
	}
	return nil
}

func insertZones(ctx context.Context, tx *sql.Tx, rows []ZoneFixture) ([]uint, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO czone.convenience_zones
			(name, label, latitude, longitude, cbg_list, size, start_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]uint, 0, len(rows))
	for _, z := range rows {
		var id uint
		err := stmt.QueryRowContext(ctx,
			z.Name, z.Label, *z.Latitude, *z.Longitude, pq.StringArray(z.CBGList), *z.Size, z.startDate,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("insert zone '%s': %w", z.Name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
