package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/relief/internal/pkg/config"
)

var upFiles = []string{
	"migrations/001_init_extensions.sql",
	"migrations/002_regions.sql",
}

const downSQL = `DROP TABLE IF EXISTS regions;`

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("relief-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	err = migrate(ctx, pool, os.Args[1])
	pool.Close()
	if err != nil {
		log.Fatal(err)
	}
}

func migrate(ctx context.Context, pool *pgxpool.Pool, cmd string) error {
	switch cmd {
	case "up":
		return runMigrations(ctx, pool)
	case "down":
		if _, err := pool.Exec(ctx, downSQL); err != nil {
			return fmt.Errorf("down: %w", err)
		}
		log.Println("regions table dropped")
		return nil
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	for _, f := range upFiles {
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	log.Println("all migrations applied")
	return nil
}
