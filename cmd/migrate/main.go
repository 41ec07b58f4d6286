package main

import (
	"context"
	"log"
	"os"

	"github.com/samirrijal/streamgeo/internal/adapters/postgres"
	"github.com/samirrijal/streamgeo/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("streamgeo-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 2)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		err = postgres.MigrateUp(ctx, db)
	case "down":
		err = postgres.MigrateDown(ctx, db)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", os.Args[1], err)
	}
	log.Printf("migrate %s: done", os.Args[1])
}
