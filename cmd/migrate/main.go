package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/samirrijal/mapcat/internal/adapters/postgres"
	"github.com/samirrijal/mapcat/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("mapcat-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		err = postgres.Migrate(ctx, db)
	case "down":
		err = postgres.Drop(ctx, db)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("migration %s applied", os.Args[1])
}
