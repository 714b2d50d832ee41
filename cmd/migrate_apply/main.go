package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"tasks_api/internal/db"
)

func main() {
	backend := flag.String("backend", "postgres", "postgres or sqlite")
	sqlitePath := flag.String("sqlite", "tasks.db", "sqlite database file")
	apply := flag.Bool("apply", false, "apply pending migrations")
	flag.Parse()

	migrations, err := db.Migrations(*backend)
	if err != nil {
		log.Fatal(err)
	}
	if !*apply {
		for _, m := range migrations {
			fmt.Println(m.Name)
		}
		return
	}

	ctx := context.Background()
	var applied []string
	switch *backend {
	case db.DialectPostgres:
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			log.Fatal("DATABASE_URL not set")
		}
		pool, err := db.Connect(ctx, dsn)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		defer pool.Close()
		applied, err = db.MigratePostgres(ctx, pool)
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
	case db.DialectSQLite:
		sqlDB, err := db.OpenSQLite(ctx, *sqlitePath)
		if err != nil {
			log.Fatalf("open: %v", err)
		}
		defer sqlDB.Close()
		applied, err = db.MigrateSQLite(ctx, sqlDB)
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	for _, name := range applied {
		fmt.Printf("applied %s\n", name)
	}
	if len(applied) == 0 {
		fmt.Println("nothing to apply")
	}
}
