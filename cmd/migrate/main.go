package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/kdimtricp/deepcheck/internal/bootstrap"
	"github.com/kdimtricp/deepcheck/internal/config"
	"github.com/kdimtricp/deepcheck/internal/database"
)

func main() {
	status := flag.Bool("status", false, "Show migration status only")
	migrationsPath := flag.String("migrations", "", "Path to migrations directory (overrides MIGRATIONS_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	if *migrationsPath != "" {
		cfg.MigrationsPath = *migrationsPath
	}

	logger, err := bootstrap.Logger(cfg)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	db, err := database.NewDB(bootstrap.DatabaseConfig(cfg), logger)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer db.Close()

	if !*status {
		fmt.Printf("Running migrations from %s...\n", cfg.MigrationsPath)
		if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
			log.Fatal("Failed to run migrations: ", err)
		}
		fmt.Println("Migrations completed successfully!")
		return
	}

	if cfg.DBType != database.TypePostgres {
		fmt.Printf("%s schema is managed automatically; no SQL migrations are tracked.\n", cfg.DBType)
		return
	}

	migrator := database.NewMigrator(db.Conn(), cfg.DBType, logger)
	migrations, err := migrator.Status(cfg.MigrationsPath)
	if err != nil {
		log.Fatal("Failed to read migration status: ", err)
	}

	fmt.Println("Migration Status:")
	fmt.Println("=================")
	for _, m := range migrations {
		state := "pending"
		if m.Applied {
			state = "applied"
		}
		fmt.Printf("%s - %s [%s]\n", m.Version, m.Name, state)
	}
}
