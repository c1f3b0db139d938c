package main

import (
	"flag"
	"log"
	"os"

	"jem-backend/internal/config"
	"jem-backend/internal/database"
	"jem-backend/internal/middleware"

	"github.com/joho/godotenv"
)

func main() {
	catalogPath := flag.String("catalog", "", "YAML catalog to seed (e.g. migrations/catalog.yaml)")
	sqlPath := flag.String("sql", "", "raw SQL file to execute after migrating")
	adminUser := flag.String("admin", "", "create this admin user if missing (password from ADMIN_PASSWORD)")
	flag.Parse()

	// 1. Load env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env not found, using the process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// 2. Connect Database
	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatal(err)
	}

	// 3. Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	if *sqlPath != "" {
		if err := database.Seed(db, *sqlPath); err != nil {
			log.Fatal(err)
		}
	}

	if *catalogPath != "" {
		f, err := os.Open(*catalogPath)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		if err := database.SeedCatalog(db, f); err != nil {
			log.Fatal(err)
		}
	}

	if *adminUser != "" {
		password := os.Getenv("ADMIN_PASSWORD")
		if len(password) < 6 {
			log.Fatal("ADMIN_PASSWORD must be set (at least 6 characters) to create an admin")
		}
		hash, err := middleware.HashPassword(password)
		if err != nil {
			log.Fatal(err)
		}
		created, err := database.EnsureAdmin(db, *adminUser, hash)
		if err != nil {
			log.Fatal(err)
		}
		if created {
			log.Printf("Admin user %q created", *adminUser)
		} else {
			log.Printf("Admin user %q already exists", *adminUser)
		}
	}
}
