package main

import (
	"context"
	"log"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/config"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils"
)

func main() {
	if err := config.LoadENV(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	env, err := config.Get()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := utils.NewLogger(env.GO_ENV)

	store, err := database.StartGORM(env, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db := store.DB()
	seeder := database.NewSeeder(database.NewAccountRepository(db), database.NewCatalogRepository(db), logger)
	if err := seeder.SeedAll(context.Background(), env.ADMIN_EMAIL, env.ADMIN_PASSWORD); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	logger.Info("seeding completed")
}
