// Seeder loads the embedded pricing grid into the city_pricing table so a
// fresh database prices the same routes as a grid-only deployment.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/coursio/backend-pricing/internal/tariff"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	store := tariff.NewStore(pool, nil)
	seeded := 0
	for _, row := range tariff.Grid() {
		if err := store.UpsertCityRate(ctx, row); err != nil {
			log.Fatalf("Failed to seed %s: %v", row.City, err)
		}
		seeded++
	}
	log.Printf("Seeded %d cities", seeded)

	for key, value := range map[string]string{
		tariff.MetaBonValueEUR:       "5.50",
		tariff.MetaSupplementPerKm:   "0.1",
		tariff.MetaDefaultDistanceKm: "8",
	} {
		if err := store.UpsertMetadata(ctx, key, value); err != nil {
			log.Fatalf("Failed to seed metadata %s: %v", key, err)
		}
	}

	log.Println("Seeding completed successfully!")
}
