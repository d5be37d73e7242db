package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedTables(db)
	seedProducts(db)

	log.Println("Seeding completed successfully!")
}

func seedTables(db *sql.DB) {
	billiardTables := []struct {
		Name            string
		HourlyRateCents int64
	}{
		{"Mesa 1", 4000},
		{"Mesa 2", 4000},
		{"Mesa 3", 4000},
		{"Mesa 4", 5000},
		{"Mesa 5", 5000},
		{"Mesa VIP", 8000},
	}

	fmt.Println("Seeding Tables...")
	for _, t := range billiardTables {
		_, err := db.Exec(`
			INSERT INTO tables (id, name, hourly_rate_cents, occupied)
			VALUES (gen_random_uuid(), $1, $2, FALSE)
			ON CONFLICT (name) DO UPDATE SET hourly_rate_cents = EXCLUDED.hourly_rate_cents;
		`, t.Name, t.HourlyRateCents)
		if err != nil {
			log.Printf("Failed to seed table %s: %v", t.Name, err)
		}
	}
}

func seedProducts(db *sql.DB) {
	products := []struct {
		Name       string
		Category   string
		PriceCents int64
	}{
		{"Cerveza Gallo", "bebidas", 2500},
		{"Cerveza Brahva", "bebidas", 2000},
		{"Agua Pura", "bebidas", 800},
		{"Gaseosa", "bebidas", 1200},
		{"Cafe", "bebidas", 1000},
		{"Nachos", "comida", 3500},
		{"Alitas", "comida", 4500},
		{"Papalinas", "snacks", 1500},
		{"Chicharrones", "snacks", 1800},
		{"Cigarros", "varios", 3000},
	}

	fmt.Println("Seeding Products...")
	for _, p := range products {
		_, err := db.Exec(`
			INSERT INTO products (id, name, category, price_cents, active)
			VALUES (gen_random_uuid(), $1, $2, $3, TRUE)
			ON CONFLICT (lower(name)) DO UPDATE SET price_cents = EXCLUDED.price_cents, category = EXCLUDED.category;
		`, p.Name, p.Category, p.PriceCents)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Name, err)
		}
	}
}
