package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedShippingRates(ctx, pool)
	seedCommissionRules(ctx, pool)
	seedCategoryMultipliers(ctx, pool)

	log.Println("Seeding completed successfully!")
}

func seedShippingRates(ctx context.Context, pool *pgxpool.Pool) {
	rates := []struct {
		Country        string
		BaseRate       string
		PerKgRate      string
		CommissionRate string
		Currency       string
	}{
		{"China", "25.00", "8.00", "0.15", "CNY"},
		{"Turkey", "18.00", "6.50", "0.12", "TRY"},
		{"Germany", "30.00", "9.00", "0.10", "EUR"},
		{"United States", "35.00", "11.00", "0.15", "USD"},
	}

	fmt.Println("Seeding Shipping Rates...")
	for _, r := range rates {
		_, err := pool.Exec(ctx, `
			INSERT INTO shipping_rates (country, base_rate, per_kg_rate, commission_rate, currency)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (country) DO UPDATE SET
				base_rate = EXCLUDED.base_rate,
				per_kg_rate = EXCLUDED.per_kg_rate,
				commission_rate = EXCLUDED.commission_rate,
				currency = EXCLUDED.currency,
				updated_at = now();
		`, r.Country, r.BaseRate, r.PerKgRate, r.CommissionRate, r.Currency)
		if err != nil {
			log.Fatalf("Failed to seed shipping rate %s: %v", r.Country, err)
		}
	}
}

func seedCommissionRules(ctx context.Context, pool *pgxpool.Pool) {
	rules := []struct {
		Country    string
		MinValue   string
		MaxValue   *string
		Percentage string
		FixedFee   string
	}{
		{"China", "0", strPtr("500"), "0.18", "0"},
		{"China", "500.01", strPtr("2000"), "0.15", "5.00"},
		{"China", "2000.01", nil, "0.12", "10.00"},
		{"Turkey", "0", strPtr("1000"), "0.14", "0"},
		{"Turkey", "1000.01", nil, "0.11", "8.00"},
		{"Germany", "0", nil, "0.10", "0"},
	}

	fmt.Println("Seeding Commission Rules...")
	for _, r := range rules {
		_, err := pool.Exec(ctx, `
			INSERT INTO commission_rules (country, min_value, max_value, percentage, fixed_fee)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT DO NOTHING;
		`, r.Country, r.MinValue, r.MaxValue, r.Percentage, r.FixedFee)
		if err != nil {
			log.Fatalf("Failed to seed commission rule for %s: %v", r.Country, err)
		}
	}
}

func seedCategoryMultipliers(ctx context.Context, pool *pgxpool.Pool) {
	multipliers := []struct {
		Country    string
		Category   string
		Multiplier string
	}{
		{"China", "clothing", "0.85"},
		{"China", "electronics", "1.20"},
		{"Turkey", "clothing", "0.90"},
	}

	fmt.Println("Seeding Category Multipliers...")
	for _, m := range multipliers {
		_, err := pool.Exec(ctx, `
			INSERT INTO category_multipliers (country, category, multiplier)
			VALUES ($1, $2, $3)
			ON CONFLICT (country, category) DO UPDATE SET multiplier = EXCLUDED.multiplier;
		`, m.Country, m.Category, m.Multiplier)
		if err != nil {
			log.Fatalf("Failed to seed category multiplier %s/%s: %v", m.Country, m.Category, err)
		}
	}
}

func strPtr(s string) *string { return &s }
