package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// Seeds the products table with a small fashion catalog so the API has
// something to quote against in local development. Safe to re-run: every
// insert is an upsert keyed on the product id.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("failed to ping db: %v", err)
	}

	seedProducts(ctx, pool)

	log.Println("seeding completed")
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool) {
	products := []struct {
		ID     string
		Title  string
		Price  int64
		Active bool
		Stock  int32
	}{
		{"tshirt-basic-black", "Basic Tee Black", 450, true, 120},
		{"tshirt-basic-white", "Basic Tee White", 450, true, 140},
		{"polo-classic-navy", "Classic Polo Navy", 890, true, 60},
		{"hoodie-fleece-grey", "Fleece Hoodie Grey", 1650, true, 45},
		{"jeans-slim-indigo", "Slim Fit Jeans Indigo", 1980, true, 80},
		{"jeans-straight-black", "Straight Jeans Black", 1890, true, 75},
		{"panjabi-festive-cream", "Festive Panjabi Cream", 2450, true, 30},
		{"saree-katan-red", "Katan Saree Red", 5200, true, 15},
		{"kurti-printed-teal", "Printed Kurti Teal", 1150, true, 55},
		{"sneaker-canvas-white", "Canvas Sneaker White", 2100, true, 40},
		{"cap-snapback-olive", "Snapback Cap Olive", 380, true, 90},
		{"scarf-wool-maroon", "Wool Scarf Maroon", 720, false, 0},
		{"jacket-denim-blue", "Denim Jacket Blue", 2850, true, 25},
		{"belt-leather-brown", "Leather Belt Brown", 650, true, 70},
	}

	log.Println("seeding products...")
	for _, p := range products {
		_, err := pool.Exec(ctx, `
			INSERT INTO products (id, title, price, is_active, stock)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				price = EXCLUDED.price,
				is_active = EXCLUDED.is_active,
				stock = EXCLUDED.stock,
				updated_at = now();
		`, p.ID, p.Title, p.Price, p.Active, p.Stock)
		if err != nil {
			log.Printf("failed to seed product %s: %v", p.ID, err)
		}
	}
}
