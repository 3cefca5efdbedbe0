package main

import (
	"database/sql"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/apidex-io/apidex/config"
	"github.com/apidex-io/apidex/pkg/helpers"
)

// Seeds a demo account plus a few catalog entries for local development.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	hash, err := helpers.HashPassword("demo-password")
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	var userID string
	err = db.QueryRow(`
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET updated_at = now()
		RETURNING id
	`, "demo", "demo@example.com", hash).Scan(&userID)
	if err != nil {
		log.Fatalf("seed user: %v", err)
	}

	entries := []struct {
		name, desc, endpoint, method, status string
	}{
		{"Users API", "Account management endpoints", "https://api.example.com/v1/users", "GET", "active"},
		{"Orders API", "Order intake", "https://api.example.com/v1/orders", "POST", "active"},
		{"Legacy Billing", "Superseded by Billing v2", "https://api.example.com/v0/billing", "POST", "deprecated"},
	}
	for _, e := range entries {
		if _, err := db.Exec(`
			INSERT INTO apis (user_id, name, description, endpoint, method, status)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, userID, e.name, e.desc, e.endpoint, e.method, e.status); err != nil {
			log.Fatalf("seed api %q: %v", e.name, err)
		}
	}

	log.Printf("seeded demo user %s with %d apis", userID, len(entries))
}
