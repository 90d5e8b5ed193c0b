package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/haitrvn/gutcare/config"
	"github.com/haitrvn/gutcare/pkg/helpers"
)

// Seeds a demo account for local development. Never run against production.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	dsn := cfg.PostgresDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "demo@gutcare.local"
	password := "password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	profile := `{"name":"Demo User","conditions":["IBS"],"dietaryPreferences":[]}`
	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, user_profile)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (email) DO UPDATE SET user_profile = EXCLUDED.user_profile
	`, email, hash, profile)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: email=%s password=%s\n", email, password)
}
