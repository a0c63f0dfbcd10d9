package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	webAdapter "cantina-ledger/internal/adapters/web"
	"cantina-ledger/internal/app"
	"cantina-ledger/internal/core"
	"cantina-ledger/internal/db"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	users := core.NewUserService(pool)
	catalog := core.NewCatalogService(pool)
	clients := core.NewClientService(pool)
	ledger := core.NewLedgerService(pool)
	reservations := core.NewReservationService(pool, clients)
	reporting := core.NewReportingService(pool)

	svc := app.NewAppService(users, catalog, clients, ledger, reservations, reporting)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
