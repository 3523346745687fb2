package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	webAdapter "solarstock/internal/adapters/web"
	"solarstock/internal/app"
	"solarstock/internal/core"
	"solarstock/internal/db"
	"solarstock/internal/parsersvc"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	parser := parsersvc.New(parsersvc.FromEnv())
	if !parser.Configured() {
		log.Println("UBL_PARSER_URL not set, XML invoices use the built-in extractor")
	}

	cutoff := 0.0
	if v := os.Getenv("MATCH_CUTOFF"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 1 {
			cutoff = f
		} else {
			log.Printf("ignoring invalid MATCH_CUTOFF %q", v)
		}
	}

	ledger := core.NewStockLedger(pool)
	invoiceService := core.NewInvoiceService(pool, ledger, parser, cutoff)
	materialService := core.NewMaterialService(pool)
	projectService := core.NewProjectService(pool)

	svc := app.NewAppService(pool, ledger, invoiceService, materialService, projectService)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
