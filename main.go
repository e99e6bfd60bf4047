package main

//go:generate swag init

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/galaxybank/backoffice/catalog"
	"github.com/galaxybank/backoffice/config"
	"github.com/galaxybank/backoffice/db"
	_ "github.com/galaxybank/backoffice/docs"
	"github.com/galaxybank/backoffice/handlers"
	"github.com/galaxybank/backoffice/ledger"
	"github.com/galaxybank/backoffice/models"
)

// @title           Ledger & Billing Engine API
// @version         1.0.0
// @description     Back-office API for account balances, transfers, credit limits, purchases and monthly installment invoices.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.basic  BasicAuth

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Configure structured logging
	level := slog.LevelInfo
	if cfg.Server.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	// Open database
	database, err := db.Open(cfg.DB.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Run migrations
	if err := db.Migrate(database); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	grant, err := models.ParseMoney(cfg.Ledger.SignupGrant)
	if err != nil {
		slog.Error("invalid signup grant", "value", cfg.Ledger.SignupGrant, "error", err)
		os.Exit(1)
	}
	markup, err := decimal.NewFromString(cfg.Catalog.InstallmentMarkup)
	if err != nil {
		slog.Error("invalid installment markup", "value", cfg.Catalog.InstallmentMarkup, "error", err)
		os.Exit(1)
	}

	// Wire shared handler state
	handlers.DB = database
	handlers.Engine = ledger.New(database,
		ledger.WithSignupGrant(grant),
		ledger.WithDueDayDefault(cfg.Ledger.DueDayDefault))
	handlers.Catalog = catalog.NewSyncer(database, cfg.Catalog.URL, markup)
	handlers.AuthUser = cfg.Server.AuthUser
	handlers.AuthPass = cfg.Server.AuthPass

	// Router setup
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// API routes with basic auth
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(handlers.BasicAuth)

		// Accounts
		r.Get("/accounts", handlers.ListAccounts)
		r.Post("/accounts", handlers.CreateAccount)
		r.Get("/accounts/{id}", handlers.GetAccount)
		r.Get("/accounts/{id}/credit-history", handlers.GetCreditHistory)
		r.Get("/accounts/{id}/transfers", handlers.GetTransferHistory)
		r.Put("/accounts/{id}/due-day", handlers.SetDueDay)
		r.Get("/accounts/{id}/cart", handlers.ListCartItems)
		r.Get("/accounts/{id}/purchases", handlers.ListPurchases)
		r.Get("/accounts/{id}/invoices", handlers.ListInvoices)

		// Transfers
		r.Post("/transfers", handlers.CreateTransfer)

		// Credit requests
		r.Get("/credit/requests", handlers.ListCreditRequests)
		r.Post("/credit/requests", handlers.CreateCreditRequest)
		r.Get("/credit/requests/{id}", handlers.GetCreditRequest)
		r.Post("/credit/requests/{id}/approve", handlers.ApproveCreditRequest)
		r.Post("/credit/requests/{id}/reject", handlers.RejectCreditRequest)
		r.Post("/credit/requests/{id}/cancel", handlers.CancelCreditRequest)

		// Store
		r.Get("/products", handlers.ListProducts)
		r.Get("/products/{id}", handlers.GetProduct)
		r.Post("/cart", handlers.AddCartItem)
		r.Delete("/cart/{id}", handlers.RemoveCartItem)
		r.Post("/checkout", handlers.Checkout)
		r.Get("/purchases/{id}", handlers.GetPurchase)
		r.Post("/catalog/sync", handlers.SyncCatalog)

		// Invoices
		r.Get("/invoices/{id}", handlers.GetInvoice)
		r.Get("/invoices/{id}/items", handlers.GetInvoiceItems)
		r.Get("/invoices/{id}/payments", handlers.GetInvoicePayments)
		r.Post("/invoices/{id}/close", handlers.CloseInvoice)
		r.Post("/invoices/{id}/pay", handlers.PayInvoice)
		r.Post("/invoices/{id}/reschedule", handlers.RescheduleInvoice)
		r.Post("/payments/{id}/pay", handlers.PayInstallment)

		// Dashboard
		r.Get("/dashboard", handlers.GetDashboard)
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Swagger UI
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	slog.Info("server starting", "address", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
