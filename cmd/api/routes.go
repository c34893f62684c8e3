package main

import (
	"log"
	"net/http"

	httphandlers "finch/internal/interfaces/http"
	"finch/internal/shared/config"
	"finch/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler
// with middleware applied.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", httphandlers.HandleHealth)

	// Users
	mux.HandleFunc("/api/users", deps.UserHandler.HandleUsers)
	mux.HandleFunc("/api/users/{id}", deps.UserHandler.HandleUserByID)

	// Items and sync
	mux.HandleFunc("/api/items", deps.ItemHandler.HandleItems)
	mux.HandleFunc("/api/items/{id}", deps.ItemHandler.HandleItemByID)
	mux.HandleFunc("/api/items/{id}/sync", deps.ItemHandler.HandleSyncItem)

	// Accounts and transactions
	mux.HandleFunc("/api/accounts", deps.AccountHandler.HandleListAccounts)
	mux.HandleFunc("/api/accounts/{id}", deps.AccountHandler.HandleAccountByID)
	mux.HandleFunc("/api/transactions", deps.TransactionHandler.HandleListTransactions)

	// User-declared assets
	mux.HandleFunc("/api/assets", deps.AssetHandler.HandleAssets)
	mux.HandleFunc("/api/assets/{id}", deps.AssetHandler.HandleAssetByID)

	// Link flow events
	mux.HandleFunc("/api/link/events", deps.EventHandler.HandleLinkEvent)

	// Apply global middleware
	var handler http.Handler = mux
	handler = middleware.NoStore(handler)
	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(handler)
	}
	handler = middleware.Logging(handler)
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(handler)
		log.Println("TLS security middleware enabled (HSTS)")
	}

	return handler
}
