package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"finch/internal/domain/account"
	"finch/internal/domain/asset"
	"finch/internal/domain/event"
	"finch/internal/domain/item"
	"finch/internal/domain/sync"
	"finch/internal/domain/transaction"
	"finch/internal/domain/user"
	"finch/internal/infrastructure/crypto"
	"finch/internal/infrastructure/firestore"
	"finch/internal/infrastructure/postgres"
	"finch/internal/infrastructure/provider"
	httphandlers "finch/internal/interfaces/http"
	"finch/internal/shared/config"
	"finch/internal/storage"
	"finch/internal/storage/memory"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	Store  storage.Store
	closer io.Closer

	// Handlers
	UserHandler        *httphandlers.UserHandler
	ItemHandler        *httphandlers.ItemHandler
	AccountHandler     *httphandlers.AccountHandler
	TransactionHandler *httphandlers.TransactionHandler
	AssetHandler       *httphandlers.AssetHandler
	EventHandler       *httphandlers.EventHandler

	// Services (for the scheduler job provider)
	UserService  *user.Service
	ItemRegistry *item.Registry
	SyncEngine   *sync.Engine
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	store, closer, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Initialize encryptor
	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		return nil, err
	}

	// Initialize repositories and domain services
	accountRepo := account.NewRepository(store)
	reconciler := account.NewReconciler(accountRepo)
	transactionRepo := transaction.NewRepository(store)
	itemRepo := item.NewRepository(store, encryptor, transactionRepo, accountRepo)
	itemRegistry := item.NewRegistry(itemRepo)
	eventLogger := event.NewLogger(store)
	assetService := asset.NewService(asset.NewRepository(store))
	userService := user.NewService(user.NewRepository(store), itemRegistry, assetService)

	// Initialize provider client and sync engine
	providerClient := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.Timeout)
	engine, err := sync.NewEngine(itemRepo, itemRegistry, accountRepo, reconciler, transactionRepo, providerClient, eventLogger, store)
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		Store:              store,
		closer:             closer,
		UserHandler:        httphandlers.NewUserHandler(userService),
		ItemHandler:        httphandlers.NewItemHandler(itemRegistry, engine),
		AccountHandler:     httphandlers.NewAccountHandler(accountRepo),
		TransactionHandler: httphandlers.NewTransactionHandler(transactionRepo),
		AssetHandler:       httphandlers.NewAssetHandler(assetService),
		EventHandler:       httphandlers.NewEventHandler(eventLogger),
		UserService:        userService,
		ItemRegistry:       itemRegistry,
		SyncEngine:         engine,
	}, nil
}

// newStore selects and connects the persistence backend.
func newStore(ctx context.Context, cfg *config.Config) (storage.Store, io.Closer, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := postgres.Open(cfg.Database.ConnectionString())
		if err != nil {
			return nil, nil, err
		}
		store := postgres.NewStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Println("Connected to Postgres")
		return store, db, nil
	case "firestore":
		store, err := firestore.NewStore(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Connected to Firestore project %s", cfg.Firebase.ProjectID)
		return store, store, nil
	case "memory":
		log.Println("Using in-memory store (data is not persisted)")
		return memory.NewStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.closer != nil {
		if err := d.closer.Close(); err != nil {
			log.Printf("Error closing store: %v", err)
		}
	}
}
