package server

import (
	"context"
	"log"

	"ledger-service/internal/config"
	hrest "ledger-service/internal/handler/rest"
	"ledger-service/internal/pub"
	"ledger-service/internal/repository"
	"ledger-service/internal/repository/memory"
	"ledger-service/internal/usecase"

	"github.com/redis/go-redis/v9"
)

// NewLedgerRestServer wires storage, cache, events and usecases, then
// serves the REST surface. Blocks until the server exits.
func NewLedgerRestServer(cfg config.AppConfig) {
	// --- Storage ---
	var store repository.Store
	switch cfg.StorageDriver {
	case "memory":
		log.Println("[Store] Using in-memory storage")
		store = memory.NewStore()
	default:
		dbpool, err := config.ConnectDB()
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}

		pgStore := repository.NewPostgresStore(dbpool)
		if err := pgStore.Migrate(context.Background()); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		store = pgStore
	}

	// --- Redis client ---
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       0,
		})
	}

	// --- Event publisher ---
	var publisher pub.Publisher = pub.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = pub.NewKafkaPublisher(cfg.KafkaBrokers)
	}
	defer publisher.Close()

	// --- Usecases ---
	policy := cfg.Policy()
	postingUC := usecase.NewPostingUsecase(store, policy, publisher, rdb)
	reportUC := usecase.NewReportUsecase(store, rdb)

	// --- REST handler ---
	restHandler := hrest.NewLedgerRestHandler(postingUC, reportUC)
	restHandler.Start(cfg.HTTPAddr)
}
