package config

import (
	"os"
	"strings"

	"ledger-service/internal/domain"
)

type AppConfig struct {
	HTTPAddr      string
	RedisAddr     string
	RedisPass     string
	KafkaBrokers  []string
	StorageDriver string // postgres | memory

	// MirrorScopes lists departments whose postings replicate into the
	// main ledger. AggregateDaily lists scope:kind pairs whose same-day
	// postings merge into one voucher.
	MirrorScopes   []string
	AggregateDaily []string
}

func Load() AppConfig {
	return AppConfig{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8023"),
		RedisAddr:      getEnv("REDIS_ADDR", "redis:6379"),
		RedisPass:      getEnv("REDIS_PASS", ""),
		KafkaBrokers:   getEnvSlice("KAFKA_BROKERS", nil),
		StorageDriver:  getEnv("STORAGE_DRIVER", "postgres"),
		MirrorScopes:   getEnvSlice("MIRROR_SCOPES", []string{"hospital"}),
		AggregateDaily: getEnvSlice("AGGREGATE_DAILY", []string{"hospital:income"}),
	}
}

// Policy builds the mirror policy from the configured scope and scope:kind
// lists. Unknown scopes and kinds are skipped.
func (c AppConfig) Policy() domain.MirrorPolicy {
	var mirrors []domain.Scope
	for _, s := range c.MirrorScopes {
		scope := domain.Scope(strings.TrimSpace(s))
		if scope.IsDepartment() {
			mirrors = append(mirrors, scope)
		}
	}

	aggregates := make(map[domain.Scope][]domain.TransactionKind)
	for _, pair := range c.AggregateDaily {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			continue
		}
		scope := domain.Scope(parts[0])
		kind := domain.TransactionKind(parts[1])
		if scope.IsDepartment() && kind.IsValid() {
			aggregates[scope] = append(aggregates[scope], kind)
		}
	}

	return domain.NewMirrorPolicy(mirrors, aggregates)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
