package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"ledger-service/internal/domain"
	"ledger-service/internal/pub"
	"ledger-service/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// maxPostingRetries bounds the replay of postings rejected with ErrConflict
// (serialization failures, sequence collisions under contention).
const maxPostingRetries = 3

type PostingUsecase struct {
	store       repository.Store
	policy      domain.MirrorPolicy
	publisher   pub.Publisher
	redisClient *redis.Client
}

func NewPostingUsecase(
	store repository.Store,
	policy domain.MirrorPolicy,
	publisher pub.Publisher,
	redisClient *redis.Client,
) *PostingUsecase {
	if publisher == nil {
		publisher = pub.NopPublisher{}
	}
	return &PostingUsecase{
		store:       store,
		policy:      policy,
		publisher:   publisher,
		redisClient: redisClient,
	}
}

// Post validates and records one department posting. The mirror policy
// decides whether the posting also lands in the main ledger and whether
// same-day entries aggregate into one voucher. Conflicted attempts are
// retried with backoff before giving up.
func (uc *PostingUsecase) Post(ctx context.Context, req *domain.PostingRequest) (*repository.PostingResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	entry := &repository.PostingEntry{
		Scope:              req.Scope,
		Kind:               req.Kind,
		Amount:             req.Amount,
		Description:        req.Description,
		BusinessRef:        req.BusinessRef,
		OccurredOn:         req.OccurredOn,
		CreatedBy:          req.CreatedBy,
		EnforceSufficiency: !req.Kind.Increases(),
		Mirror:             uc.policy.Mirrors(req.Scope),
		AggregateDaily:     uc.policy.AggregatesDaily(req.Scope, req.Kind),
		Narration:          req.Narration(),
	}
	// Fund movements carry a purpose instead of a category.
	if req.Kind.IsFund() {
		entry.Purpose = req.Category
	} else {
		entry.Category = req.Category
	}

	var result *repository.PostingResult
	var err error
	for attempt := 0; attempt < maxPostingRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
			}
		}
		result, err = uc.store.ApplyPosting(ctx, entry)
		if err == nil || !errors.Is(err, domain.ErrConflict) {
			break
		}
		log.Printf("[Posting] Conflict on attempt %d for scope=%s kind=%s, retrying", attempt+1, req.Scope, req.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply posting: %w", err)
	}

	uc.invalidateBalances(ctx, req.Scope, entry.Mirror)

	if pubErr := uc.publisher.PostingRecorded(ctx, result); pubErr != nil {
		log.Printf("[Posting] Failed to publish event for %s: %v", result.Transaction.TransactionNo, pubErr)
	}

	return result, nil
}

// GetBalance returns the current balance for a scope with caching.
func (uc *PostingUsecase) GetBalance(ctx context.Context, scope domain.Scope) (decimal.Decimal, error) {
	if !scope.IsValid() {
		return decimal.Zero, domain.ErrUnknownScope
	}

	cacheKey := balanceCacheKey(scope)
	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var balance decimal.Decimal
			if jsonErr := json.Unmarshal([]byte(val), &balance); jsonErr == nil {
				return balance, nil
			}
		}
	}

	balance, err := uc.store.GetBalance(ctx, scope)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}

	if uc.redisClient != nil {
		if data, err := json.Marshal(balance); err == nil {
			_ = uc.redisClient.Set(ctx, cacheKey, data, 30*time.Second).Err()
		}
	}

	return balance, nil
}

// FindByBusinessReference looks up the latest posting recorded for an
// originating business event. Callers use it to detect duplicates before
// retrying a posting.
func (uc *PostingUsecase) FindByBusinessReference(ctx context.Context, scope domain.Scope, refType, refID string) (*domain.Transaction, error) {
	if !scope.IsDepartment() {
		return nil, domain.ErrUnknownScope
	}
	if refType == "" || refID == "" {
		return nil, domain.ErrNotFound
	}
	return uc.store.FindByBusinessReference(ctx, scope, refType, refID)
}

func (uc *PostingUsecase) invalidateBalances(ctx context.Context, scope domain.Scope, mirrored bool) {
	if uc.redisClient == nil {
		return
	}
	keys := []string{balanceCacheKey(scope)}
	if mirrored {
		keys = append(keys, balanceCacheKey(domain.ScopeMain))
	}
	if err := uc.redisClient.Del(ctx, keys...).Err(); err != nil {
		log.Printf("[Posting] Failed to invalidate balance cache: %v", err)
	}
}

func balanceCacheKey(scope domain.Scope) string {
	return fmt.Sprintf("ledger:balance:%s", scope)
}
