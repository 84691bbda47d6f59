package pub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ledger-service/internal/domain"
	"ledger-service/internal/repository"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const PostingEventsTopic = "ledger.posting.recorded"

// PostingEvent is emitted after a posting commits. Downstream consumers
// (notifications, analytics) key on the transaction number.
type PostingEvent struct {
	EventType     string                 `json:"event_type"` // posting.recorded
	Scope         domain.Scope           `json:"scope"`
	TransactionNo string                 `json:"transaction_no"`
	TransactionID int64                  `json:"transaction_id"`
	Kind          domain.TransactionKind `json:"kind"`
	Amount        decimal.Decimal        `json:"amount"`
	BalanceAfter  decimal.Decimal        `json:"balance_after"`
	VoucherNo     string                 `json:"voucher_no,omitempty"`
	OccurredOn    string                 `json:"occurred_on"`
	CreatedBy     string                 `json:"created_by,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
}

// Publisher notifies downstream systems about committed postings. Publishing
// is best effort and happens outside the storage transaction; a failed
// publish never rolls back a posting.
type Publisher interface {
	PostingRecorded(ctx context.Context, result *repository.PostingResult) error
	Close() error
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        PostingEventsTopic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *KafkaPublisher) PostingRecorded(ctx context.Context, result *repository.PostingResult) error {
	txn := result.Transaction
	event := PostingEvent{
		EventType:     "posting.recorded",
		Scope:         txn.Scope,
		TransactionNo: txn.TransactionNo,
		TransactionID: txn.ID,
		Kind:          txn.Kind,
		Amount:        txn.Amount,
		BalanceAfter:  result.Balance,
		OccurredOn:    txn.OccurredOn.Format("2006-01-02"),
		CreatedBy:     txn.CreatedBy,
		Timestamp:     time.Now(),
	}
	if result.Voucher != nil {
		event.VoucherNo = result.Voucher.VoucherNo
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(txn.TransactionNo),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Printf("[PostingEvent] Published: %s scope=%s txn=%s", event.EventType, txn.Scope, txn.TransactionNo)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events. Used when no brokers are configured and in
// tests.
type NopPublisher struct{}

func (NopPublisher) PostingRecorded(ctx context.Context, result *repository.PostingResult) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
