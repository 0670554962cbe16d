// Package events defines domain events that represent significant business occurrences.
// Events are immutable facts about what happened in the past.
//
// Pattern: Domain Events (Observer Pattern foundation)
// - Events are raised by use cases when state changes
// - Persisted to the outbox in the same DB transaction, relayed to NATS
// - Enables loose coupling between the wallet core and downstream consumers
package events

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is the base interface for all domain events.
// All events must have an ID, timestamp, and type.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() string // Identifier of the entity that raised this event
}

// BaseEvent provides common fields for all events.
// Embedded in specific event types to avoid duplication (DRY).
type BaseEvent struct {
	eventID     uuid.UUID
	eventType   string
	occurredAt  time.Time
	aggregateID string
}

func newBaseEvent(eventType, aggregateID string) BaseEvent {
	return BaseEvent{
		eventID:     uuid.New(),
		eventType:   eventType,
		occurredAt:  time.Now(),
		aggregateID: aggregateID,
	}
}

func (e BaseEvent) EventID() uuid.UUID {
	return e.eventID
}

func (e BaseEvent) EventType() string {
	return e.eventType
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.occurredAt
}

func (e BaseEvent) AggregateID() string {
	return e.aggregateID
}

// Event Types (constants for type checking)
const (
	EventTypeAssetCreated      = "asset.created"
	EventTypeAssetDeactivated  = "asset.deactivated"
	EventTypeWalletCreated     = "wallet.created"
	EventTypeTransferCompleted = "wallet.transfer.completed"
)

// ===== Asset Events =====

// AssetCreated is raised when a new asset type enters circulation.
// Consumers typically provision pricing or catalog entries for it.
type AssetCreated struct {
	BaseEvent
	Code string
	Name string
}

func NewAssetCreated(code, name string) *AssetCreated {
	return &AssetCreated{
		BaseEvent: newBaseEvent(EventTypeAssetCreated, code),
		Code:      code,
		Name:      name,
	}
}

// AssetDeactivated is raised when an asset type is taken out of circulation.
type AssetDeactivated struct {
	BaseEvent
	Code string
}

func NewAssetDeactivated(code string) *AssetDeactivated {
	return &AssetDeactivated{
		BaseEvent: newBaseEvent(EventTypeAssetDeactivated, code),
		Code:      code,
	}
}

// ===== Wallet Events =====

// WalletCreated is raised when a wallet is lazily provisioned.
type WalletCreated struct {
	BaseEvent
	WalletID  int64
	UserID    string
	AssetCode string
}

func NewWalletCreated(walletID int64, userID, assetCode string) *WalletCreated {
	return &WalletCreated{
		BaseEvent: newBaseEvent(EventTypeWalletCreated, userID),
		WalletID:  walletID,
		UserID:    userID,
		AssetCode: assetCode,
	}
}

// ===== Transfer Events =====

// TransferCompleted is raised when a transfer commits.
// Consumers might trigger notifications, analytics, or fraud checks.
type TransferCompleted struct {
	BaseEvent
	TransactionID string // public uuid4 identifier
	Flow          string // topup | bonus | spend
	UserID        string
	AssetCode     string
	Amount        string // fixed 2-decimal string
	FromWalletID  int64
	ToWalletID    int64
	CompletedAt   time.Time
}

func NewTransferCompleted(
	transactionID, flow, userID, assetCode, amount string,
	fromWalletID, toWalletID int64,
	completedAt time.Time,
) *TransferCompleted {
	return &TransferCompleted{
		BaseEvent:     newBaseEvent(EventTypeTransferCompleted, transactionID),
		TransactionID: transactionID,
		Flow:          flow,
		UserID:        userID,
		AssetCode:     assetCode,
		Amount:        amount,
		FromWalletID:  fromWalletID,
		ToWalletID:    toWalletID,
		CompletedAt:   completedAt,
	}
}

// EventStore is a simple in-memory collector for events raised during one
// unit of work. The collected batch is handed to the outbox before commit.
type EventStore struct {
	events []DomainEvent
}

// NewEventStore creates a new event store.
func NewEventStore() *EventStore {
	return &EventStore{
		events: make([]DomainEvent, 0),
	}
}

// Add appends an event to the store.
func (s *EventStore) Add(event DomainEvent) {
	s.events = append(s.events, event)
}

// GetAll returns all collected events.
func (s *EventStore) GetAll() []DomainEvent {
	return s.events
}

// Clear removes all events from the store.
func (s *EventStore) Clear() {
	s.events = make([]DomainEvent, 0)
}

// Count returns the number of events in the store.
func (s *EventStore) Count() int {
	return len(s.events)
}
