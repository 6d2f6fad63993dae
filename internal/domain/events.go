package domain

import "time"

// Event types
const (
	EventTypeTransactionCreated   = "transaction.created"
	EventTypeAccountCreated       = "account.created"
	EventTypeAccountClosed        = "account.closed"
	EventTypeAccountLimitsUpdated = "account.limits_updated"
	EventTypeRegistrationApproved = "registration.approved"
)

// Aggregate types
const (
	AggregateTypeTransaction  = "transaction"
	AggregateTypeAccount      = "account"
	AggregateTypeRegistration = "registration"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewTransactionCreatedEvent builds the outbox record for a committed transaction.
func NewTransactionCreatedEvent(id string, tx *Transaction) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   tx.ID,
		AggregateType: AggregateTypeTransaction,
		EventType:     EventTypeTransactionCreated,
		Payload: map[string]any{
			"transaction_id":     tx.ID,
			"from_iban":          tx.FromIBAN,
			"to_iban":            tx.ToIBAN,
			"amount":             tx.Amount.StringFixed(AmountPlaces),
			"type":               string(tx.Type),
			"performing_user_id": tx.PerformingUserID,
			"timestamp":          tx.Timestamp.UTC().Format(time.RFC3339Nano),
		},
		CreatedAt: tx.Timestamp,
	}
}

// NewAccountEvent builds an outbox record describing an account state change.
func NewAccountEvent(id, eventType string, acc *Account, at time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   acc.ID,
		AggregateType: AggregateTypeAccount,
		EventType:     eventType,
		Payload: map[string]any{
			"account_id":     acc.ID,
			"iban":           acc.IBAN,
			"owner_id":       acc.OwnerID,
			"account_type":   string(acc.Type),
			"absolute_limit": acc.AbsoluteLimit.StringFixed(AmountPlaces),
			"daily_limit":    acc.DailyLimit.StringFixed(AmountPlaces),
			"active":         acc.Active,
		},
		CreatedAt: at,
	}
}

// NewRegistrationApprovedEvent records that a registration became a customer.
func NewRegistrationApprovedEvent(id string, reg *PendingRegistration, customerID string, at time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   reg.ID,
		AggregateType: AggregateTypeRegistration,
		EventType:     EventTypeRegistrationApproved,
		Payload: map[string]any{
			"registration_id": reg.ID,
			"customer_id":     customerID,
			"email":           reg.Email,
		},
		CreatedAt: at,
	}
}
