package enums

import "fmt"

// OutboxEventType identifies the domain events the outbox can carry.
type OutboxEventType string

const (
	EventBookingInvoiceRequested OutboxEventType = "booking.invoice_requested"
	EventBookingCancelled        OutboxEventType = "booking.cancelled"
	EventBookingConfirmed        OutboxEventType = "booking.confirmed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventBookingInvoiceRequested,
	EventBookingCancelled,
	EventBookingConfirmed,
}

// IsValid reports whether the value is a known OutboxEventType.
func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateBooking OutboxAggregateType = "booking"
)

// IsValid reports whether the value is a known OutboxAggregateType.
func (o OutboxAggregateType) IsValid() bool {
	return o == AggregateBooking
}

// OutboxDLQErrorReason classifies why an event was dead-lettered.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
)
