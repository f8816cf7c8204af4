package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/liamreece/leasepoint-backend/internal/notify"
	"github.com/liamreece/leasepoint-backend/pkg/enums"
	"github.com/liamreece/leasepoint-backend/pkg/logger"
	"github.com/liamreece/leasepoint-backend/pkg/outbox"
	"github.com/liamreece/leasepoint-backend/pkg/outbox/payloads"
)

const envelopeVersion = 1

func newDecoderRegistry() *outbox.DecoderRegistry {
	registry := outbox.NewDecoderRegistry()
	registry.Register(enums.EventBookingInvoiceRequested, envelopeVersion, func(payload json.RawMessage) (interface{}, error) {
		var event payloads.InvoiceRequestedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return event, nil
	})
	registry.Register(enums.EventBookingConfirmed, envelopeVersion, func(payload json.RawMessage) (interface{}, error) {
		var event payloads.BookingConfirmedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return event, nil
	})
	registry.Register(enums.EventBookingCancelled, envelopeVersion, func(payload json.RawMessage) (interface{}, error) {
		var event payloads.BookingCancelledEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return event, nil
	})
	return registry
}

func newHandlers(notifySvc notify.Service, logg *logger.Logger) map[enums.OutboxEventType]handlerFunc {
	return map[enums.OutboxEventType]handlerFunc{
		enums.EventBookingInvoiceRequested: invoiceRequestedHandler(notifySvc),
		enums.EventBookingConfirmed:        acknowledgeHandler(logg, "booking confirmed event acknowledged"),
		enums.EventBookingCancelled:        acknowledgeHandler(logg, "booking cancelled event acknowledged"),
	}
}

func invoiceRequestedHandler(notifySvc notify.Service) handlerFunc {
	return func(ctx context.Context, envelope outbox.PayloadEnvelope, data any) error {
		event, ok := data.(payloads.InvoiceRequestedEvent)
		if !ok {
			return newNonRetryableError(fmt.Errorf("unexpected payload type %T", data))
		}
		if event.CustomerEmail == "" {
			return newNonRetryableError(fmt.Errorf("booking %s has no customer email", event.BookingNumber))
		}
		return notifySvc.SendInvoice(ctx, notify.InvoiceEmail{
			BookingNumber: event.BookingNumber,
			CustomerName:  event.CustomerName,
			CustomerEmail: event.CustomerEmail,
			TotalAmount:   event.TotalAmount,
			GSTAmount:     event.GSTAmount,
			PaidAt:        event.PaidAt,
		})
	}
}

// acknowledgeHandler drains lifecycle events that have no side effects yet.
// They stay in the outbox feed for downstream consumers and the retention job.
func acknowledgeHandler(logg *logger.Logger, msg string) handlerFunc {
	return func(ctx context.Context, envelope outbox.PayloadEnvelope, _ any) error {
		if logg != nil {
			logg.Info(logg.WithField(ctx, "event_id", envelope.EventID), msg)
		}
		return nil
	}
}
