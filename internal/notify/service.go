package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/liamreece/leasepoint-backend/pkg/logger"
	"github.com/liamreece/leasepoint-backend/pkg/mailer"
)

// Service composes and dispatches customer email. The cancellation path is
// soft-fail: delivery problems are logged, never returned.
type Service interface {
	SendCancellation(ctx context.Context, data CancellationEmail)
	SendReminder(ctx context.Context, data ReminderEmail) error
	SendInvoice(ctx context.Context, data InvoiceEmail) error
}

type service struct {
	sender mailer.Sender
	logg   *logger.Logger
}

// NewService wires a notification service with the provided sender.
func NewService(sender mailer.Sender, logg *logger.Logger) (Service, error) {
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{sender: sender, logg: logg}, nil
}

// SendCancellation never surfaces an error; a cancellation must stand even
// when the customer cannot be told about it.
func (s *service) SendCancellation(ctx context.Context, data CancellationEmail) {
	if strings.TrimSpace(data.CustomerEmail) == "" {
		s.logg.Warn(s.logg.WithField(ctx, "booking_number", data.BookingNumber), "cancellation email skipped: customer has no email")
		return
	}
	if err := s.sender.Send(ctx, composeCancellation(data)); err != nil {
		logCtx := s.logg.WithField(ctx, "booking_number", data.BookingNumber)
		s.logg.Error(logCtx, "cancellation email failed", err)
	}
}

func (s *service) SendReminder(ctx context.Context, data ReminderEmail) error {
	if strings.TrimSpace(data.CustomerEmail) == "" {
		return fmt.Errorf("customer has no email")
	}
	return s.sender.Send(ctx, composeReminder(data))
}

func (s *service) SendInvoice(ctx context.Context, data InvoiceEmail) error {
	if strings.TrimSpace(data.CustomerEmail) == "" {
		return fmt.Errorf("customer has no email")
	}
	return s.sender.Send(ctx, composeInvoice(data))
}
