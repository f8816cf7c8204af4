package stripe

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v84"
)

// RefundResult carries the subset of the gateway refund response callers need.
type RefundResult struct {
	ID     string
	Status string
}

// CheckoutSession carries the identifiers a customer needs to complete payment.
type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutParams describe the hosted checkout session for one booking.
type CheckoutParams struct {
	BookingID     string
	BookingNumber string
	AssetKind     string
	Description   string
	AmountCents   int64
	Currency      string
	SuccessURL    string
	CancelURL     string
}

// CreateRefund refunds the full captured amount of the given payment intent.
func (c *Client) CreateRefund(ctx context.Context, paymentIntentID string) (*RefundResult, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("stripe client not initialized")
	}
	if strings.TrimSpace(paymentIntentID) == "" {
		return nil, errors.New("payment intent id is required")
	}

	refund, err := c.api.V1Refunds.Create(ctx, &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(paymentIntentID),
	})
	if err != nil {
		return nil, err
	}
	return &RefundResult{
		ID:     refund.ID,
		Status: string(refund.Status),
	}, nil
}

// CreateCheckoutSession opens a hosted checkout session carrying booking
// metadata so the webhook reconciler can resolve the booking later.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("stripe client not initialized")
	}
	if params.BookingID == "" {
		return nil, errors.New("booking id is required")
	}
	if params.AmountCents <= 0 {
		return nil, errors.New("amount must be positive")
	}
	currency := params.Currency
	if currency == "" {
		currency = "aud"
	}

	metadata := map[string]string{
		"bookingId":     params.BookingID,
		"bookingNumber": params.BookingNumber,
		"bookingType":   params.AssetKind,
	}

	session, err := c.api.V1CheckoutSessions.Create(ctx, &stripe.CheckoutSessionCreateParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		Metadata:   metadata,
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(params.AmountCents),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(params.Description),
					},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}
