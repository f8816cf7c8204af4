package notify

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/liamreece/leasepoint-backend/pkg/enums"
	"github.com/liamreece/leasepoint-backend/pkg/logger"
	"github.com/liamreece/leasepoint-backend/pkg/mailer"
)

type fakeSender struct {
	sent []mailer.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func testCancellation() CancellationEmail {
	return CancellationEmail{
		BookingNumber: "BK-20260310-0007",
		CustomerName:  "Dana Wu",
		CustomerEmail: "dana@example.com",
		CentreName:    "Westfield Garden City",
		AssetLabel:    "Site 12A",
		StartDate:     time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 4, 14, 0, 0, 0, 0, time.UTC),
		TotalAmount:   decimal.RequireFromString("1320.00"),
		RefundStatus:  enums.RefundStatusProcessed,
	}
}

func TestComposeCancellationRefundCopy(t *testing.T) {
	cases := []struct {
		status enums.RefundStatus
		want   string
	}{
		{enums.RefundStatusProcessed, "has been refunded"},
		{enums.RefundStatusPending, "being processed"},
		{enums.RefundStatusManual, "will be in touch"},
		{enums.RefundStatusNotRequired, "No payment was taken"},
	}
	for _, tc := range cases {
		data := testCancellation()
		data.RefundStatus = tc.status
		msg := composeCancellation(data)
		if !strings.Contains(msg.HTML, tc.want) {
			t.Fatalf("%s copy missing %q", tc.status, tc.want)
		}
	}
}

func TestComposeCancellationBody(t *testing.T) {
	data := testCancellation()
	data.CompanyName = "Wu Trading Co"
	data.Reason = "Duplicate booking"

	msg := composeCancellation(data)
	if msg.To != "dana@example.com" {
		t.Fatalf("to = %s", msg.To)
	}
	if msg.Subject != "Booking BK-20260310-0007 cancelled" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	for _, want := range []string{
		"Westfield Garden City",
		"Site 12A",
		"1 April 2026",
		"14 April 2026",
		"Wu Trading Co",
		"Duplicate booking",
		"$1320.00",
	} {
		if !strings.Contains(msg.HTML, want) {
			t.Fatalf("body missing %q", want)
		}
	}
}

func TestComposeReminderSubjects(t *testing.T) {
	cases := []struct {
		tier enums.ReminderTier
		want string
	}{
		{enums.ReminderTierUpcoming, "Upcoming payment for booking BK-20260310-0007"},
		{enums.ReminderTierDue, "Payment due for booking BK-20260310-0007"},
		{enums.ReminderTierOverdue, "OVERDUE: payment for booking BK-20260310-0007"},
	}
	for _, tc := range cases {
		msg := composeReminder(ReminderEmail{
			Tier:          tc.tier,
			BookingNumber: "BK-20260310-0007",
			CustomerName:  "Dana Wu",
			CustomerEmail: "dana@example.com",
			TotalIncGST:   decimal.RequireFromString("660.00"),
			DueDate:       time.Date(2026, 5, 27, 0, 0, 0, 0, time.UTC),
		})
		if msg.Subject != tc.want {
			t.Fatalf("%s subject = %q", tc.tier, msg.Subject)
		}
	}
}

func TestComposeReminderDueAmounts(t *testing.T) {
	msg := composeReminder(ReminderEmail{
		Tier:          enums.ReminderTierDue,
		BookingNumber: "BK-20260310-0007",
		CustomerName:  "Dana Wu",
		CustomerEmail: "dana@example.com",
		TotalIncGST:   decimal.RequireFromString("660.5"),
		DueDate:       time.Date(2026, 5, 27, 0, 0, 0, 0, time.UTC),
	})
	if !strings.Contains(msg.HTML, "$660.50") {
		t.Fatal("amount must render with two decimal places")
	}
	if !strings.Contains(msg.HTML, "27 May 2026") {
		t.Fatal("due date missing from body")
	}
}

func TestComposeInvoice(t *testing.T) {
	msg := composeInvoice(InvoiceEmail{
		BookingNumber: "BK-20260310-0007",
		CustomerName:  "Dana Wu",
		CustomerEmail: "dana@example.com",
		TotalAmount:   decimal.RequireFromString("1320.00"),
		GSTAmount:     decimal.RequireFromString("120.00"),
		PaidAt:        time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC),
	})
	if msg.Subject != "Tax invoice for booking BK-20260310-0007" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	for _, want := range []string{"$1320.00", "$120.00 GST", "2 April 2026"} {
		if !strings.Contains(msg.HTML, want) {
			t.Fatalf("body missing %q", want)
		}
	}
}

func TestSendCancellationSwallowsSenderFailure(t *testing.T) {
	sender := &fakeSender{err: fmt.Errorf("sendgrid 503")}
	svc, err := NewService(sender, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	// Must not panic or surface the error.
	svc.SendCancellation(context.Background(), testCancellation())
}

func TestSendReminderRequiresEmail(t *testing.T) {
	sender := &fakeSender{}
	svc, err := NewService(sender, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	data := ReminderEmail{Tier: enums.ReminderTierDue, BookingNumber: "BK-20260310-0007"}
	if err := svc.SendReminder(context.Background(), data); err == nil {
		t.Fatal("missing email must be rejected")
	}
	if len(sender.sent) != 0 {
		t.Fatal("nothing should be dispatched")
	}
}
