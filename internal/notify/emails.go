package notify

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/liamreece/leasepoint-backend/pkg/enums"
	"github.com/liamreece/leasepoint-backend/pkg/mailer"
)

const dateLayout = "2 January 2006"

// CancellationEmail carries everything the cancellation notice renders.
type CancellationEmail struct {
	BookingNumber string
	CustomerName  string
	CustomerEmail string
	CompanyName   string
	CentreName    string
	AssetLabel    string
	StartDate     time.Time
	EndDate       time.Time
	TotalAmount   decimal.Decimal
	Reason        string
	RefundStatus  enums.RefundStatus
}

// ReminderEmail carries everything a payment reminder renders.
type ReminderEmail struct {
	Tier          enums.ReminderTier
	BookingNumber string
	CustomerName  string
	CustomerEmail string
	CentreName    string
	AssetLabel    string
	StartDate     time.Time
	EndDate       time.Time
	TotalIncGST   decimal.Decimal
	DueDate       time.Time
}

// InvoiceEmail carries everything the tax invoice notice renders.
type InvoiceEmail struct {
	BookingNumber string
	CustomerName  string
	CustomerEmail string
	TotalAmount   decimal.Decimal
	GSTAmount     decimal.Decimal
	PaidAt        time.Time
}

func composeCancellation(data CancellationEmail) mailer.Message {
	company := ""
	if data.CompanyName != "" {
		company = fmt.Sprintf("<p>Company: %s</p>", data.CompanyName)
	}
	reason := ""
	if data.Reason != "" {
		reason = fmt.Sprintf("<p>Reason: %s</p>", data.Reason)
	}
	refundLine := refundCopy(data.RefundStatus)

	html := fmt.Sprintf(`<html><body>
<h2>Booking Cancelled</h2>
<p>Dear %s,</p>
<p>Your booking <strong>%s</strong> at %s (%s) from %s to %s has been cancelled.</p>
%s%s
<p>Booking total: $%s</p>
<p>%s</p>
</body></html>`,
		data.CustomerName,
		data.BookingNumber,
		data.CentreName,
		data.AssetLabel,
		data.StartDate.Format(dateLayout),
		data.EndDate.Format(dateLayout),
		company,
		reason,
		data.TotalAmount.StringFixed(2),
		refundLine,
	)

	return mailer.Message{
		To:      data.CustomerEmail,
		ToName:  data.CustomerName,
		Subject: fmt.Sprintf("Booking %s cancelled", data.BookingNumber),
		HTML:    html,
	}
}

func refundCopy(status enums.RefundStatus) string {
	switch status {
	case enums.RefundStatusProcessed:
		return "Your payment has been refunded to your original payment method."
	case enums.RefundStatusPending:
		return "Your refund is being processed and will reach you shortly."
	case enums.RefundStatusManual:
		return "Our team will be in touch regarding your refund."
	default:
		return "No payment was taken for this booking."
	}
}

func composeReminder(data ReminderEmail) mailer.Message {
	heading, colour, urgency := reminderCopy(data.Tier, data.DueDate)

	html := fmt.Sprintf(`<html><body>
<h2 style="color:%s">%s</h2>
<p>Dear %s,</p>
<p>%s</p>
<p>Booking <strong>%s</strong> at %s (%s), %s to %s.</p>
<p>Amount due (inc. GST): <strong>$%s</strong></p>
<p>Due date: <strong>%s</strong></p>
</body></html>`,
		colour,
		heading,
		data.CustomerName,
		urgency,
		data.BookingNumber,
		data.CentreName,
		data.AssetLabel,
		data.StartDate.Format(dateLayout),
		data.EndDate.Format(dateLayout),
		data.TotalIncGST.StringFixed(2),
		data.DueDate.Format(dateLayout),
	)

	return mailer.Message{
		To:      data.CustomerEmail,
		ToName:  data.CustomerName,
		Subject: reminderSubject(data.Tier, data.BookingNumber),
		HTML:    html,
	}
}

func reminderCopy(tier enums.ReminderTier, dueDate time.Time) (heading, colour, urgency string) {
	switch tier {
	case enums.ReminderTierUpcoming:
		return "Payment Reminder",
			"#2d6cdf",
			fmt.Sprintf("This is a friendly reminder that payment for your booking is due on %s.", dueDate.Format(dateLayout))
	case enums.ReminderTierDue:
		return "Payment Due",
			"#e8a020",
			"Payment for your booking is now due. Please arrange payment at your earliest convenience."
	case enums.ReminderTierOverdue:
		return "Payment Overdue",
			"#d03436",
			"Payment for your booking is overdue. Please settle the outstanding amount immediately to avoid cancellation."
	default:
		return "Payment Reminder", "#2d6cdf", ""
	}
}

func reminderSubject(tier enums.ReminderTier, bookingNumber string) string {
	switch tier {
	case enums.ReminderTierOverdue:
		return fmt.Sprintf("OVERDUE: payment for booking %s", bookingNumber)
	case enums.ReminderTierDue:
		return fmt.Sprintf("Payment due for booking %s", bookingNumber)
	default:
		return fmt.Sprintf("Upcoming payment for booking %s", bookingNumber)
	}
}

func composeInvoice(data InvoiceEmail) mailer.Message {
	html := fmt.Sprintf(`<html><body>
<h2>Tax Invoice</h2>
<p>Dear %s,</p>
<p>Thank you for your payment for booking <strong>%s</strong>, received on %s.</p>
<p>Total paid: $%s (includes $%s GST)</p>
<p>Please retain this email for your records.</p>
</body></html>`,
		data.CustomerName,
		data.BookingNumber,
		data.PaidAt.Format(dateLayout),
		data.TotalAmount.StringFixed(2),
		data.GSTAmount.StringFixed(2),
	)

	return mailer.Message{
		To:      data.CustomerEmail,
		ToName:  data.CustomerName,
		Subject: fmt.Sprintf("Tax invoice for booking %s", data.BookingNumber),
		HTML:    html,
	}
}
