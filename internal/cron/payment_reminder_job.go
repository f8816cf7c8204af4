package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/liamreece/leasepoint-backend/internal/assets"
	"github.com/liamreece/leasepoint-backend/internal/bookings"
	"github.com/liamreece/leasepoint-backend/internal/customers"
	"github.com/liamreece/leasepoint-backend/internal/notify"
	"github.com/liamreece/leasepoint-backend/pkg/config"
	"github.com/liamreece/leasepoint-backend/pkg/db/models"
	"github.com/liamreece/leasepoint-backend/pkg/enums"
	"github.com/liamreece/leasepoint-backend/pkg/logger"
	"github.com/liamreece/leasepoint-backend/pkg/metrics"
)

// ReminderResult aggregates one scan's outcome for observability.
type ReminderResult struct {
	Sent   int
	Failed int
}

// PaymentReminderJobParams configure the reminder job.
type PaymentReminderJobParams struct {
	Logger    *logger.Logger
	Bookings  bookings.Repository
	Assets    assets.Repository
	Customers customers.Repository
	Notify    notify.Service
	Metrics   *metrics.ReminderMetrics
	Config    config.RemindersConfig
	Now       func() time.Time
}

type paymentReminderJob struct {
	logg      *logger.Logger
	bookings  bookings.Repository
	assets    assets.Repository
	customers customers.Repository
	notify    notify.Service
	metrics   *metrics.ReminderMetrics
	cfg       config.RemindersConfig
	now       func() time.Time
}

// NewPaymentReminderJob builds the daily unpaid-invoice reminder job.
func NewPaymentReminderJob(params PaymentReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if params.Assets == nil {
		return nil, fmt.Errorf("asset repository required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if params.Notify == nil {
		return nil, fmt.Errorf("notify service required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &paymentReminderJob{
		logg:      params.Logger,
		bookings:  params.Bookings,
		assets:    params.Assets,
		customers: params.Customers,
		notify:    params.Notify,
		metrics:   params.Metrics,
		cfg:       params.Config,
		now:       now,
	}, nil
}

func (j *paymentReminderJob) Name() string { return "payment-reminders" }

// Run scans confirmed unpaid invoice bookings and dispatches due reminders.
// Per-booking send failures are counted and never abort the batch; only a
// failed candidate scan aborts the run.
func (j *paymentReminderJob) Run(ctx context.Context) error {
	result, err := j.Scan(ctx)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"sent":   result.Sent,
		"failed": result.Failed,
	})
	if err != nil {
		j.logg.Error(logCtx, "reminder scan aborted", err)
		return err
	}
	j.logg.Info(logCtx, "reminder scan complete")
	return nil
}

// Scan runs one reminder pass and returns the accumulated counts even when
// the pass aborts early.
func (j *paymentReminderJob) Scan(ctx context.Context) (ReminderResult, error) {
	var result ReminderResult

	candidates, err := j.bookings.FindReminderCandidates(ctx, j.cfg.ScanBatchSize)
	if err != nil {
		return result, fmt.Errorf("scan reminder candidates: %w", err)
	}

	now := j.now()
	var sendErrs error
	for i := range candidates {
		booking := &candidates[i]
		tier := j.classify(booking, now)
		if tier == enums.ReminderTierNone {
			continue
		}
		if j.recentlyReminded(booking, now) {
			continue
		}

		sent, err := j.sendReminder(ctx, booking, tier, now)
		if err != nil {
			result.Failed++
			if j.metrics != nil {
				j.metrics.IncFailed(string(tier))
			}
			sendErrs = multierr.Append(sendErrs, fmt.Errorf("booking %s: %w", booking.BookingNumber, err))
			continue
		}
		if !sent {
			continue
		}

		if err := j.bookings.SetLastReminderSent(ctx, booking.ID, now); err != nil {
			j.logg.Error(j.logg.WithBookingID(ctx, booking.ID.String()), "failed to record reminder send time", err)
		}
		result.Sent++
		if j.metrics != nil {
			j.metrics.IncSent(string(tier))
		}
	}

	if sendErrs != nil {
		j.logg.Error(ctx, "some reminder sends failed", sendErrs)
	}
	return result, nil
}

// classify assigns exactly one reminder tier from the booking's due date.
// Due date is the approval timestamp plus the grace period; offsets are whole
// days relative to it.
func (j *paymentReminderJob) classify(booking *models.Booking, now time.Time) enums.ReminderTier {
	if booking.ApprovedAt == nil {
		return enums.ReminderTierNone
	}

	graceDays := j.cfg.GraceDays
	if graceDays <= 0 {
		graceDays = 14
	}
	upcoming := j.cfg.UpcomingOffset
	if upcoming <= 0 {
		upcoming = 7
	}
	overdue := j.cfg.OverdueOffset
	if overdue <= 0 {
		overdue = 7
	}

	dueDate := booking.ApprovedAt.AddDate(0, 0, graceDays)
	daysUntilDue := int(floorDiv(dueDate.Sub(now), 24*time.Hour))

	switch {
	case daysUntilDue == upcoming:
		return enums.ReminderTierUpcoming
	case daysUntilDue >= -1 && daysUntilDue <= 1:
		return enums.ReminderTierDue
	case daysUntilDue == -overdue:
		return enums.ReminderTierOverdue
	default:
		return enums.ReminderTierNone
	}
}

// recentlyReminded applies the dedup window regardless of tier.
func (j *paymentReminderJob) recentlyReminded(booking *models.Booking, now time.Time) bool {
	if booking.LastReminderSentAt == nil {
		return false
	}
	window := j.cfg.DedupWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	return now.Sub(*booking.LastReminderSentAt) < window
}

// sendReminder dispatches one reminder email. It returns false with a nil
// error when the booking has no deliverable address: such bookings are
// skipped, never counted as sent, and keep their last-reminder timestamp
// untouched.
func (j *paymentReminderJob) sendReminder(ctx context.Context, booking *models.Booking, tier enums.ReminderTier, now time.Time) (bool, error) {
	customer, err := j.customers.Find(ctx, booking.CustomerID)
	if err != nil {
		return false, fmt.Errorf("load customer: %w", err)
	}
	if customer == nil || customer.Email == "" {
		j.logg.Warn(j.logg.WithBookingID(ctx, booking.ID.String()), "reminder skipped: customer has no email")
		return false, nil
	}

	centreName := ""
	assetLabel := ""
	asset, err := j.assets.FindAsset(ctx, booking.AssetID)
	if err != nil {
		j.logg.Error(j.logg.WithBookingID(ctx, booking.ID.String()), "asset lookup failed, sending reminder without location", err)
	}
	if asset != nil {
		assetLabel = asset.Label
		centre, cErr := j.assets.FindCentre(ctx, asset.CentreID)
		if cErr != nil {
			j.logg.Error(j.logg.WithBookingID(ctx, booking.ID.String()), "centre lookup failed, sending reminder without location", cErr)
		}
		if centre != nil {
			centreName = centre.Name
		}
	}

	graceDays := j.cfg.GraceDays
	if graceDays <= 0 {
		graceDays = 14
	}
	dueDate := booking.ApprovedAt.AddDate(0, 0, graceDays)

	if err := j.notify.SendReminder(ctx, notify.ReminderEmail{
		Tier:          tier,
		BookingNumber: booking.BookingNumber,
		CustomerName:  customer.FullName(),
		CustomerEmail: customer.Email,
		CentreName:    centreName,
		AssetLabel:    assetLabel,
		StartDate:     booking.StartDate,
		EndDate:       booking.EndDate,
		TotalIncGST:   booking.TotalAmount,
		DueDate:       dueDate,
	}); err != nil {
		return false, err
	}
	return true, nil
}

// floorDiv divides durations rounding toward negative infinity so a booking
// one hour past due still counts as day -1, not day 0.
func floorDiv(d, unit time.Duration) int64 {
	q := d / unit
	if d%unit < 0 {
		q--
	}
	return int64(q)
}
