package cron

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/liamreece/leasepoint-backend/internal/assets"
	"github.com/liamreece/leasepoint-backend/internal/bookings"
	"github.com/liamreece/leasepoint-backend/internal/customers"
	"github.com/liamreece/leasepoint-backend/internal/notify"
	"github.com/liamreece/leasepoint-backend/pkg/config"
	"github.com/liamreece/leasepoint-backend/pkg/db/models"
	"github.com/liamreece/leasepoint-backend/pkg/enums"
	"github.com/liamreece/leasepoint-backend/pkg/logger"
	"github.com/liamreece/leasepoint-backend/pkg/pagination"
)

type reminderBookingRepo struct {
	candidates   []models.Booking
	scanErr      error
	reminderSent map[uuid.UUID]time.Time
}

func newReminderBookingRepo() *reminderBookingRepo {
	return &reminderBookingRepo{reminderSent: map[uuid.UUID]time.Time{}}
}

func (f *reminderBookingRepo) WithTx(tx *gorm.DB) bookings.Repository { return f }
func (f *reminderBookingRepo) Find(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return nil, nil
}
func (f *reminderBookingRepo) List(ctx context.Context, query bookings.ListQuery) ([]models.Booking, *pagination.Cursor, error) {
	return nil, nil, nil
}
func (f *reminderBookingRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.BookingStatus, extra map[string]any) (bool, error) {
	return false, nil
}
func (f *reminderBookingRepo) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, paymentIntentID string) (bool, error) {
	return false, nil
}
func (f *reminderBookingRepo) SetRefundStatus(ctx context.Context, id uuid.UUID, status enums.RefundStatus, pendingAt *time.Time) error {
	return nil
}
func (f *reminderBookingRepo) FindReminderCandidates(ctx context.Context, limit int) ([]models.Booking, error) {
	return f.candidates, f.scanErr
}
func (f *reminderBookingRepo) SetLastReminderSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	f.reminderSent[id] = sentAt
	return nil
}

type reminderAssetsRepo struct {
	assets       map[uuid.UUID]*models.Asset
	centres      map[uuid.UUID]*models.Centre
	findAssetErr error
}

func (f *reminderAssetsRepo) WithTx(tx *gorm.DB) assets.Repository { return f }
func (f *reminderAssetsRepo) FindAsset(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	if f.findAssetErr != nil {
		return nil, f.findAssetErr
	}
	return f.assets[id], nil
}
func (f *reminderAssetsRepo) FindCentre(ctx context.Context, id uuid.UUID) (*models.Centre, error) {
	return f.centres[id], nil
}
func (f *reminderAssetsRepo) FindOwner(ctx context.Context, id uuid.UUID) (*models.Owner, error) {
	return nil, nil
}
func (f *reminderAssetsRepo) OwnerOfAsset(ctx context.Context, assetID uuid.UUID) (*models.Owner, error) {
	return nil, nil
}

type reminderCustomersRepo struct {
	customers map[uuid.UUID]*models.Customer
}

func (f *reminderCustomersRepo) WithTx(tx *gorm.DB) customers.Repository { return f }
func (f *reminderCustomersRepo) Find(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return f.customers[id], nil
}
func (f *reminderCustomersRepo) FindProfile(ctx context.Context, customerID uuid.UUID) (*models.CustomerProfile, error) {
	return nil, nil
}

type reminderNotify struct {
	reminders []notify.ReminderEmail
	failFor   map[string]error
}

func (f *reminderNotify) SendCancellation(ctx context.Context, data notify.CancellationEmail) {}
func (f *reminderNotify) SendReminder(ctx context.Context, data notify.ReminderEmail) error {
	if err := f.failFor[data.BookingNumber]; err != nil {
		return err
	}
	f.reminders = append(f.reminders, data)
	return nil
}
func (f *reminderNotify) SendInvoice(ctx context.Context, data notify.InvoiceEmail) error {
	return nil
}

type reminderHarness struct {
	repo      *reminderBookingRepo
	assets    *reminderAssetsRepo
	customers *reminderCustomersRepo
	notify    *reminderNotify
	job       *paymentReminderJob
	now       time.Time
}

func newReminderHarness(t *testing.T) *reminderHarness {
	t.Helper()
	h := &reminderHarness{
		repo: newReminderBookingRepo(),
		assets: &reminderAssetsRepo{
			assets:  map[uuid.UUID]*models.Asset{},
			centres: map[uuid.UUID]*models.Centre{},
		},
		customers: &reminderCustomersRepo{customers: map[uuid.UUID]*models.Customer{}},
		notify:    &reminderNotify{failFor: map[string]error{}},
		now:       time.Date(2026, 5, 20, 6, 0, 0, 0, time.UTC),
	}
	job, err := NewPaymentReminderJob(PaymentReminderJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Bookings:  h.repo,
		Assets:    h.assets,
		Customers: h.customers,
		Notify:    h.notify,
		Config:    config.RemindersConfig{},
		Now:       func() time.Time { return h.now },
	})
	if err != nil {
		t.Fatalf("NewPaymentReminderJob: %v", err)
	}
	h.job = job.(*paymentReminderJob)
	return h
}

// addCandidate seeds a confirmed unpaid invoice booking approved so the due
// date (approval + 14 days) lands daysUntilDue days after h.now.
func (h *reminderHarness) addCandidate(number string, daysUntilDue int) *models.Booking {
	approvedAt := h.now.AddDate(0, 0, daysUntilDue-14)
	booking := models.Booking{
		ID:            uuid.New(),
		BookingNumber: number,
		AssetID:       uuid.New(),
		AssetKind:     enums.AssetKindSite,
		CustomerID:    uuid.New(),
		Status:        enums.BookingStatusConfirmed,
		PaymentMethod: enums.PaymentMethodInvoice,
		TotalAmount:   decimal.RequireFromString("660.00"),
		ApprovedAt:    &approvedAt,
	}
	h.repo.candidates = append(h.repo.candidates, booking)
	h.customers.customers[booking.CustomerID] = &models.Customer{
		ID:        booking.CustomerID,
		FirstName: "Dana",
		LastName:  "Wu",
		Email:     "dana@example.com",
	}
	centre := &models.Centre{ID: uuid.New(), Name: "Westfield Garden City"}
	h.assets.centres[centre.ID] = centre
	h.assets.assets[booking.AssetID] = &models.Asset{ID: booking.AssetID, CentreID: centre.ID, Label: "Site 12A"}
	return &h.repo.candidates[len(h.repo.candidates)-1]
}

func TestReminderTiering(t *testing.T) {
	cases := []struct {
		name         string
		daysUntilDue int
		tier         enums.ReminderTier
	}{
		{"week before due", 7, enums.ReminderTierUpcoming},
		{"day before due", 1, enums.ReminderTierDue},
		{"on due date", 0, enums.ReminderTierDue},
		{"day after due", -1, enums.ReminderTierDue},
		{"week after due", -7, enums.ReminderTierOverdue},
		{"mid grace period", 4, enums.ReminderTierNone},
		{"long overdue", -20, enums.ReminderTierNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newReminderHarness(t)
			h.addCandidate("BK-20260501-0001", tc.daysUntilDue)

			result, err := h.job.Scan(context.Background())
			if err != nil {
				t.Fatalf("Scan: %v", err)
			}
			if tc.tier == enums.ReminderTierNone {
				if result.Sent != 0 || len(h.notify.reminders) != 0 {
					t.Fatalf("no reminder expected, got %+v", h.notify.reminders)
				}
				return
			}
			if result.Sent != 1 || len(h.notify.reminders) != 1 {
				t.Fatalf("sent = %d, reminders = %d", result.Sent, len(h.notify.reminders))
			}
			if h.notify.reminders[0].Tier != tc.tier {
				t.Fatalf("tier = %s, want %s", h.notify.reminders[0].Tier, tc.tier)
			}
		})
	}
}

func TestReminderSkipsUnapprovedBooking(t *testing.T) {
	h := newReminderHarness(t)
	booking := h.addCandidate("BK-20260501-0002", 0)
	booking.ApprovedAt = nil

	result, err := h.job.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Sent != 0 {
		t.Fatalf("sent = %d", result.Sent)
	}
}

func TestReminderDedupWindow(t *testing.T) {
	h := newReminderHarness(t)
	recent := h.addCandidate("BK-20260501-0003", 0)
	sentAt := h.now.Add(-6 * time.Hour)
	recent.LastReminderSentAt = &sentAt

	stale := h.addCandidate("BK-20260501-0004", 0)
	oldSend := h.now.Add(-30 * time.Hour)
	stale.LastReminderSentAt = &oldSend

	result, err := h.job.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Sent != 1 {
		t.Fatalf("sent = %d", result.Sent)
	}
	if len(h.notify.reminders) != 1 || h.notify.reminders[0].BookingNumber != "BK-20260501-0004" {
		t.Fatalf("reminders = %+v", h.notify.reminders)
	}
	if _, ok := h.repo.reminderSent[stale.ID]; !ok {
		t.Fatal("last reminder timestamp must be recorded after a send")
	}
}

func TestReminderSkipsCustomerWithoutEmail(t *testing.T) {
	h := newReminderHarness(t)
	booking := h.addCandidate("BK-20260501-0008", 0)
	h.customers.customers[booking.CustomerID].Email = ""

	result, err := h.job.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Sent != 0 || result.Failed != 0 {
		t.Fatalf("result = %+v, want zero sent and zero failed", result)
	}
	if len(h.notify.reminders) != 0 {
		t.Fatalf("reminders = %+v", h.notify.reminders)
	}
	if _, ok := h.repo.reminderSent[booking.ID]; ok {
		t.Fatal("last reminder timestamp must not be stamped without a send")
	}
}

func TestReminderMissingCustomerRowIsSkipped(t *testing.T) {
	h := newReminderHarness(t)
	booking := h.addCandidate("BK-20260501-0009", 0)
	delete(h.customers.customers, booking.CustomerID)

	result, err := h.job.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Sent != 0 || result.Failed != 0 {
		t.Fatalf("result = %+v, want zero sent and zero failed", result)
	}
	if _, ok := h.repo.reminderSent[booking.ID]; ok {
		t.Fatal("last reminder timestamp must not be stamped without a send")
	}
}

func TestReminderAssetLookupFailureStillSends(t *testing.T) {
	h := newReminderHarness(t)
	booking := h.addCandidate("BK-20260501-0010", 0)
	h.assets.findAssetErr = fmt.Errorf("connection reset")

	result, err := h.job.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Sent != 1 {
		t.Fatalf("result = %+v", result)
	}
	if len(h.notify.reminders) != 1 {
		t.Fatalf("reminders = %d", len(h.notify.reminders))
	}
	email := h.notify.reminders[0]
	if email.CentreName != "" || email.AssetLabel != "" {
		t.Fatalf("location = %q / %q, want blank when the lookup fails", email.CentreName, email.AssetLabel)
	}
	if _, ok := h.repo.reminderSent[booking.ID]; !ok {
		t.Fatal("send must still record the reminder timestamp")
	}
}

func TestReminderSendFailureDoesNotAbortBatch(t *testing.T) {
	h := newReminderHarness(t)
	h.addCandidate("BK-20260501-0005", 0)
	h.addCandidate("BK-20260501-0006", 0)
	h.notify.failFor["BK-20260501-0005"] = fmt.Errorf("smtp unavailable")

	result, err := h.job.Scan(context.Background())
	if err != nil {
		t.Fatalf("per-booking failures must not abort the scan, got %v", err)
	}
	if result.Sent != 1 || result.Failed != 1 {
		t.Fatalf("result = %+v", result)
	}
	if len(h.notify.reminders) != 1 || h.notify.reminders[0].BookingNumber != "BK-20260501-0006" {
		t.Fatalf("reminders = %+v", h.notify.reminders)
	}
}

func TestReminderScanFailureAborts(t *testing.T) {
	h := newReminderHarness(t)
	h.repo.scanErr = fmt.Errorf("db offline")

	if _, err := h.job.Scan(context.Background()); err == nil {
		t.Fatal("candidate scan failure must abort the run")
	}
}

func TestReminderEmailCarriesBookingContext(t *testing.T) {
	h := newReminderHarness(t)
	booking := h.addCandidate("BK-20260501-0007", 7)

	if _, err := h.job.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(h.notify.reminders) != 1 {
		t.Fatalf("reminders = %d", len(h.notify.reminders))
	}
	email := h.notify.reminders[0]
	if email.CustomerEmail != "dana@example.com" || email.CustomerName != "Dana Wu" {
		t.Fatalf("customer = %q <%s>", email.CustomerName, email.CustomerEmail)
	}
	if email.CentreName != "Westfield Garden City" || email.AssetLabel != "Site 12A" {
		t.Fatalf("location = %q / %q", email.CentreName, email.AssetLabel)
	}
	wantDue := booking.ApprovedAt.AddDate(0, 0, 14)
	if !email.DueDate.Equal(wantDue) {
		t.Fatalf("due date = %s, want %s", email.DueDate, wantDue)
	}
}
