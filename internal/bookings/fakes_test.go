package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/liamreece/leasepoint-backend/internal/assets"
	"github.com/liamreece/leasepoint-backend/internal/audit"
	"github.com/liamreece/leasepoint-backend/internal/customers"
	"github.com/liamreece/leasepoint-backend/internal/history"
	"github.com/liamreece/leasepoint-backend/internal/ledger"
	"github.com/liamreece/leasepoint-backend/internal/notify"
	"github.com/liamreece/leasepoint-backend/internal/users"
	"github.com/liamreece/leasepoint-backend/pkg/db/models"
	"github.com/liamreece/leasepoint-backend/pkg/enums"
	"github.com/liamreece/leasepoint-backend/pkg/logger"
	"github.com/liamreece/leasepoint-backend/pkg/outbox"
	"github.com/liamreece/leasepoint-backend/pkg/pagination"
	pkgstripe "github.com/liamreece/leasepoint-backend/pkg/stripe"
)

type fakeBookingRepo struct {
	bookings           map[uuid.UUID]*models.Booking
	transitionCalls    []transitionCall
	transitionOK       bool
	transitionErr      error
	onTransition       func()
	refundStatusCalls  []refundStatusCall
	reminderCandidates []models.Booking
	lastReminderSet    map[uuid.UUID]time.Time
}

type transitionCall struct {
	id       uuid.UUID
	from, to enums.BookingStatus
	extra    map[string]any
}

type refundStatusCall struct {
	id        uuid.UUID
	status    enums.RefundStatus
	pendingAt *time.Time
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings:        map[uuid.UUID]*models.Booking{},
		transitionOK:    true,
		lastReminderSet: map[uuid.UUID]time.Time{},
	}
}

func (f *fakeBookingRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeBookingRepo) Find(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeBookingRepo) List(ctx context.Context, query ListQuery) ([]models.Booking, *pagination.Cursor, error) {
	var out []models.Booking
	for _, b := range f.bookings {
		out = append(out, *b)
	}
	return out, nil, nil
}

func (f *fakeBookingRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.BookingStatus, extra map[string]any) (bool, error) {
	f.transitionCalls = append(f.transitionCalls, transitionCall{id: id, from: from, to: to, extra: extra})
	if f.onTransition != nil {
		f.onTransition()
	}
	if f.transitionErr != nil {
		return false, f.transitionErr
	}
	if !f.transitionOK {
		return false, nil
	}
	if b, ok := f.bookings[id]; ok && b.Status == from {
		b.Status = to
	}
	return true, nil
}

func (f *fakeBookingRepo) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, paymentIntentID string) (bool, error) {
	b, ok := f.bookings[id]
	if !ok || b.PaidAt != nil {
		return false, nil
	}
	at := paidAt
	b.PaidAt = &at
	b.StripePaymentIntentID = &paymentIntentID
	return true, nil
}

func (f *fakeBookingRepo) SetRefundStatus(ctx context.Context, id uuid.UUID, status enums.RefundStatus, pendingAt *time.Time) error {
	f.refundStatusCalls = append(f.refundStatusCalls, refundStatusCall{id: id, status: status, pendingAt: pendingAt})
	if b, ok := f.bookings[id]; ok {
		st := status
		b.RefundStatus = &st
		b.RefundPendingAt = pendingAt
	}
	return nil
}

func (f *fakeBookingRepo) FindReminderCandidates(ctx context.Context, limit int) ([]models.Booking, error) {
	return f.reminderCandidates, nil
}

func (f *fakeBookingRepo) SetLastReminderSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	f.lastReminderSet[id] = sentAt
	return nil
}

type fakeAssetsRepo struct {
	assets  map[uuid.UUID]*models.Asset
	centres map[uuid.UUID]*models.Centre
	owners  map[uuid.UUID]*models.Owner
}

func newFakeAssetsRepo() *fakeAssetsRepo {
	return &fakeAssetsRepo{
		assets:  map[uuid.UUID]*models.Asset{},
		centres: map[uuid.UUID]*models.Centre{},
		owners:  map[uuid.UUID]*models.Owner{},
	}
}

func (f *fakeAssetsRepo) WithTx(tx *gorm.DB) assets.Repository { return f }

func (f *fakeAssetsRepo) FindAsset(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	return f.assets[id], nil
}

func (f *fakeAssetsRepo) FindCentre(ctx context.Context, id uuid.UUID) (*models.Centre, error) {
	return f.centres[id], nil
}

func (f *fakeAssetsRepo) FindOwner(ctx context.Context, id uuid.UUID) (*models.Owner, error) {
	return f.owners[id], nil
}

func (f *fakeAssetsRepo) OwnerOfAsset(ctx context.Context, assetID uuid.UUID) (*models.Owner, error) {
	asset := f.assets[assetID]
	if asset == nil {
		return nil, nil
	}
	centre := f.centres[asset.CentreID]
	if centre == nil {
		return nil, nil
	}
	return f.owners[centre.OwnerID], nil
}

type fakeCustomersRepo struct {
	customers map[uuid.UUID]*models.Customer
	profiles  map[uuid.UUID]*models.CustomerProfile
}

func newFakeCustomersRepo() *fakeCustomersRepo {
	return &fakeCustomersRepo{
		customers: map[uuid.UUID]*models.Customer{},
		profiles:  map[uuid.UUID]*models.CustomerProfile{},
	}
}

func (f *fakeCustomersRepo) WithTx(tx *gorm.DB) customers.Repository { return f }

func (f *fakeCustomersRepo) Find(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return f.customers[id], nil
}

func (f *fakeCustomersRepo) FindProfile(ctx context.Context, customerID uuid.UUID) (*models.CustomerProfile, error) {
	return f.profiles[customerID], nil
}

type fakeUsersRepo struct {
	users map[uuid.UUID]*models.User
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: map[uuid.UUID]*models.User{}}
}

func (f *fakeUsersRepo) WithTx(tx *gorm.DB) users.Repository { return f }

func (f *fakeUsersRepo) Find(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return f.users[id], nil
}

type fakeHistoryRepo struct {
	rows      []*models.BookingStatusHistory
	appendErr error
}

func (f *fakeHistoryRepo) WithTx(tx *gorm.DB) history.Repository { return f }

func (f *fakeHistoryRepo) Append(ctx context.Context, row *models.BookingStatusHistory) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeHistoryRepo) ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]models.BookingStatusHistory, error) {
	var out []models.BookingStatusHistory
	for _, row := range f.rows {
		if row.BookingID == bookingID {
			out = append(out, *row)
		}
	}
	return out, nil
}

type fakeLedger struct {
	reversals   []*models.Booking
	reversalErr error
	noCapture   bool
}

func (f *fakeLedger) WithTx(tx *gorm.DB) ledger.Service { return f }

func (f *fakeLedger) RecordCapture(ctx context.Context, booking *models.Booking, ownerID uuid.UUID, paymentIntentID string) (*models.Transaction, error) {
	return &models.Transaction{BookingID: booking.ID, OwnerID: ownerID}, nil
}

func (f *fakeLedger) RecordReversal(ctx context.Context, booking *models.Booking) (*models.Transaction, error) {
	if f.reversalErr != nil {
		return nil, f.reversalErr
	}
	if f.noCapture {
		return nil, nil
	}
	f.reversals = append(f.reversals, booking)
	return &models.Transaction{
		BookingID: booking.ID,
		Type:      enums.TransactionTypeCancellation,
		Amount:    booking.TotalAmount.Neg(),
	}, nil
}

func (f *fakeLedger) FindCapture(ctx context.Context, bookingID uuid.UUID) (*models.Transaction, error) {
	return nil, nil
}

func (f *fakeLedger) HasCaptureForIntent(ctx context.Context, paymentIntentID string) (bool, error) {
	return false, nil
}

type fakeAudit struct {
	records   []audit.RecordInput
	recordErr error
}

func (f *fakeAudit) Record(ctx context.Context, input audit.RecordInput) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.records = append(f.records, input)
	return nil
}

type fakeNotify struct {
	cancellations []notify.CancellationEmail
	reminders     []notify.ReminderEmail
	invoices      []notify.InvoiceEmail
	reminderErr   error
}

func (f *fakeNotify) SendCancellation(ctx context.Context, data notify.CancellationEmail) {
	f.cancellations = append(f.cancellations, data)
}

func (f *fakeNotify) SendReminder(ctx context.Context, data notify.ReminderEmail) error {
	if f.reminderErr != nil {
		return f.reminderErr
	}
	f.reminders = append(f.reminders, data)
	return nil
}

func (f *fakeNotify) SendInvoice(ctx context.Context, data notify.InvoiceEmail) error {
	f.invoices = append(f.invoices, data)
	return nil
}

type fakeGateway struct {
	refunds     []string
	refundErr   error
	checkouts   []pkgstripe.CheckoutParams
	checkoutErr error
}

func (f *fakeGateway) CreateRefund(ctx context.Context, paymentIntentID string) (*pkgstripe.RefundResult, error) {
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	f.refunds = append(f.refunds, paymentIntentID)
	return &pkgstripe.RefundResult{ID: "re_1", Status: "succeeded"}, nil
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, params pkgstripe.CheckoutParams) (*pkgstripe.CheckoutSession, error) {
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	f.checkouts = append(f.checkouts, params)
	return &pkgstripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/pay/cs_1"}, nil
}

type fakeOutbox struct {
	events []outbox.DomainEvent
	err    error
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// harness bundles the fakes behind a wired service for workflow tests.
type harness struct {
	svc       Service
	repo      *fakeBookingRepo
	assets    *fakeAssetsRepo
	customers *fakeCustomersRepo
	users     *fakeUsersRepo
	history   *fakeHistoryRepo
	ledger    *fakeLedger
	audit     *fakeAudit
	notify    *fakeNotify
	gateway   *fakeGateway
	outbox    *fakeOutbox
	now       time.Time
}

func newHarness() *harness {
	h := &harness{
		repo:      newFakeBookingRepo(),
		assets:    newFakeAssetsRepo(),
		customers: newFakeCustomersRepo(),
		users:     newFakeUsersRepo(),
		history:   &fakeHistoryRepo{},
		ledger:    &fakeLedger{},
		audit:     &fakeAudit{},
		notify:    &fakeNotify{},
		gateway:   &fakeGateway{},
		outbox:    &fakeOutbox{},
		now:       time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
	}
	svc, err := NewService(ServiceParams{
		Repo:      h.repo,
		Assets:    h.assets,
		Customers: h.customers,
		Users:     h.users,
		History:   h.history,
		Ledger:    h.ledger,
		Audit:     h.audit,
		Notify:    h.notify,
		Gateway:   h.gateway,
		Outbox:    h.outbox,
		Tx:        fakeTxRunner{},
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Now:       func() time.Time { return h.now },
	})
	if err != nil {
		panic(err)
	}
	h.svc = svc
	return h
}

// seedBooking creates a full graph: owner, centre, asset, customer, admin and
// one booking wired across them.
func (h *harness) seedBooking(status enums.BookingStatus, method enums.PaymentMethod, paid bool) *models.Booking {
	ownerID := uuid.New()
	centreID := uuid.New()
	assetID := uuid.New()
	customerID := uuid.New()

	h.assets.owners[ownerID] = &models.Owner{ID: ownerID, Name: "Harbour Leasing Pty Ltd"}
	h.assets.centres[centreID] = &models.Centre{ID: centreID, OwnerID: ownerID, Name: "Westfield Garden City"}
	h.assets.assets[assetID] = &models.Asset{ID: assetID, CentreID: centreID, Kind: enums.AssetKindSite, Label: "Site 12A"}
	h.customers.customers[customerID] = &models.Customer{
		ID:        customerID,
		FirstName: "Dana",
		LastName:  "Wu",
		Email:     "dana@example.com",
	}

	booking := &models.Booking{
		ID:            uuid.New(),
		BookingNumber: "BK-20260310-0007",
		AssetID:       assetID,
		AssetKind:     enums.AssetKindSite,
		CustomerID:    customerID,
		StartDate:     time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 4, 14, 0, 0, 0, 0, time.UTC),
		Status:        status,
		TotalAmount:   decimal.RequireFromString("1320.00"),
		GSTAmount:     decimal.RequireFromString("120.00"),
		GSTPercentage: decimal.RequireFromString("10.00"),
		OwnerAmount:   decimal.RequireFromString("1188.00"),
		PlatformFee:   decimal.RequireFromString("132.00"),
		PaymentMethod: method,
	}
	if paid {
		paidAt := h.now.Add(-72 * time.Hour)
		booking.PaidAt = &paidAt
		intent := "pi_seed_001"
		booking.StripePaymentIntentID = &intent
	}
	h.repo.bookings[booking.ID] = booking
	return booking
}

func (h *harness) seedAdmin() *models.User {
	admin := &models.User{
		ID:        uuid.New(),
		FirstName: "Priya",
		LastName:  "Patel",
		Role:      string(enums.UserRoleAdmin),
	}
	h.users.users[admin.ID] = admin
	return admin
}
