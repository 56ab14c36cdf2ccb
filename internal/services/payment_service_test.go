package services

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"fundflow-service/internal/models"

	"github.com/google/uuid"
)

// fakeGateway satisfies PaymentGateway without network calls.
type fakeGateway struct {
	mu            sync.Mutex
	orderStatus   OrderStatus
	statusCalls   int
	createdOrders []string
	failCreate    bool
}

func (f *fakeGateway) CreateOrder(req CreateOrderRequest) (*OrderSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return nil, errors.New("gateway unavailable")
	}
	f.createdOrders = append(f.createdOrders, req.OrderId)
	return &OrderSession{GatewayOrderId: "cf_" + req.OrderId, PaymentSessionId: "session_" + req.OrderId}, nil
}

func (f *fakeGateway) GetOrderStatus(orderId string) (OrderStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	return f.orderStatus, nil
}

func (f *fakeGateway) InitiatePayout(req PayoutRequest) (string, error) {
	return req.TransferId, nil
}

func (f *fakeGateway) GetTransferStatus(transferId string) (TransferStatus, error) {
	return TransferCompleted, nil
}

func newTestPaymentService(gateway PaymentGateway) *PaymentService {
	ledger := NewLedgerService(testDB)
	settings := NewSettingsService(testDB)
	return NewPaymentService(testDB, ledger, gateway, settings)
}

func seedDonation(t *testing.T, collectionId string, amount float64) *models.Donation {
	t.Helper()
	donation := models.Donation{
		ID:           uuid.NewString(),
		CollectionId: collectionId,
		OrderId:      newOrderId(),
		DonorName:    "Donor",
		DonorEmail:   "donor@example.com",
		Amount:       amount,
		Status:       models.DonationInitiated,
	}
	if err := testDB.Create(&donation).Error; err != nil {
		t.Fatalf("Failed to seed donation: %v", err)
	}
	return &donation
}

func TestInitiateDonationRejectsBelowMinimum(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	collection := seedCollection(t, 0, 0)
	svc := newTestPaymentService(&fakeGateway{})

	_, err := svc.InitiateDonation(InitiateDonationDTO{
		CollectionId: collection.ID,
		DonorName:    "Donor",
		DonorEmail:   "donor@example.com",
		Amount:       5, // default minimum is 10
	})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("Expected ErrInvalidAmount, got %v", err)
	}
}

func TestInitiateDonationRejectsInactiveCollection(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	collection := seedCollection(t, 0, 0)
	testDB.Model(&models.Collection{}).Where("id = ?", collection.ID).
		UpdateColumn("status", models.CollectionCancelled)

	svc := newTestPaymentService(&fakeGateway{})
	_, err := svc.InitiateDonation(InitiateDonationDTO{
		CollectionId: collection.ID,
		DonorName:    "Donor",
		DonorEmail:   "donor@example.com",
		Amount:       100,
	})
	if !errors.Is(err, ErrNotAcceptingFunds) {
		t.Fatalf("Expected ErrNotAcceptingFunds, got %v", err)
	}
}

func TestInitiateDonationRejectsPastDeadline(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	collection := seedCollection(t, 0, 0)
	past := time.Now().Add(-time.Hour)
	testDB.Model(&models.Collection{}).Where("id = ?", collection.ID).
		UpdateColumn("deadline", past)

	svc := newTestPaymentService(&fakeGateway{})
	_, err := svc.InitiateDonation(InitiateDonationDTO{
		CollectionId: collection.ID,
		DonorName:    "Donor",
		DonorEmail:   "donor@example.com",
		Amount:       100,
	})
	if !errors.Is(err, ErrNotAcceptingFunds) {
		t.Fatalf("Expected ErrNotAcceptingFunds past the deadline, got %v", err)
	}
}

func TestInitiateDonationOpensGatewayOrder(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	collection := seedCollection(t, 0, 0)
	gateway := &fakeGateway{}
	svc := newTestPaymentService(gateway)

	result, err := svc.InitiateDonation(InitiateDonationDTO{
		CollectionId: collection.ID,
		DonorName:    "Donor",
		DonorEmail:   "donor@example.com",
		Amount:       250,
	})
	if err != nil {
		t.Fatalf("InitiateDonation failed: %v", err)
	}
	if result.PaymentSessionId == "" {
		t.Error("Expected a payment session id")
	}
	if len(gateway.createdOrders) != 1 {
		t.Errorf("Expected 1 gateway order, got %d", len(gateway.createdOrders))
	}

	// No money moves at initiation.
	var got models.Collection
	testDB.Where("id = ?", collection.ID).First(&got)
	if got.CurrentAmount != 0 {
		t.Errorf("Expected CurrentAmount 0 before reconciliation, got %f", got.CurrentAmount)
	}
}

func TestReconcileOrderConfirmsAndCredits(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	collection := seedCollection(t, 0, 0)
	donation := seedDonation(t, collection.ID, 400)

	gateway := &fakeGateway{orderStatus: OrderSuccess}
	svc := newTestPaymentService(gateway)

	settled, err := svc.ReconcileOrder(donation.OrderId)
	if err != nil {
		t.Fatalf("ReconcileOrder failed: %v", err)
	}
	if settled.Status != models.DonationConfirmed {
		t.Errorf("Expected confirmed, got %s", settled.Status)
	}

	var got models.Collection
	testDB.Where("id = ?", collection.ID).First(&got)
	if math.Abs(got.CurrentAmount-400) > 0.01 {
		t.Errorf("Expected CurrentAmount 400, got %f", got.CurrentAmount)
	}

	// A terminal donation is memoized: no further gateway fetches.
	calls := gateway.statusCalls
	if _, err := svc.ReconcileOrder(donation.OrderId); err != nil {
		t.Fatalf("Second ReconcileOrder failed: %v", err)
	}
	if gateway.statusCalls != calls {
		t.Error("Expected no gateway fetch for a terminal donation")
	}
}

func TestConcurrentReconcileCreditsOnce(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	collection := seedCollection(t, 0, 0)
	donation := seedDonation(t, collection.ID, 100)

	gateway := &fakeGateway{orderStatus: OrderSuccess}
	svc := newTestPaymentService(gateway)

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.ReconcileOrder(donation.OrderId)
		}()
	}
	wg.Wait()

	var got models.Collection
	testDB.Where("id = ?", collection.ID).First(&got)
	if math.Abs(got.CurrentAmount-100) > 0.01 {
		t.Errorf("Expected exactly one credit (100), got %f", got.CurrentAmount)
	}
	if got.DonorCount != 1 {
		t.Errorf("Expected DonorCount 1, got %d", got.DonorCount)
	}
}

func TestReconcileOrderFailedOutcome(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	collection := seedCollection(t, 0, 0)
	donation := seedDonation(t, collection.ID, 100)

	svc := newTestPaymentService(&fakeGateway{orderStatus: OrderFailed})

	settled, err := svc.ReconcileOrder(donation.OrderId)
	if err != nil {
		t.Fatalf("ReconcileOrder failed: %v", err)
	}
	if settled.Status != models.DonationFailed {
		t.Errorf("Expected failed, got %s", settled.Status)
	}

	var got models.Collection
	testDB.Where("id = ?", collection.ID).First(&got)
	if got.CurrentAmount != 0 {
		t.Errorf("Expected no credit on failed order, got %f", got.CurrentAmount)
	}

	// A failed donation stays failed even if a stale success signal lands.
	late, err := svc.ApplyGatewayOutcome(donation.OrderId, OrderSuccess)
	if err != nil {
		t.Fatalf("ApplyGatewayOutcome failed: %v", err)
	}
	if late.Status != models.DonationFailed {
		t.Errorf("Terminal status must be absorbing, got %s", late.Status)
	}
}

func TestReconcileOrderPendingLeavesRowAlone(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	collection := seedCollection(t, 0, 0)
	donation := seedDonation(t, collection.ID, 100)

	svc := newTestPaymentService(&fakeGateway{orderStatus: OrderPending})

	settled, err := svc.ReconcileOrder(donation.OrderId)
	if err != nil {
		t.Fatalf("ReconcileOrder failed: %v", err)
	}
	if settled.Status != models.DonationInitiated {
		t.Errorf("Expected initiated, got %s", settled.Status)
	}
}

func TestSweepFailsOrdersWithoutGatewaySession(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	collection := seedCollection(t, 0, 0)
	// A row whose gateway order was never created has no GatewayOrderId and
	// nothing to reconcile against; the sweep must fail it, not poll forever.
	donation := seedDonation(t, collection.ID, 100)
	testDB.Model(&models.Donation{}).Where("id = ?", donation.ID).
		UpdateColumn("created_at", time.Now().Add(-2*time.Hour))

	gateway := &fakeGateway{}
	svc := newTestPaymentService(gateway)
	svc.SweepStaleOrders(30 * time.Minute)

	var got models.Donation
	testDB.Where("id = ?", donation.ID).First(&got)
	if got.Status != models.DonationFailed {
		t.Errorf("Expected failed, got %s", got.Status)
	}
	if gateway.statusCalls != 0 {
		t.Errorf("Expected no gateway fetch for an orphaned order, got %d", gateway.statusCalls)
	}

	var coll models.Collection
	testDB.Where("id = ?", collection.ID).First(&coll)
	if coll.CurrentAmount != 0 {
		t.Errorf("Expected no credit, got %f", coll.CurrentAmount)
	}
}

func TestReconcileUnknownOrder(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	svc := newTestPaymentService(&fakeGateway{})
	_, err := svc.ReconcileOrder("order_doesnotexist")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("Expected ErrOrderNotFound, got %v", err)
	}
}
