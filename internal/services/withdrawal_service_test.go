package services

import (
	"errors"
	"math"
	"sync"
	"testing"

	"fundflow-service/internal/models"

	"github.com/google/uuid"
)

func seedApprovedKYC(t *testing.T, userId string) {
	t.Helper()
	record := models.KYCRecord{
		ID:                uuid.NewString(),
		UserId:            userId,
		PanNumber:         "ABCDE1234F",
		AadhaarNumber:     "123456789012",
		BankAccountNumber: "12345678901",
		BankIfsc:          "HDFC0001234",
		BankAccountHolder: "Test Organizer",
		Status:            models.KycApproved,
	}
	if err := testDB.Create(&record).Error; err != nil {
		t.Fatalf("Failed to seed KYC record: %v", err)
	}
}

func newTestWithdrawalService(gateway PaymentGateway) *WithdrawalService {
	ledger := NewLedgerService(testDB)
	settings := NewSettingsService(testDB)
	// No queue client in unit tests. Approvals roll back without one, so the
	// payout path is exercised through ExecutePayout and SettleOne directly.
	return NewWithdrawalService(testDB, ledger, settings, gateway, nil)
}

func TestRequestWithdrawalRejectsNonOrganizer(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	collection := seedCollection(t, 1000, 0)
	seedApprovedKYC(t, "someone-else")
	svc := newTestWithdrawalService(&fakeGateway{})

	_, err := svc.RequestWithdrawal(RequestWithdrawalDTO{
		CollectionId: collection.ID,
		RequesterId:  "someone-else",
		Amount:       100,
	})
	if !errors.Is(err, ErrNotOrganizer) {
		t.Fatalf("Expected ErrNotOrganizer, got %v", err)
	}
}

func TestApproveRollsBackWhenQueueUnavailable(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	collection := seedCollection(t, 1000, 0)
	seedApprovedKYC(t, collection.OrganizerId)
	svc := newTestWithdrawalService(&fakeGateway{})

	withdrawal, err := svc.RequestWithdrawal(RequestWithdrawalDTO{
		CollectionId: collection.ID,
		RequesterId:  collection.OrganizerId,
		Amount:       500,
	})
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}

	// With no queue client the enqueue fails; the approval must not stick,
	// or the row would sit in approved with nothing driving it to payout.
	if _, err := svc.DecideWithdrawal(DecideWithdrawalDTO{
		WithdrawalId: withdrawal.ID,
		Approve:      true,
		AdminId:      "admin-1",
	}); err == nil {
		t.Fatal("Expected approval to fail when the queue is unavailable")
	}

	var got models.Withdrawal
	testDB.Where("id = ?", withdrawal.ID).First(&got)
	if got.Status != models.WithdrawalPending {
		t.Errorf("Expected rollback to pending, got %s", got.Status)
	}
	if got.DecidedBy != "" || got.DecidedAt != nil {
		t.Error("Expected decision fields cleared on rollback")
	}
}

func TestRequestWithdrawalRequiresApprovedKYC(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	collection := seedCollection(t, 1000, 0)
	svc := newTestWithdrawalService(&fakeGateway{})

	_, err := svc.RequestWithdrawal(RequestWithdrawalDTO{
		CollectionId: collection.ID,
		RequesterId:  collection.OrganizerId,
		Amount:       100,
	})
	if !errors.Is(err, ErrKycNotApproved) {
		t.Fatalf("Expected ErrKycNotApproved, got %v", err)
	}
}

func TestRequestWithdrawalSnapshotsFeeAndDestination(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	collection := seedCollection(t, 1000, 0)
	seedApprovedKYC(t, collection.OrganizerId)
	svc := newTestWithdrawalService(&fakeGateway{})

	withdrawal, err := svc.RequestWithdrawal(RequestWithdrawalDTO{
		CollectionId: collection.ID,
		RequesterId:  collection.OrganizerId,
		Amount:       400,
	})
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}

	// Default fee is 2.5%.
	if math.Abs(withdrawal.PlatformFee-10) > 0.01 {
		t.Errorf("Expected PlatformFee 10, got %f", withdrawal.PlatformFee)
	}
	if math.Abs(withdrawal.NetAmount-390) > 0.01 {
		t.Errorf("Expected NetAmount 390, got %f", withdrawal.NetAmount)
	}
	if withdrawal.PayoutMode != models.PayoutModeBank {
		t.Errorf("Expected bank payout mode, got %s", withdrawal.PayoutMode)
	}
	if withdrawal.BankIfsc != "HDFC0001234" {
		t.Errorf("Expected snapshotted IFSC, got %s", withdrawal.BankIfsc)
	}

	// A later fee change must not touch the snapshot.
	newFee := 5.0
	settings := NewSettingsService(testDB)
	if _, err := settings.Update(UpdateSettingsDTO{PlatformFeePercentage: &newFee}); err != nil {
		t.Fatalf("Settings update failed: %v", err)
	}

	var got models.Withdrawal
	testDB.Where("id = ?", withdrawal.ID).First(&got)
	if math.Abs(got.PlatformFee-10) > 0.01 {
		t.Errorf("Fee snapshot changed after settings update: %f", got.PlatformFee)
	}
}

func TestRequestWithdrawalRespectsReservations(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	collection := seedCollection(t, 1000, 200)
	seedApprovedKYC(t, collection.OrganizerId)
	svc := newTestWithdrawalService(&fakeGateway{})

	// First request reserves 500 of the 800 available.
	if _, err := svc.RequestWithdrawal(RequestWithdrawalDTO{
		CollectionId: collection.ID,
		RequesterId:  collection.OrganizerId,
		Amount:       500,
	}); err != nil {
		t.Fatalf("First request failed: %v", err)
	}

	// Second request for 400 exceeds the remaining 300.
	_, err := svc.RequestWithdrawal(RequestWithdrawalDTO{
		CollectionId: collection.ID,
		RequesterId:  collection.OrganizerId,
		Amount:       400,
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}

	// 300 still fits.
	if _, err := svc.RequestWithdrawal(RequestWithdrawalDTO{
		CollectionId: collection.ID,
		RequesterId:  collection.OrganizerId,
		Amount:       300,
	}); err != nil {
		t.Fatalf("Third request failed: %v", err)
	}
}

func TestConcurrentRequestsCannotOverdraw(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	collection := seedCollection(t, 1000, 0)
	seedApprovedKYC(t, collection.OrganizerId)
	svc := newTestWithdrawalService(&fakeGateway{})

	// Ten racing requests of 400 against 1000: at most two can be accepted.
	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.RequestWithdrawal(RequestWithdrawalDTO{
				CollectionId: collection.ID,
				RequesterId:  collection.OrganizerId,
				Amount:       400,
			})
		}()
	}
	wg.Wait()

	var reserved float64
	testDB.Model(&models.Withdrawal{}).
		Where("collection_id = ? AND status IN ?", collection.ID, models.ReservingStatuses).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&reserved)
	if reserved > 1000 {
		t.Errorf("Reservations exceed available funds: %f", reserved)
	}
}

func TestRejectionReleasesReservation(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	collection := seedCollection(t, 1000, 0)
	seedApprovedKYC(t, collection.OrganizerId)
	svc := newTestWithdrawalService(&fakeGateway{})

	withdrawal, err := svc.RequestWithdrawal(RequestWithdrawalDTO{
		CollectionId: collection.ID,
		RequesterId:  collection.OrganizerId,
		Amount:       900,
	})
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}

	// Rejection without a reason is refused.
	if _, err := svc.DecideWithdrawal(DecideWithdrawalDTO{
		WithdrawalId: withdrawal.ID,
		Approve:      false,
		AdminId:      "admin-1",
	}); err == nil {
		t.Fatal("Expected rejection without reason to fail")
	}

	decided, err := svc.DecideWithdrawal(DecideWithdrawalDTO{
		WithdrawalId: withdrawal.ID,
		Approve:      false,
		Reason:       "documents mismatch",
		AdminId:      "admin-1",
	})
	if err != nil {
		t.Fatalf("DecideWithdrawal failed: %v", err)
	}
	if decided.Status != models.WithdrawalRejected {
		t.Errorf("Expected rejected, got %s", decided.Status)
	}

	// Funds are free again immediately.
	ledger := NewLedgerService(testDB)
	available, err := ledger.GetAvailable(collection.ID)
	if err != nil {
		t.Fatalf("GetAvailable failed: %v", err)
	}
	if math.Abs(available-1000) > 0.01 {
		t.Errorf("Expected available 1000 after rejection, got %f", available)
	}
}

func TestSettleCompletedDebitsOnce(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	collection := seedCollection(t, 1000, 0)
	seedApprovedKYC(t, collection.OrganizerId)
	svc := newTestWithdrawalService(&fakeGateway{})

	withdrawal, err := svc.RequestWithdrawal(RequestWithdrawalDTO{
		CollectionId: collection.ID,
		RequesterId:  collection.OrganizerId,
		Amount:       600,
	})
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}

	// Walk the lifecycle to processing, then settle twice.
	testDB.Model(&models.Withdrawal{}).Where("id = ?", withdrawal.ID).
		Updates(map[string]interface{}{
			"status":      models.WithdrawalProcessing,
			"transfer_id": withdrawal.ID,
		})

	if err := svc.SettleOne(withdrawal.ID, TransferCompleted); err != nil {
		t.Fatalf("First settle failed: %v", err)
	}
	if err := svc.SettleOne(withdrawal.ID, TransferCompleted); err != nil {
		t.Fatalf("Second settle failed: %v", err)
	}

	var got models.Collection
	testDB.Where("id = ?", collection.ID).First(&got)
	if math.Abs(got.WithdrawnAmount-600) > 0.01 {
		t.Errorf("Expected WithdrawnAmount 600 after double settle, got %f", got.WithdrawnAmount)
	}

	var settled models.Withdrawal
	testDB.Where("id = ?", withdrawal.ID).First(&settled)
	if settled.Status != models.WithdrawalCompleted {
		t.Errorf("Expected completed, got %s", settled.Status)
	}
}

func TestSettleFailedReleasesReservation(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	collection := seedCollection(t, 1000, 0)
	seedApprovedKYC(t, collection.OrganizerId)
	svc := newTestWithdrawalService(&fakeGateway{})

	withdrawal, err := svc.RequestWithdrawal(RequestWithdrawalDTO{
		CollectionId: collection.ID,
		RequesterId:  collection.OrganizerId,
		Amount:       600,
	})
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}

	testDB.Model(&models.Withdrawal{}).Where("id = ?", withdrawal.ID).
		Updates(map[string]interface{}{
			"status":      models.WithdrawalProcessing,
			"transfer_id": withdrawal.ID,
		})

	if err := svc.SettleOne(withdrawal.ID, TransferFailed); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	var got models.Collection
	testDB.Where("id = ?", collection.ID).First(&got)
	if got.WithdrawnAmount != 0 {
		t.Errorf("Failed payout must not debit, got %f", got.WithdrawnAmount)
	}

	ledger := NewLedgerService(testDB)
	available, _ := ledger.GetAvailable(collection.ID)
	if math.Abs(available-1000) > 0.01 {
		t.Errorf("Expected available 1000 after failed payout, got %f", available)
	}
}

func TestExecutePayoutSkipsRedelivery(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	collection := seedCollection(t, 1000, 0)
	seedApprovedKYC(t, collection.OrganizerId)
	gateway := &fakeGateway{}
	svc := newTestWithdrawalService(gateway)

	withdrawal, err := svc.RequestWithdrawal(RequestWithdrawalDTO{
		CollectionId: collection.ID,
		RequesterId:  collection.OrganizerId,
		Amount:       500,
	})
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}
	testDB.Model(&models.Withdrawal{}).Where("id = ?", withdrawal.ID).
		UpdateColumn("status", models.WithdrawalApproved)

	if err := svc.ExecutePayout(withdrawal.ID); err != nil {
		t.Fatalf("ExecutePayout failed: %v", err)
	}
	// A redelivered task finds the row already processing and does nothing.
	if err := svc.ExecutePayout(withdrawal.ID); err != nil {
		t.Fatalf("Redelivered ExecutePayout failed: %v", err)
	}

	var got models.Withdrawal
	testDB.Where("id = ?", withdrawal.ID).First(&got)
	if got.Status != models.WithdrawalProcessing {
		t.Errorf("Expected processing, got %s", got.Status)
	}
}
