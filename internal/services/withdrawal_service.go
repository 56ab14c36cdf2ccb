package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"fundflow-service/internal/models"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Task type for the payout queue.
const TypePayout = "payout"

type PayoutTaskPayload struct {
	WithdrawalId string `json:"withdrawalId"`
}

// WithdrawalService runs a withdrawal through its lifecycle:
// pending -> approved -> processing -> completed/failed, or pending ->
// rejected. Funds are reserved against the collection from the moment the
// request is accepted and released the moment the withdrawal leaves a
// reserving status; the ledger debit lands only on completion.
type WithdrawalService struct {
	DB       *gorm.DB
	Ledger   *LedgerService
	Settings *SettingsService
	Gateway  PaymentGateway
	Client   *asynq.Client
}

func NewWithdrawalService(db *gorm.DB, ledger *LedgerService, settings *SettingsService, gateway PaymentGateway, client *asynq.Client) *WithdrawalService {
	return &WithdrawalService{DB: db, Ledger: ledger, Settings: settings, Gateway: gateway, Client: client}
}

type RequestWithdrawalDTO struct {
	CollectionId string  `json:"collection_id"`
	RequesterId  string  `json:"-"`
	Amount       float64 `json:"amount" binding:"required"`
}

// RequestWithdrawal accepts a new withdrawal request. The requester must be
// the collection's organizer with approved KYC, and the amount must fit
// inside the available balance with all live reservations counted. The
// acceptance check and the insert run under the collection row lock so two
// racing requests cannot both fit into the same funds.
func (s *WithdrawalService) RequestWithdrawal(data RequestWithdrawalDTO) (*models.Withdrawal, error) {
	if data.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var kyc models.KYCRecord
	if err := s.DB.Where("user_id = ?", data.RequesterId).First(&kyc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKycNotApproved
		}
		return nil, err
	}
	if kyc.Status != models.KycApproved {
		return nil, ErrKycNotApproved
	}

	settings, err := s.Settings.Get()
	if err != nil {
		return nil, err
	}

	var withdrawal models.Withdrawal
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		collection, err := s.Ledger.LockCollection(tx, data.CollectionId)
		if err != nil {
			return err
		}
		if collection.Status == models.CollectionFrozen {
			return ErrCollectionFrozen
		}
		if collection.OrganizerId != data.RequesterId {
			return ErrNotOrganizer
		}

		reserved, err := s.Ledger.ReservedAmount(tx, data.CollectionId)
		if err != nil {
			return err
		}
		available := collection.CurrentAmount - collection.WithdrawnAmount - reserved
		if data.Amount > available {
			return ErrInsufficientFunds
		}

		// Fee and payout destination are frozen onto the row here; later
		// settings or KYC edits never touch an in-flight withdrawal.
		fee := data.Amount * settings.PlatformFeePercentage / 100
		withdrawal = models.Withdrawal{
			ID:           uuid.NewString(),
			CollectionId: data.CollectionId,
			RequesterId:  data.RequesterId,
			Amount:       data.Amount,
			PlatformFee:  fee,
			NetAmount:    data.Amount - fee,
			Status:       models.WithdrawalPending,
		}
		if kyc.BankAccountNumber != "" {
			withdrawal.PayoutMode = models.PayoutModeBank
			withdrawal.AccountNumber = kyc.BankAccountNumber
			withdrawal.AccountHolder = kyc.BankAccountHolder
			withdrawal.BankIfsc = kyc.BankIfsc
		} else {
			withdrawal.PayoutMode = models.PayoutModeUpi
			withdrawal.UpiId = kyc.UpiId
			withdrawal.AccountHolder = kyc.BankAccountHolder
		}

		return tx.Create(&withdrawal).Error
	})
	if err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

type DecideWithdrawalDTO struct {
	WithdrawalId string
	Approve      bool
	Reason       string
	AdminId      string
}

// DecideWithdrawal applies an admin decision to a pending withdrawal.
// Rejection needs a reason and releases the reservation immediately.
// Approval keeps the reservation and hands the payout to the queue; the task
// id pins one queue entry per withdrawal even if the decision is retried.
// If the queue refuses the task the approval is rolled back to pending, so
// an approved row always has a live task driving it toward settlement.
func (s *WithdrawalService) DecideWithdrawal(data DecideWithdrawalDTO) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	if err := s.DB.Where("id = ?", data.WithdrawalId).First(&withdrawal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("withdrawal not found")
		}
		return nil, err
	}
	if withdrawal.Status != models.WithdrawalPending {
		return nil, fmt.Errorf("withdrawal has already been decided")
	}

	now := time.Now()
	if !data.Approve {
		if data.Reason == "" {
			return nil, fmt.Errorf("a rejection reason is required")
		}
		res := s.DB.Model(&models.Withdrawal{}).
			Where("id = ? AND status = ?", withdrawal.ID, models.WithdrawalPending).
			Updates(map[string]interface{}{
				"status":         models.WithdrawalRejected,
				"failure_reason": data.Reason,
				"decided_by":     data.AdminId,
				"decided_at":     now,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, fmt.Errorf("withdrawal has already been decided")
		}
		return s.reload(withdrawal.ID)
	}

	res := s.DB.Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", withdrawal.ID, models.WithdrawalPending).
		Updates(map[string]interface{}{
			"status":     models.WithdrawalApproved,
			"decided_by": data.AdminId,
			"decided_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("withdrawal has already been decided")
	}

	if err := s.enqueuePayout(withdrawal.ID); err != nil {
		log.Printf("Failed to enqueue payout for withdrawal %s, rolling decision back: %v", withdrawal.ID, err)
		s.DB.Model(&models.Withdrawal{}).
			Where("id = ? AND status = ?", withdrawal.ID, models.WithdrawalApproved).
			Updates(map[string]interface{}{
				"status":     models.WithdrawalPending,
				"decided_by": "",
				"decided_at": nil,
			})
		return nil, fmt.Errorf("payout queue unavailable, approval not recorded")
	}

	return s.reload(withdrawal.ID)
}

func (s *WithdrawalService) enqueuePayout(withdrawalId string) error {
	if s.Client == nil {
		return fmt.Errorf("no payout queue client configured")
	}

	taskData, err := json.Marshal(PayoutTaskPayload{WithdrawalId: withdrawalId})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TypePayout, taskData)
	_, err = s.Client.Enqueue(task,
		asynq.TaskID(fmt.Sprintf("payout:%s", withdrawalId)),
		asynq.MaxRetry(5),
		asynq.Queue("critical"),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// ExecutePayout runs on the worker. It flips the withdrawal to processing
// and fires the gateway transfer. The guarded flip means a redelivered task
// finds zero rows and does not fire a second transfer.
func (s *WithdrawalService) ExecutePayout(withdrawalId string) error {
	var withdrawal models.Withdrawal
	if err := s.DB.Where("id = ?", withdrawalId).First(&withdrawal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("withdrawal %s not found: %w", withdrawalId, asynq.SkipRetry)
		}
		return err
	}

	res := s.DB.Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", withdrawalId, models.WithdrawalApproved).
		Updates(map[string]interface{}{
			"status":      models.WithdrawalProcessing,
			"transfer_id": withdrawalId,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		log.Printf("Payout for withdrawal %s already in flight, skipping", withdrawalId)
		return nil
	}

	_, err := s.Gateway.InitiatePayout(PayoutRequest{
		TransferId:    withdrawalId,
		Amount:        withdrawal.NetAmount,
		Mode:          withdrawal.PayoutMode,
		AccountNumber: withdrawal.AccountNumber,
		Ifsc:          withdrawal.BankIfsc,
		AccountHolder: withdrawal.AccountHolder,
		UpiId:         withdrawal.UpiId,
		Remarks:       fmt.Sprintf("Collection payout %s", withdrawalId),
	})
	if err != nil {
		// Roll the status back so the retry can reattempt the transfer.
		s.DB.Model(&models.Withdrawal{}).
			Where("id = ? AND status = ?", withdrawalId, models.WithdrawalProcessing).
			UpdateColumn("status", models.WithdrawalApproved)
		return err
	}
	return nil
}

// MarkFailed is the terminal path for a payout whose retries are exhausted.
// Leaving processing releases the reservation; the organizer can re-request.
func (s *WithdrawalService) MarkFailed(withdrawalId, reason string) error {
	res := s.DB.Model(&models.Withdrawal{}).
		Where("id = ? AND status IN ?", withdrawalId, []string{models.WithdrawalApproved, models.WithdrawalProcessing}).
		Updates(map[string]interface{}{
			"status":         models.WithdrawalFailed,
			"failure_reason": reason,
		})
	return res.Error
}

// SettlePayouts polls the gateway for every processing withdrawal and lands
// the outcome. Completion flips the status and applies the ledger debit in
// one transaction under a single idempotency key, so a settlement observed
// twice still debits once.
func (s *WithdrawalService) SettlePayouts() {
	var inFlight []models.Withdrawal
	err := s.DB.Where("status = ? AND transfer_id != ''", models.WithdrawalProcessing).
		Limit(200).
		Find(&inFlight).Error
	if err != nil {
		log.Printf("Settlement poll query failed: %v", err)
		return
	}

	for _, withdrawal := range inFlight {
		status, err := s.Gateway.GetTransferStatus(withdrawal.TransferId)
		if err != nil {
			log.Printf("Failed to fetch transfer status for %s: %v", withdrawal.TransferId, err)
			continue
		}
		if err := s.SettleOne(withdrawal.ID, status); err != nil {
			log.Printf("Failed to settle withdrawal %s: %v", withdrawal.ID, err)
		}
	}
}

// SettleOne lands a known transfer outcome on a processing withdrawal.
func (s *WithdrawalService) SettleOne(withdrawalId string, status TransferStatus) error {
	var withdrawal models.Withdrawal
	if err := s.DB.Where("id = ?", withdrawalId).First(&withdrawal).Error; err != nil {
		return err
	}

	switch status {
	case TransferCompleted:
		return s.DB.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Withdrawal{}).
				Where("id = ? AND status = ?", withdrawalId, models.WithdrawalProcessing).
				UpdateColumn("status", models.WithdrawalCompleted)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil
			}

			err := s.Ledger.ApplyDebit(tx, withdrawal.CollectionId, withdrawal.Amount, withdrawalKey(withdrawalId))
			if errors.Is(err, ErrAlreadyApplied) {
				return nil
			}
			return err
		})
	case TransferFailed:
		res := s.DB.Model(&models.Withdrawal{}).
			Where("id = ? AND status = ?", withdrawalId, models.WithdrawalProcessing).
			Updates(map[string]interface{}{
				"status":         models.WithdrawalFailed,
				"failure_reason": "transfer failed at gateway",
			})
		return res.Error
	default:
		return nil
	}
}

// StartScheduler initializes the settlement poller cron job.
func (s *WithdrawalService) StartScheduler() {
	c := cron.New()
	// Run every 5 minutes: "*/5 * * * *"
	_, err := c.AddFunc("*/5 * * * *", func() {
		log.Println("Running scheduled payout settlement poll...")
		s.SettlePayouts()
	})
	if err != nil {
		log.Printf("Error scheduling payout settlement poll: %v", err)
		return
	}
	c.Start()
	log.Println("WithdrawalService Scheduler started (Every 5 minutes)")
}

func (s *WithdrawalService) reload(id string) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	if err := s.DB.Where("id = ?", id).First(&withdrawal).Error; err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

func withdrawalKey(id string) string {
	return "withdrawal:" + id
}
