package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"fundflow-service/internal/models"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// PaymentService is the reconciliation engine: it creates gateway orders for
// donations and drives each donation to a terminal status exactly once,
// whether the signal arrives via webhook, client verify call or the stale
// order sweep.
type PaymentService struct {
	DB       *gorm.DB
	Ledger   *LedgerService
	Gateway  PaymentGateway
	Settings *SettingsService
}

func NewPaymentService(db *gorm.DB, ledger *LedgerService, gateway PaymentGateway, settings *SettingsService) *PaymentService {
	return &PaymentService{DB: db, Ledger: ledger, Gateway: gateway, Settings: settings}
}

type InitiateDonationDTO struct {
	CollectionId string  `json:"collection_id"`
	DonorName    string  `json:"donor_name" binding:"required"`
	DonorEmail   string  `json:"donor_email" binding:"required,email"`
	DonorPhone   string  `json:"donor_phone"`
	Amount       float64 `json:"amount" binding:"required"`
	Message      string  `json:"message"`
	Anonymous    bool    `json:"anonymous"`
}

type InitiateDonationResult struct {
	Donation         *models.Donation `json:"donation"`
	OrderId          string           `json:"order_id"`
	PaymentSessionId string           `json:"payment_session_id"`
}

// InitiateDonation validates the collection can accept funds, records an
// initiated donation and opens a gateway order for it. No balance moves here;
// money moves only at reconciliation.
func (s *PaymentService) InitiateDonation(data InitiateDonationDTO) (*InitiateDonationResult, error) {
	settings, err := s.Settings.Get()
	if err != nil {
		return nil, err
	}
	if data.Amount < settings.MinimumDonation {
		return nil, fmt.Errorf("%w: minimum donation is %.2f", ErrInvalidAmount, settings.MinimumDonation)
	}

	var collection models.Collection
	if err := s.DB.Where("id = ?", data.CollectionId).First(&collection).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, err
	}
	if collection.Status != models.CollectionActive {
		return nil, ErrNotAcceptingFunds
	}
	if collection.Deadline != nil && collection.Deadline.Before(time.Now()) {
		return nil, ErrNotAcceptingFunds
	}

	orderId := newOrderId()
	donation := models.Donation{
		ID:           uuid.NewString(),
		CollectionId: collection.ID,
		OrderId:      orderId,
		DonorName:    data.DonorName,
		DonorEmail:   data.DonorEmail,
		DonorPhone:   data.DonorPhone,
		Amount:       data.Amount,
		Message:      data.Message,
		Anonymous:    data.Anonymous,
		Status:       models.DonationInitiated,
	}
	if err := s.DB.Create(&donation).Error; err != nil {
		return nil, err
	}

	session, err := s.Gateway.CreateOrder(CreateOrderRequest{
		OrderId:       orderId,
		Amount:        data.Amount,
		Currency:      "INR",
		CustomerId:    strings.ReplaceAll(donation.ID, "-", ""),
		CustomerName:  data.DonorName,
		CustomerEmail: data.DonorEmail,
		CustomerPhone: data.DonorPhone,
		ReturnUrl:     fmt.Sprintf("%s/donation/status?order_id=%s", os.Getenv("FRONTEND_URL"), orderId),
		NotifyUrl:     fmt.Sprintf("%s/api/v1/payments/webhook", os.Getenv("BASE_URL")),
	})
	if err != nil {
		// The initiated row stays behind; the sweep will fail it once stale.
		return nil, err
	}

	if err := s.DB.Model(&donation).Updates(map[string]interface{}{
		"gateway_order_id":   session.GatewayOrderId,
		"payment_session_id": session.PaymentSessionId,
	}).Error; err != nil {
		return nil, err
	}
	donation.GatewayOrderId = session.GatewayOrderId
	donation.PaymentSessionId = session.PaymentSessionId

	return &InitiateDonationResult{
		Donation:         &donation,
		OrderId:          orderId,
		PaymentSessionId: session.PaymentSessionId,
	}, nil
}

// ReconcileOrder drives the donation for orderId toward a terminal status
// using the gateway as the source of truth. Safe to call any number of times
// from any path: a terminal donation is returned as-is, and the confirm flip
// plus ledger credit happen in one transaction guarded by a status check, so
// concurrent callers settle on exactly one credit.
func (s *PaymentService) ReconcileOrder(orderId string) (*models.Donation, error) {
	var donation models.Donation
	if err := s.DB.Where("order_id = ?", orderId).First(&donation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if donation.Terminal() {
		return &donation, nil
	}

	status, err := s.Gateway.GetOrderStatus(orderId)
	if err != nil {
		return nil, err
	}

	return s.applyOutcome(&donation, status)
}

// ApplyGatewayOutcome settles a donation from an already-known gateway
// outcome, used by the webhook path where the status arrives in the event
// body instead of a fetch.
func (s *PaymentService) ApplyGatewayOutcome(orderId string, status OrderStatus) (*models.Donation, error) {
	var donation models.Donation
	if err := s.DB.Where("order_id = ?", orderId).First(&donation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if donation.Terminal() {
		return &donation, nil
	}
	return s.applyOutcome(&donation, status)
}

func (s *PaymentService) applyOutcome(donation *models.Donation, status OrderStatus) (*models.Donation, error) {
	switch status {
	case OrderSuccess:
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			// First writer wins. If another reconciler already flipped the
			// row, zero rows are affected and this attempt becomes a no-op.
			res := tx.Model(&models.Donation{}).
				Where("id = ? AND status = ?", donation.ID, models.DonationInitiated).
				UpdateColumn("status", models.DonationConfirmed)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil
			}

			err := s.Ledger.ApplyCredit(tx, donation.CollectionId, donation.Amount, donationKey(donation.OrderId))
			if errors.Is(err, ErrAlreadyApplied) {
				return nil
			}
			return err
		})
		if err != nil {
			return nil, err
		}
	case OrderFailed:
		res := s.DB.Model(&models.Donation{}).
			Where("id = ? AND status = ?", donation.ID, models.DonationInitiated).
			UpdateColumn("status", models.DonationFailed)
		if res.Error != nil {
			return nil, res.Error
		}
	default:
		// Still pending at the gateway; leave the row alone.
		return donation, nil
	}

	var settled models.Donation
	if err := s.DB.Where("id = ?", donation.ID).First(&settled).Error; err != nil {
		return nil, err
	}
	return &settled, nil
}

// SweepStaleOrders reconciles donations stuck in initiated longer than the
// cutoff. Orders the gateway reports expired or cancelled get failed here;
// late PAID signals still credit through the same path. Rows that never got
// a gateway order (CreateOrder failed after the insert) have nothing to ask
// the gateway about and are failed directly.
func (s *PaymentService) SweepStaleOrders(olderThan time.Duration) {
	cutoff := time.Now().Add(-olderThan)

	var stale []models.Donation
	err := s.DB.Where("status = ? AND created_at < ?", models.DonationInitiated, cutoff).
		Limit(200).
		Find(&stale).Error
	if err != nil {
		log.Printf("Stale order sweep query failed: %v", err)
		return
	}

	for _, donation := range stale {
		if donation.GatewayOrderId == "" {
			res := s.DB.Model(&models.Donation{}).
				Where("id = ? AND status = ?", donation.ID, models.DonationInitiated).
				UpdateColumn("status", models.DonationFailed)
			if res.Error != nil {
				log.Printf("Failed to expire orphaned order %s: %v", donation.OrderId, res.Error)
			}
			continue
		}
		if _, err := s.ReconcileOrder(donation.OrderId); err != nil {
			log.Printf("Failed to reconcile stale order %s: %v", donation.OrderId, err)
		}
	}
}

// StartScheduler initializes the cron job for PaymentService
func (s *PaymentService) StartScheduler() {
	c := cron.New()
	// Run every 10 minutes: "*/10 * * * *"
	_, err := c.AddFunc("*/10 * * * *", func() {
		log.Println("Running scheduled stale order sweep...")
		s.SweepStaleOrders(30 * time.Minute)
	})
	if err != nil {
		log.Printf("Error scheduling stale order sweep: %v", err)
		return
	}
	c.Start()
	log.Println("PaymentService Scheduler started (Every 10 minutes)")
}

func newOrderId() string {
	return "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func donationKey(orderId string) string {
	return "donation:" + orderId
}
