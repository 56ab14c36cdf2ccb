package services

import (
	"errors"
	"log"

	"fundflow-service/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerService owns the collection balance fields. Every mutation goes
// through a transaction that locks the collection row, records a ledger
// entry under a unique idempotency key, and applies the balance change as a
// single all-or-nothing step. Mutations are therefore serialized per
// collection and retry-safe: replaying a key yields ErrAlreadyApplied
// instead of a second application.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// CreditDonation applies a confirmed donation to the collection balance,
// incrementing current_amount and donor_count exactly once per key.
func (s *LedgerService) CreditDonation(collectionId string, amount float64, idempotencyKey string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.ApplyCredit(tx, collectionId, amount, idempotencyKey)
	})
}

// DebitWithdrawal moves a completed withdrawal's gross amount into
// withdrawn_amount. Fails with ErrInsufficientFunds if the debit would
// drive withdrawn_amount past current_amount.
func (s *LedgerService) DebitWithdrawal(collectionId string, amount float64, idempotencyKey string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.ApplyDebit(tx, collectionId, amount, idempotencyKey)
	})
}

// ApplyCredit is the transaction-scoped credit step, exposed so the
// reconciliation engine can combine it with the donation status flip in one
// atomic transaction.
func (s *LedgerService) ApplyCredit(tx *gorm.DB, collectionId string, amount float64, idempotencyKey string) error {
	collection, err := s.lockCollection(tx, collectionId)
	if err != nil {
		return err
	}
	if collection.Status == models.CollectionFrozen {
		return ErrCollectionFrozen
	}
	if err := verifyInvariant(collection); err != nil {
		return err
	}

	if err := s.recordEntry(tx, collectionId, models.EntryCredit, amount, idempotencyKey); err != nil {
		return err
	}

	return tx.Model(&models.Collection{}).
		Where("id = ?", collectionId).
		UpdateColumns(map[string]interface{}{
			"current_amount": gorm.Expr("current_amount + ?", amount),
			"donor_count":    gorm.Expr("donor_count + 1"),
		}).Error
}

// ApplyDebit is the transaction-scoped debit step.
func (s *LedgerService) ApplyDebit(tx *gorm.DB, collectionId string, amount float64, idempotencyKey string) error {
	collection, err := s.lockCollection(tx, collectionId)
	if err != nil {
		return err
	}
	if collection.Status == models.CollectionFrozen {
		return ErrCollectionFrozen
	}
	if err := verifyInvariant(collection); err != nil {
		return err
	}

	if err := s.recordEntry(tx, collectionId, models.EntryDebit, amount, idempotencyKey); err != nil {
		return err
	}

	// The WHERE guard makes the invariant hold even if a concurrent writer
	// slipped past the row lock; zero rows affected means the debit would
	// overdraw the confirmed balance.
	res := tx.Model(&models.Collection{}).
		Where("id = ? AND current_amount - withdrawn_amount >= ?", collectionId, amount).
		UpdateColumn("withdrawn_amount", gorm.Expr("withdrawn_amount + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// GetAvailable returns the reservation-aware available balance:
// current_amount - withdrawn_amount - sum of non-terminal withdrawal
// amounts. This is the authoritative figure; clients never recompute it.
func (s *LedgerService) GetAvailable(collectionId string) (float64, error) {
	var collection models.Collection
	if err := s.DB.Where("id = ?", collectionId).First(&collection).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrCollectionNotFound
		}
		return 0, err
	}

	if err := verifyInvariant(&collection); err != nil {
		// No lock is held on this read path, so the freeze can be made
		// durable here; every mutation path refuses the collection anyway.
		s.DB.Model(&models.Collection{}).
			Where("id = ?", collectionId).
			UpdateColumn("status", models.CollectionFrozen)
		return 0, err
	}

	reserved, err := s.ReservedAmount(s.DB, collectionId)
	if err != nil {
		return 0, err
	}

	return collection.CurrentAmount - collection.WithdrawnAmount - reserved, nil
}

// ReservedAmount sums the amounts of withdrawals currently holding funds.
func (s *LedgerService) ReservedAmount(tx *gorm.DB, collectionId string) (float64, error) {
	var reserved float64
	err := tx.Model(&models.Withdrawal{}).
		Where("collection_id = ? AND status IN ?", collectionId, models.ReservingStatuses).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&reserved).Error
	return reserved, err
}

// LockCollection loads the collection under FOR UPDATE so callers can extend
// the ledger's serialization to their own checks (reservation accounting).
func (s *LedgerService) LockCollection(tx *gorm.DB, collectionId string) (*models.Collection, error) {
	return s.lockCollection(tx, collectionId)
}

func (s *LedgerService) lockCollection(tx *gorm.DB, collectionId string) (*models.Collection, error) {
	var collection models.Collection
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", collectionId).
		First(&collection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, err
	}
	return &collection, nil
}

func (s *LedgerService) recordEntry(tx *gorm.DB, collectionId, entryType string, amount float64, idempotencyKey string) error {
	entry := models.LedgerEntry{
		CollectionId:   collectionId,
		IdempotencyKey: idempotencyKey,
		EntryType:      entryType,
		Amount:         amount,
	}
	if err := tx.Create(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyApplied
		}
		return err
	}
	return nil
}

// verifyInvariant halts the collection's mutation path if the balance
// invariant is already broken. This is a bug trap, not a user error: the
// locking discipline should make it unreachable.
func verifyInvariant(collection *models.Collection) error {
	if collection.WithdrawnAmount > collection.CurrentAmount || collection.WithdrawnAmount < 0 {
		log.Printf("ALERT: ledger invariant violated for collection %s (current=%.2f withdrawn=%.2f)",
			collection.ID, collection.CurrentAmount, collection.WithdrawnAmount)
		return ErrCollectionFrozen
	}
	return nil
}
