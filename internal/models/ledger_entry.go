package models

import (
	"time"
)

const (
	EntryCredit = "credit"
	EntryDebit  = "debit"
)

// LedgerEntry records a single applied balance mutation. The unique
// idempotency key is what makes CreditDonation/DebitWithdrawal retry-safe:
// a second attempt with the same key hits the index and is reported as
// already applied instead of moving money twice.
type LedgerEntry struct {
	ID             uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CollectionId   string    `gorm:"column:collection_id;type:varchar(36);not null;index" json:"collection_id"`
	IdempotencyKey string    `gorm:"column:idempotency_key;size:100;not null;uniqueIndex" json:"idempotency_key"`
	EntryType      string    `gorm:"column:entry_type;size:10;not null" json:"entry_type"`
	Amount         float64   `gorm:"column:amount;type:decimal(20,2);not null" json:"amount"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
