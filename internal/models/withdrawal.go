package models

import (
	"time"
)

// Withdrawal statuses. pending/approved/processing reserve funds on the
// collection; rejected, failed and completed do not (completed moves the
// reservation into withdrawn_amount through the ledger debit).
const (
	WithdrawalPending    = "pending"
	WithdrawalApproved   = "approved"
	WithdrawalProcessing = "processing"
	WithdrawalCompleted  = "completed"
	WithdrawalRejected   = "rejected"
	WithdrawalFailed     = "failed"
)

const (
	PayoutModeBank = "bank"
	PayoutModeUpi  = "upi"
)

// ReservingStatuses are the states whose amounts count against a
// collection's available balance.
var ReservingStatuses = []string{WithdrawalPending, WithdrawalApproved, WithdrawalProcessing}

type Withdrawal struct {
	ID            string     `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	CollectionId  string     `gorm:"column:collection_id;type:varchar(36);not null;index" json:"collection_id"`
	RequesterId   string     `gorm:"column:requester_id;type:varchar(36);not null;index" json:"requester_id"`
	Amount        float64    `gorm:"column:amount;type:decimal(20,2);not null" json:"amount"`
	PlatformFee   float64    `gorm:"column:platform_fee;type:decimal(20,2);not null" json:"platform_fee"`
	NetAmount     float64    `gorm:"column:net_amount;type:decimal(20,2);not null" json:"net_amount"`
	PayoutMode    string     `gorm:"column:payout_mode;size:10;not null" json:"payout_mode"`
	AccountNumber string     `gorm:"column:account_number;size:20" json:"-"`
	AccountHolder string     `gorm:"column:account_holder;size:150" json:"account_holder"`
	BankIfsc      string     `gorm:"column:bank_ifsc;size:11" json:"bank_ifsc"`
	UpiId         string     `gorm:"column:upi_id;size:100" json:"upi_id"`
	Status        string     `gorm:"column:status;size:20;default:pending;index" json:"status"`
	FailureReason string     `gorm:"column:failure_reason;type:text" json:"failure_reason,omitempty"`
	TransferId    string     `gorm:"column:transfer_id;size:100;index" json:"transfer_id,omitempty"`
	DecidedBy     string     `gorm:"column:decided_by;type:varchar(36)" json:"-"`
	DecidedAt     *time.Time `gorm:"column:decided_at" json:"decided_at,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Withdrawal) TableName() string {
	return "withdrawals"
}
