package models

import (
	"time"
)

const (
	KycNotSubmitted = "not_submitted"
	KycPending      = "pending"
	KycApproved     = "approved"
	KycRejected     = "rejected"
)

// KYCRecord holds one identity-verification submission per user. Identity
// and payout fields are stored in full and masked in read projections.
type KYCRecord struct {
	ID                string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	UserId            string    `gorm:"column:user_id;type:varchar(36);not null;uniqueIndex" json:"user_id"`
	PanNumber         string    `gorm:"column:pan_number;size:10;not null" json:"-"`
	AadhaarNumber     string    `gorm:"column:aadhaar_number;size:12;not null" json:"-"`
	BankAccountNumber string    `gorm:"column:bank_account_number;size:20" json:"-"`
	BankIfsc          string    `gorm:"column:bank_ifsc;size:11" json:"bank_ifsc"`
	BankAccountHolder string    `gorm:"column:bank_account_holder;size:150" json:"bank_account_holder"`
	UpiId             string    `gorm:"column:upi_id;size:100" json:"upi_id"`
	Status            string    `gorm:"column:status;size:20;default:pending;index" json:"status"`
	RejectionReason   string    `gorm:"column:rejection_reason;type:text" json:"rejection_reason,omitempty"`
	ReviewedBy        string    `gorm:"column:reviewed_by;type:varchar(36)" json:"-"`
	ReviewedAt        *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (KYCRecord) TableName() string {
	return "kyc_records"
}
