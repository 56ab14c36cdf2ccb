package models

import (
	"time"
)

// Donation statuses. Terminal states (confirmed, failed) are absorbing.
const (
	DonationInitiated = "initiated"
	DonationConfirmed = "confirmed"
	DonationFailed    = "failed"
)

type Donation struct {
	ID               string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	CollectionId     string    `gorm:"column:collection_id;type:varchar(36);not null;index" json:"collection_id"`
	OrderId          string    `gorm:"column:order_id;size:50;not null;uniqueIndex" json:"order_id"`
	GatewayOrderId   string    `gorm:"column:gateway_order_id;size:100" json:"gateway_order_id"`
	PaymentSessionId string    `gorm:"column:payment_session_id;size:255" json:"-"`
	DonorName        string    `gorm:"column:donor_name;size:150;not null" json:"donor_name"`
	DonorEmail       string    `gorm:"column:donor_email;size:150;not null" json:"-"`
	DonorPhone       string    `gorm:"column:donor_phone;size:20" json:"-"`
	Amount           float64   `gorm:"column:amount;type:decimal(20,2);not null" json:"amount"`
	Message          string    `gorm:"column:message;type:text" json:"message"`
	Anonymous        bool      `gorm:"column:anonymous;default:false" json:"anonymous"`
	Status           string    `gorm:"column:status;size:20;default:initiated;index" json:"status"`
	PaymentMethod    string    `gorm:"column:payment_method;size:50" json:"payment_method"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Donation) TableName() string {
	return "donations"
}

func (d *Donation) Terminal() bool {
	return d.Status == DonationConfirmed || d.Status == DonationFailed
}
