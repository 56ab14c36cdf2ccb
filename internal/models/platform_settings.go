package models

import (
	"time"
)

// PlatformSettings is a singleton row (id = 1). The fee percentage is read
// by every new withdrawal's fee computation; changes never touch fees
// already snapshotted onto existing withdrawals.
type PlatformSettings struct {
	ID                    int       `gorm:"column:id;primaryKey" json:"-"`
	PlatformFeePercentage float64   `gorm:"column:platform_fee_percentage;type:decimal(5,2);default:2.50" json:"platform_fee_percentage"`
	MinimumDonation       float64   `gorm:"column:minimum_donation;type:decimal(20,2);default:10.00" json:"minimum_donation"`
	UpdatedBy             string    `gorm:"column:updated_by;type:varchar(36)" json:"-"`
	UpdatedAt             time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (PlatformSettings) TableName() string {
	return "platform_settings"
}
