package models

import (
	"time"
)

// CallbackLog is an audit trail of gateway webhook and verify interactions.
type CallbackLog struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Request     string    `gorm:"column:request;type:longtext" json:"request"`
	Response    string    `gorm:"column:response;type:longtext" json:"response"`
	Status      int       `gorm:"column:status;default:0" json:"status"`
	RequestType string    `gorm:"column:request_type;size:50" json:"request_type"`
	OrderId     string    `gorm:"column:order_id;size:100;index" json:"order_id"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (CallbackLog) TableName() string {
	return "callback_logs"
}
