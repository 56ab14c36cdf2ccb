package models

import (
	"time"
)

// Collection statuses. Frozen is an operator-alert state: it is entered when
// a ledger invariant breach is detected and blocks every mutation path for
// the collection until an operator intervenes.
const (
	CollectionActive    = "active"
	CollectionCompleted = "completed"
	CollectionCancelled = "cancelled"
	CollectionFrozen    = "frozen"
)

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

type Collection struct {
	ID              string     `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Title           string     `gorm:"column:title;size:200;not null" json:"title"`
	Description     string     `gorm:"column:description;type:text" json:"description"`
	Category        string     `gorm:"column:category;size:50;not null" json:"category"`
	GoalAmount      float64    `gorm:"column:goal_amount;type:decimal(20,2);not null" json:"goal_amount"`
	CurrentAmount   float64    `gorm:"column:current_amount;type:decimal(20,2);default:0.00" json:"current_amount"`
	WithdrawnAmount float64    `gorm:"column:withdrawn_amount;type:decimal(20,2);default:0.00" json:"withdrawn_amount"`
	DonorCount      int        `gorm:"column:donor_count;default:0" json:"donor_count"`
	Visibility      string     `gorm:"column:visibility;size:20;default:public" json:"visibility"`
	Status          string     `gorm:"column:status;size:20;default:active;index" json:"status"`
	Deadline        *time.Time `gorm:"column:deadline" json:"deadline"`
	CoverImage      string     `gorm:"column:cover_image;size:500" json:"cover_image"`
	ShareLink       string     `gorm:"column:share_link;size:100" json:"share_link"`
	OrganizerId     string     `gorm:"column:organizer_id;type:varchar(36);not null;index" json:"organizer_id"`
	OrganizerName   string     `gorm:"column:organizer_name;size:150;not null" json:"organizer_name"`
	OrganizerEmail  string     `gorm:"column:organizer_email;size:150;not null" json:"organizer_email"`
	OrganizerPhone  string     `gorm:"column:organizer_phone;size:20" json:"organizer_phone"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Collection) TableName() string {
	return "collections"
}

// Available is the naive figure (current - withdrawn). The authoritative,
// reservation-aware figure comes from LedgerService.GetAvailable.
func (c *Collection) Available() float64 {
	return c.CurrentAmount - c.WithdrawnAmount
}
