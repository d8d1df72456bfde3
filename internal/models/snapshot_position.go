package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SnapshotPosition is a frozen copy of a Position taken at snapshot time.
// Prices are independent copies, so later Position edits never rewrite
// snapshot history. Only the explicit fetch-prices and populate-dividends
// operations may backfill a row after creation.
type SnapshotPosition struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	SnapshotID string `gorm:"type:uuid;not null;index" json:"snapshot_id"`

	Ticker      string  `gorm:"type:varchar(20);not null;index" json:"ticker"`
	CompanyName *string `gorm:"type:varchar(200)" json:"company_name,omitempty"`

	StartDate time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate   *time.Time `gorm:"type:date" json:"end_date,omitempty"`

	StartPrice *decimal.Decimal `gorm:"type:numeric(20,6)" json:"start_price,omitempty"`
	EndPrice   *decimal.Decimal `gorm:"type:numeric(20,6)" json:"end_price,omitempty"`

	ReturnPct     *decimal.Decimal `gorm:"type:numeric(10,4)" json:"return_pct,omitempty"`
	DividendsPaid decimal.Decimal  `gorm:"type:numeric(20,6);not null;default:0" json:"dividends_paid"`

	PositionStatus string `gorm:"type:varchar(20);not null" json:"position_status"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (SnapshotPosition) TableName() string {
	return "snapshot_positions"
}

func (p *SnapshotPosition) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
