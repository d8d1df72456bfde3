package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PositionStatusOpen   = "open"
	PositionStatusClosed = "closed"
)

type Position struct {
	ID          string  `gorm:"primaryKey;type:uuid" json:"id"`
	Ticker      string  `gorm:"type:varchar(20);not null;index" json:"ticker"`
	CompanyName *string `gorm:"type:varchar(200)" json:"company_name,omitempty"`

	StartDate time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate   *time.Time `gorm:"type:date" json:"end_date,omitempty"`

	// Fetched market prices; nil until the market data provider fills them.
	StartPrice *decimal.Decimal `gorm:"type:numeric(20,6)" json:"start_price,omitempty"`
	EndPrice   *decimal.Decimal `gorm:"type:numeric(20,6)" json:"end_price,omitempty"`

	// Manual overrides always win over fetched prices when set.
	StartPriceOverride *decimal.Decimal `gorm:"type:numeric(20,6)" json:"start_price_override,omitempty"`
	EndPriceOverride   *decimal.Decimal `gorm:"type:numeric(20,6)" json:"end_price_override,omitempty"`

	Status string `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Position) TableName() string {
	return "positions"
}

func (p *Position) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
