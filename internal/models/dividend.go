package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Dividend struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	PositionID string `gorm:"type:uuid;not null;index" json:"position_id"`
	Ticker     string `gorm:"type:varchar(20);not null;index" json:"ticker"`

	PaymentDate time.Time       `gorm:"type:date;not null" json:"payment_date"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"amount"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
}

func (Dividend) TableName() string {
	return "dividends"
}

func (d *Dividend) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
