package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SnapshotStatusPending = "pending"
	SnapshotStatusReady   = "ready"
)

type Snapshot struct {
	ID   string  `gorm:"primaryKey;type:uuid" json:"id"`
	Name *string `gorm:"type:varchar(200)" json:"name,omitempty"`

	StartDate *time.Time `gorm:"type:date" json:"start_date,omitempty"`
	EndDate   time.Time  `gorm:"type:date;not null" json:"end_date"`

	Notes  *string `gorm:"type:text" json:"notes,omitempty"`
	Status string  `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	OverallReturnPct *decimal.Decimal `gorm:"type:numeric(10,4)" json:"overall_return_pct,omitempty"`

	// Last computed stats payload, cached best-effort for the UI.
	Stats datatypes.JSON `gorm:"type:jsonb" json:"stats,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Snapshot) TableName() string {
	return "snapshots"
}

func (s *Snapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
