package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"investtrack/internal/models"
)

type ListPositionsParams struct {
	Limit   int
	Offset  int
	Status  *string
	Ticker  *string
	OrderBy string
	Asc     *bool
}

type ListSnapshotsParams struct {
	Limit   int
	Offset  int
	Status  *string
	Since   *time.Time
	Until   *time.Time
	OrderBy string
	Asc     *bool
}

type ListDividendsParams struct {
	PositionID *string
	Ticker     *string
	Since      *time.Time
	Until      *time.Time
	Limit      int
	Offset     int
}

// Repository is the storage surface for the tracker. Two implementations
// exist: the GORM/Postgres store and an in-memory store used for demo mode
// and tests.
type Repository interface {
	// Positions.
	CreatePosition(ctx context.Context, item *models.Position) error
	GetPositionByID(ctx context.Context, id string) (*models.Position, error)
	ListPositions(ctx context.Context, params ListPositionsParams) ([]models.Position, error)
	CountPositions(ctx context.Context, params ListPositionsParams) (int64, error)
	ListOpenPositions(ctx context.Context) ([]models.Position, error)
	UpdatePosition(ctx context.Context, item *models.Position) error
	// DeletePositionWithDividends removes a position and its dividend rows.
	// Snapshot history is never touched: snapshot rows are frozen copies
	// owned by their snapshot, not by the position.
	DeletePositionWithDividends(ctx context.Context, id string) error

	// Dividends.
	InsertDividend(ctx context.Context, item *models.Dividend) error
	ListDividends(ctx context.Context, params ListDividendsParams) ([]models.Dividend, error)
	SumDividendsByPositionIDs(ctx context.Context, positionIDs []string) (map[string]decimal.Decimal, error)

	// Snapshots.
	CreateSnapshot(ctx context.Context, item *models.Snapshot) error
	GetSnapshotByID(ctx context.Context, id string) (*models.Snapshot, error)
	ListSnapshots(ctx context.Context, params ListSnapshotsParams) ([]models.Snapshot, error)
	CountSnapshots(ctx context.Context, params ListSnapshotsParams) (int64, error)
	UpdateSnapshot(ctx context.Context, item *models.Snapshot) error
	// DeleteSnapshotWithPositions removes the snapshot's rows first and the
	// snapshot itself second, in one transaction, since the schema carries no
	// database-level cascade.
	DeleteSnapshotWithPositions(ctx context.Context, id string) error

	// Snapshot positions.
	InsertSnapshotPositions(ctx context.Context, items []models.SnapshotPosition) error
	ListSnapshotPositions(ctx context.Context, snapshotID string) ([]models.SnapshotPosition, error)
	UpdateSnapshotPosition(ctx context.Context, item *models.SnapshotPosition) error

	// Settings.
	GetSetting(ctx context.Context, key string) (*models.Setting, error)
	UpsertSetting(ctx context.Context, key, value string) error
	ListSettings(ctx context.Context) ([]models.Setting, error)

	// Profile. Single-user deployment: one row keyed by user_id.
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpsertProfile(ctx context.Context, item *models.Profile) error
}
