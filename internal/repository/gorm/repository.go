package gormrepository

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"investtrack/internal/models"
	"investtrack/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- positions ---------------------------------------------------------------

func (s *Store) CreatePosition(ctx context.Context, item *models.Position) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetPositionByID(ctx context.Context, id string) (*models.Position, error) {
	if s == nil || s.db == nil || strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var item models.Position
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func positionsQuery(db *gorm.DB, params repository.ListPositionsParams) *gorm.DB {
	query := db.Model(&models.Position{})
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" && *params.Status != "all" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.Ticker != nil && strings.TrimSpace(*params.Ticker) != "" {
		query = query.Where("ticker = ?", strings.ToUpper(strings.TrimSpace(*params.Ticker)))
	}
	return query
}

func (s *Store) ListPositions(ctx context.Context, params repository.ListPositionsParams) ([]models.Position, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := positionsQuery(s.db.WithContext(ctx), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "start_date")
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.Position
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountPositions(ctx context.Context, params repository.ListPositionsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := positionsQuery(s.db.WithContext(ctx), params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ListOpenPositions(ctx context.Context) ([]models.Position, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Position
	err := s.db.WithContext(ctx).
		Where("status = ?", models.PositionStatusOpen).
		Order("ticker asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpdatePosition(ctx context.Context, item *models.Position) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) DeletePositionWithDividends(ctx context.Context, id string) error {
	if s == nil || s.db == nil || strings.TrimSpace(id) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("position_id = ?", id).Delete(&models.Dividend{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Position{}).Error
	})
}

// --- dividends ---------------------------------------------------------------

func (s *Store) InsertDividend(ctx context.Context, item *models.Dividend) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListDividends(ctx context.Context, params repository.ListDividendsParams) ([]models.Dividend, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Dividend{})
	if params.PositionID != nil && strings.TrimSpace(*params.PositionID) != "" {
		query = query.Where("position_id = ?", strings.TrimSpace(*params.PositionID))
	}
	if params.Ticker != nil && strings.TrimSpace(*params.Ticker) != "" {
		query = query.Where("ticker = ?", strings.ToUpper(strings.TrimSpace(*params.Ticker)))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("payment_date >= ?", *params.Since)
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("payment_date <= ?", *params.Until)
	}
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Dividend
	if err := query.Order("payment_date asc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) SumDividendsByPositionIDs(ctx context.Context, positionIDs []string) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	if s == nil || s.db == nil || len(positionIDs) == 0 {
		return out, nil
	}
	type row struct {
		PositionID string
		Total      decimal.Decimal
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&models.Dividend{}).
		Select("position_id, COALESCE(SUM(amount), 0) AS total").
		Where("position_id IN ?", positionIDs).
		Group("position_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.PositionID] = r.Total
	}
	return out, nil
}

// --- snapshots ---------------------------------------------------------------

func (s *Store) CreateSnapshot(ctx context.Context, item *models.Snapshot) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetSnapshotByID(ctx context.Context, id string) (*models.Snapshot, error) {
	if s == nil || s.db == nil || strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var item models.Snapshot
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func snapshotsQuery(db *gorm.DB, params repository.ListSnapshotsParams) *gorm.DB {
	query := db.Model(&models.Snapshot{})
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("end_date >= ?", *params.Since)
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("end_date <= ?", *params.Until)
	}
	return query
}

func (s *Store) ListSnapshots(ctx context.Context, params repository.ListSnapshotsParams) ([]models.Snapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := snapshotsQuery(s.db.WithContext(ctx), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "end_date")
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.Snapshot
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountSnapshots(ctx context.Context, params repository.ListSnapshotsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := snapshotsQuery(s.db.WithContext(ctx), params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) UpdateSnapshot(ctx context.Context, item *models.Snapshot) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) DeleteSnapshotWithPositions(ctx context.Context, id string) error {
	if s == nil || s.db == nil || strings.TrimSpace(id) == "" {
		return nil
	}
	// Rows first, snapshot second: there is no DB-level cascade.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("snapshot_id = ?", id).Delete(&models.SnapshotPosition{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Snapshot{}).Error
	})
}

// --- snapshot positions ------------------------------------------------------

func (s *Store) InsertSnapshotPositions(ctx context.Context, items []models.SnapshotPosition) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(items, 200).Error
}

func (s *Store) ListSnapshotPositions(ctx context.Context, snapshotID string) ([]models.SnapshotPosition, error) {
	if s == nil || s.db == nil || strings.TrimSpace(snapshotID) == "" {
		return nil, nil
	}
	var items []models.SnapshotPosition
	err := s.db.WithContext(ctx).
		Where("snapshot_id = ?", snapshotID).
		Order("ticker asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpdateSnapshotPosition(ctx context.Context, item *models.SnapshotPosition) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

// --- settings ----------------------------------------------------------------

func (s *Store) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	if s == nil || s.db == nil || strings.TrimSpace(key) == "" {
		return nil, nil
	}
	var item models.Setting
	err := s.db.WithContext(ctx).Where("key = ?", strings.TrimSpace(key)).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpsertSetting(ctx context.Context, key, value string) error {
	if s == nil || s.db == nil || strings.TrimSpace(key) == "" {
		return nil
	}
	item := models.Setting{Key: strings.TrimSpace(key), Value: value}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&item).Error
}

func (s *Store) ListSettings(ctx context.Context) ([]models.Setting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Setting
	if err := s.db.WithContext(ctx).Order("key asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- profile -----------------------------------------------------------------

func (s *Store) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if s == nil || s.db == nil || strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	var item models.Profile
	err := s.db.WithContext(ctx).Where("user_id = ?", strings.TrimSpace(userID)).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpsertProfile(ctx context.Context, item *models.Profile) error {
	if s == nil || s.db == nil || item == nil || strings.TrimSpace(item.UserID) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "base_ccy", "updated_at"}),
	}).Create(item).Error
}

// --- helpers -----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	col := strings.TrimSpace(orderBy)
	if col == "" {
		col = fallback
	}
	dir := "desc"
	if asc != nil && *asc {
		dir = "asc"
	}
	return query.Order(col + " " + dir)
}

func normalizeLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
