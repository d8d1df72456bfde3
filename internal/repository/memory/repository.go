// Package memoryrepository is the in-memory Repository used in demo mode and
// by service tests. Semantics mirror the GORM store: list filters, ordering
// on the whitelisted columns, delete ordering, and upsert behavior match.
package memoryrepository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"investtrack/internal/models"
	"investtrack/internal/repository"
)

type Store struct {
	mu sync.RWMutex

	positions         map[string]models.Position
	dividends         map[string]models.Dividend
	snapshots         map[string]models.Snapshot
	snapshotPositions map[string]models.SnapshotPosition
	settings          map[string]models.Setting
	profiles          map[string]models.Profile
}

func New() *Store {
	return &Store{
		positions:         map[string]models.Position{},
		dividends:         map[string]models.Dividend{},
		snapshots:         map[string]models.Snapshot{},
		snapshotPositions: map[string]models.SnapshotPosition{},
		settings:          map[string]models.Setting{},
		profiles:          map[string]models.Profile{},
	}
}

// --- positions ---------------------------------------------------------------

func (s *Store) CreatePosition(ctx context.Context, item *models.Position) error {
	if item == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.positions[item.ID] = *item
	return nil
}

func (s *Store) GetPositionByID(ctx context.Context, id string) (*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.positions[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func matchPosition(p models.Position, params repository.ListPositionsParams) bool {
	if params.Status != nil && *params.Status != "" && *params.Status != "all" && p.Status != *params.Status {
		return false
	}
	if params.Ticker != nil && *params.Ticker != "" &&
		!strings.EqualFold(p.Ticker, strings.TrimSpace(*params.Ticker)) {
		return false
	}
	return true
}

func (s *Store) ListPositions(ctx context.Context, params repository.ListPositionsParams) ([]models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.Position, 0, len(s.positions))
	for _, p := range s.positions {
		if matchPosition(p, params) {
			items = append(items, p)
		}
	}
	sortPositions(items, params.OrderBy, params.Asc)
	return paginate(items, params.Limit, params.Offset), nil
}

// sortPositions matches the SQL store's ordering: descending unless asked
// ascending, newest start_date first by default with a ticker tiebreak.
func sortPositions(items []models.Position, orderBy string, asc *bool) {
	less := func(i, j int) bool {
		switch orderBy {
		case "ticker":
			return items[i].Ticker < items[j].Ticker
		case "created_at":
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		case "updated_at":
			return items[i].UpdatedAt.Before(items[j].UpdatedAt)
		default:
			if !items[i].StartDate.Equal(items[j].StartDate) {
				return items[i].StartDate.Before(items[j].StartDate)
			}
			return items[i].Ticker < items[j].Ticker
		}
	}
	if asc != nil && *asc {
		sort.Slice(items, less)
		return
	}
	sort.Slice(items, func(i, j int) bool { return less(j, i) })
}

func (s *Store) CountPositions(ctx context.Context, params repository.ListPositionsParams) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, p := range s.positions {
		if matchPosition(p, params) {
			total++
		}
	}
	return total, nil
}

func (s *Store) ListOpenPositions(ctx context.Context) ([]models.Position, error) {
	status := models.PositionStatusOpen
	items, err := s.ListPositions(ctx, repository.ListPositionsParams{Status: &status})
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Ticker < items[j].Ticker })
	return items, nil
}

func (s *Store) UpdatePosition(ctx context.Context, item *models.Position) error {
	if item == nil || item.ID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item.UpdatedAt = time.Now().UTC()
	s.positions[item.ID] = *item
	return nil
}

func (s *Store) DeletePositionWithDividends(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for did, d := range s.dividends {
		if d.PositionID == id {
			delete(s.dividends, did)
		}
	}
	delete(s.positions, id)
	return nil
}

// --- dividends ---------------------------------------------------------------

func (s *Store) InsertDividend(ctx context.Context, item *models.Dividend) error {
	if item == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.CreatedAt = time.Now().UTC()
	s.dividends[item.ID] = *item
	return nil
}

func (s *Store) ListDividends(ctx context.Context, params repository.ListDividendsParams) ([]models.Dividend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.Dividend, 0)
	for _, d := range s.dividends {
		if params.PositionID != nil && *params.PositionID != "" && d.PositionID != *params.PositionID {
			continue
		}
		if params.Ticker != nil && *params.Ticker != "" && !strings.EqualFold(d.Ticker, *params.Ticker) {
			continue
		}
		if params.Since != nil && d.PaymentDate.Before(*params.Since) {
			continue
		}
		if params.Until != nil && d.PaymentDate.After(*params.Until) {
			continue
		}
		items = append(items, d)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].PaymentDate.Before(items[j].PaymentDate) })
	return paginate(items, params.Limit, params.Offset), nil
}

func (s *Store) SumDividendsByPositionIDs(ctx context.Context, positionIDs []string) (map[string]decimal.Decimal, error) {
	want := map[string]struct{}{}
	for _, id := range positionIDs {
		want[id] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]decimal.Decimal{}
	for _, d := range s.dividends {
		if _, ok := want[d.PositionID]; !ok {
			continue
		}
		out[d.PositionID] = out[d.PositionID].Add(d.Amount)
	}
	return out, nil
}

// --- snapshots ---------------------------------------------------------------

func (s *Store) CreateSnapshot(ctx context.Context, item *models.Snapshot) error {
	if item == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.snapshots[item.ID] = *item
	return nil
}

func (s *Store) GetSnapshotByID(ctx context.Context, id string) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.snapshots[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func matchSnapshot(sn models.Snapshot, params repository.ListSnapshotsParams) bool {
	if params.Status != nil && *params.Status != "" && sn.Status != *params.Status {
		return false
	}
	if params.Since != nil && sn.EndDate.Before(*params.Since) {
		return false
	}
	if params.Until != nil && sn.EndDate.After(*params.Until) {
		return false
	}
	return true
}

func (s *Store) ListSnapshots(ctx context.Context, params repository.ListSnapshotsParams) ([]models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.Snapshot, 0, len(s.snapshots))
	for _, sn := range s.snapshots {
		if matchSnapshot(sn, params) {
			items = append(items, sn)
		}
	}
	sortSnapshots(items, params.OrderBy, params.Asc)
	return paginate(items, params.Limit, params.Offset), nil
}

func sortSnapshots(items []models.Snapshot, orderBy string, asc *bool) {
	less := func(i, j int) bool {
		if orderBy == "created_at" {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].EndDate.Before(items[j].EndDate)
	}
	if asc != nil && *asc {
		sort.Slice(items, less)
		return
	}
	sort.Slice(items, func(i, j int) bool { return less(j, i) })
}

func (s *Store) CountSnapshots(ctx context.Context, params repository.ListSnapshotsParams) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, sn := range s.snapshots {
		if matchSnapshot(sn, params) {
			total++
		}
	}
	return total, nil
}

func (s *Store) UpdateSnapshot(ctx context.Context, item *models.Snapshot) error {
	if item == nil || item.ID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item.UpdatedAt = time.Now().UTC()
	s.snapshots[item.ID] = *item
	return nil
}

func (s *Store) DeleteSnapshotWithPositions(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for spid, sp := range s.snapshotPositions {
		if sp.SnapshotID == id {
			delete(s.snapshotPositions, spid)
		}
	}
	delete(s.snapshots, id)
	return nil
}

// --- snapshot positions ------------------------------------------------------

func (s *Store) InsertSnapshotPositions(ctx context.Context, items []models.SnapshotPosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		items[i].CreatedAt = now
		items[i].UpdatedAt = now
		s.snapshotPositions[items[i].ID] = items[i]
	}
	return nil
}

func (s *Store) ListSnapshotPositions(ctx context.Context, snapshotID string) ([]models.SnapshotPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.SnapshotPosition, 0)
	for _, sp := range s.snapshotPositions {
		if sp.SnapshotID == snapshotID {
			items = append(items, sp)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Ticker < items[j].Ticker })
	return items, nil
}

func (s *Store) UpdateSnapshotPosition(ctx context.Context, item *models.SnapshotPosition) error {
	if item == nil || item.ID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item.UpdatedAt = time.Now().UTC()
	s.snapshotPositions[item.ID] = *item
	return nil
}

// --- settings ----------------------------------------------------------------

func (s *Store) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.settings[key]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *Store) UpsertSetting(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	item, ok := s.settings[key]
	if !ok {
		item = models.Setting{ID: uuid.NewString(), Key: key, CreatedAt: now}
	}
	item.Value = value
	item.UpdatedAt = now
	s.settings[key] = item
	return nil
}

func (s *Store) ListSettings(ctx context.Context) ([]models.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.Setting, 0, len(s.settings))
	for _, it := range s.settings {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, nil
}

// --- profile -----------------------------------------------------------------

func (s *Store) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *Store) UpsertProfile(ctx context.Context, item *models.Profile) error {
	if item == nil || strings.TrimSpace(item.UserID) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	existing, ok := s.profiles[item.UserID]
	if ok {
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
	} else {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	s.profiles[item.UserID] = *item
	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
