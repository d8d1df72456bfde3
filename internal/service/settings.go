package service

import (
	"context"
	"strconv"
	"strings"

	"investtrack/internal/repository"
)

const (
	FeaturePriceRefresh = "feature.price_refresh"
	FeatureAutoSnapshot = "feature.auto_snapshot"

	SettingBaseCurrency = "base_currency"
)

// DefaultSettings seeds the settings table on first boot. Values are plain
// strings; feature switches store "true"/"false".
func DefaultSettings() map[string]string {
	return map[string]string{
		FeaturePriceRefresh: "true",
		FeatureAutoSnapshot: "false",
		SettingBaseCurrency: "USD",
	}
}

// SettingsService reads the settings table through typed accessors instead of
// handing callers a raw key/value blob.
type SettingsService struct {
	Repo repository.Repository
}

func (s *SettingsService) EnsureDefaults(ctx context.Context) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	for key, value := range DefaultSettings() {
		existing, err := s.Repo.GetSetting(ctx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if err := s.Repo.UpsertSetting(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// IsEnabled resolves a boolean switch, falling back to def on missing or
// unparseable values. Lookup failures also fall back rather than block the
// caller.
func (s *SettingsService) IsEnabled(ctx context.Context, key string, def bool) bool {
	if s == nil || s.Repo == nil {
		return def
	}
	item, err := s.Repo.GetSetting(ctx, key)
	if err != nil || item == nil {
		return def
	}
	v, err := strconv.ParseBool(strings.TrimSpace(item.Value))
	if err != nil {
		return def
	}
	return v
}

func (s *SettingsService) Get(ctx context.Context, key, def string) string {
	if s == nil || s.Repo == nil {
		return def
	}
	item, err := s.Repo.GetSetting(ctx, key)
	if err != nil || item == nil {
		return def
	}
	return item.Value
}

func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	return s.Repo.UpsertSetting(ctx, key, value)
}
