package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
)

// ListAssets returns all assets, oldest first.
func (a *SQLiteAdapter) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	var models []AssetModel
	if err := a.db.WithContext(ctx).Order("created_at, id").Find(&models).Error; err != nil {
		return nil, err
	}
	assets := make([]domain.Asset, len(models))
	for i, m := range models {
		assets[i] = assetToDomain(m)
	}
	return assets, nil
}

// GetAsset looks an asset up by device name.
func (a *SQLiteAdapter) GetAsset(ctx context.Context, deviceName string) (domain.Asset, bool, error) {
	var m AssetModel
	err := a.db.WithContext(ctx).Where("device_name = ?", deviceName).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Asset{}, false, nil
	}
	if err != nil {
		return domain.Asset{}, false, err
	}
	return assetToDomain(m), true, nil
}

// SaveAsset creates the asset or updates the one with the same device name.
// asset.ID is set to the stored ID.
func (a *SQLiteAdapter) SaveAsset(ctx context.Context, asset *domain.Asset) error {
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now().UTC()
	}
	model := assetToModel(*asset)

	db := a.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"application_name", "operating_system", "os_version", "contact"}),
	}).Create(&model).Error
	if err != nil {
		return err
	}

	var stored AssetModel
	if err := db.Where("device_name = ?", asset.DeviceName).First(&stored).Error; err != nil {
		return err
	}
	asset.ID = stored.ID
	asset.CreatedAt = stored.CreatedAt
	return nil
}

// ListPlatforms returns the canonical platforms in insertion order.
func (a *SQLiteAdapter) ListPlatforms(ctx context.Context) ([]domain.CanonicalPlatform, error) {
	var models []PlatformModel
	if err := a.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	platforms := make([]domain.CanonicalPlatform, len(models))
	for i, m := range models {
		platforms[i] = platformToDomain(m)
	}
	return platforms, nil
}

// SavePlatform inserts the platform or replaces its aliases.
func (a *SQLiteAdapter) SavePlatform(ctx context.Context, platform domain.CanonicalPlatform) error {
	model := PlatformModel{
		Name:    platform.Name,
		Aliases: datatypes.JSONSlice[string](platform.Aliases),
	}
	return a.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"aliases"}),
	}).Create(&model).Error
}
