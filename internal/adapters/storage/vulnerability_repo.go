package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
)

// UpsertRecord creates the record, or replaces the stored copy when the
// incoming lastModified is newer.
func (a *SQLiteAdapter) UpsertRecord(ctx context.Context, record domain.VulnerabilityRecord) error {
	incoming := recordToModel(record)

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored CVEModel
		err := tx.Where("id = ?", record.ID).First(&stored).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&incoming).Error
		}
		if err != nil {
			return err
		}
		if !incoming.LastModified.After(stored.LastModified) {
			return nil
		}
		return tx.Save(&incoming).Error
	})
}

// ExistsRecord reports whether a record with this id is stored.
func (a *SQLiteAdapter) ExistsRecord(ctx context.Context, cveID string) (bool, error) {
	var count int64
	err := a.db.WithContext(ctx).Model(&CVEModel{}).Where("id = ?", cveID).Count(&count).Error
	return count > 0, err
}

// GetRecord returns a stored raw record.
func (a *SQLiteAdapter) GetRecord(ctx context.Context, cveID string) (domain.VulnerabilityRecord, error) {
	var m CVEModel
	err := a.db.WithContext(ctx).Where("id = ?", cveID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.VulnerabilityRecord{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.VulnerabilityRecord{}, err
	}
	return recordToDomain(m), nil
}

// UpsertAssetVulnerability inserts the link unless (asset, cve) is already
// stored. The unique index makes the check and insert atomic.
func (a *SQLiteAdapter) UpsertAssetVulnerability(ctx context.Context, av domain.AssetVulnerability) (bool, error) {
	model := vulnerabilityToModel(av)
	res := a.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset_id"}, {Name: "cve_id"}},
		DoNothing: true,
	}).Create(&model)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ExistsAssetVulnerability reports whether the asset is linked to the CVE.
func (a *SQLiteAdapter) ExistsAssetVulnerability(ctx context.Context, assetID, cveID string) (bool, error) {
	var count int64
	err := a.db.WithContext(ctx).Model(&AssetVulnerabilityModel{}).
		Where("asset_id = ? AND cve_id = ?", assetID, cveID).
		Count(&count).Error
	return count > 0, err
}
