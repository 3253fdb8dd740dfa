package storage

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
)

// FindOSCriterion returns the first criterion recorded for exactly name, ignoring case.
func (a *SQLiteAdapter) FindOSCriterion(ctx context.Context, name string) (domain.MatchCriterion, bool, error) {
	var m CriterionModel
	err := a.db.WithContext(ctx).
		Where("LOWER(asset_name) = LOWER(?)", strings.TrimSpace(name)).
		Order("id").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.MatchCriterion{}, false, nil
	}
	if err != nil {
		return domain.MatchCriterion{}, false, err
	}
	return criterionToDomain(m), true, nil
}

// FindVersionCriteria returns criteria recorded for exactly "<name> <version>", ignoring case.
func (a *SQLiteAdapter) FindVersionCriteria(ctx context.Context, name, version string, limit int) ([]domain.MatchCriterion, error) {
	var models []CriterionModel
	err := a.db.WithContext(ctx).
		Where("LOWER(asset_name) = LOWER(?)", strings.TrimSpace(name)+" "+strings.TrimSpace(version)).
		Order("id").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return criteriaToDomain(models), nil
}

// FindPartialCriteria returns criteria whose asset name contains any of the
// words, ignoring case.
func (a *SQLiteAdapter) FindPartialCriteria(ctx context.Context, words []string, limit int) ([]domain.MatchCriterion, error) {
	var conds []string
	var args []any
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		conds = append(conds, "LOWER(asset_name) LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(strings.ToLower(w))+"%")
	}
	if len(conds) == 0 {
		return nil, nil
	}

	var models []CriterionModel
	err := a.db.WithContext(ctx).
		Where(strings.Join(conds, " OR "), args...).
		Order("id").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return criteriaToDomain(models), nil
}

// SaveCriterion inserts the criterion or updates its platform name.
func (a *SQLiteAdapter) SaveCriterion(ctx context.Context, criterion domain.MatchCriterion) error {
	model := CriterionModel{Criteria: criterion.Criteria, AssetName: criterion.AssetName}
	return a.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "criteria"}},
		DoUpdates: clause.AssignmentColumns([]string{"asset_name"}),
	}).Create(&model).Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
