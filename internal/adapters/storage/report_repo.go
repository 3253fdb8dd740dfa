package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
)

// ListVulnerabilities returns one page of asset vulnerabilities matching the
// filter, most recently published first.
func (a *SQLiteAdapter) ListVulnerabilities(ctx context.Context, filter domain.VulnerabilityFilter) (domain.Page[domain.AssetVulnerability], error) {
	page := domain.Page[domain.AssetVulnerability]{Page: filter.Page, Limit: filter.Limit}
	if err := filter.Validate(); err != nil {
		return page, err
	}

	query := a.db.WithContext(ctx).Model(&AssetVulnerabilityModel{})

	// Apply filters dynamically
	if filter.OperatingSystem != "" {
		query = query.Where("operating_system = ?", filter.OperatingSystem)
	}
	if filter.OSVersion != "" {
		query = query.Where("os_version = ?", filter.OSVersion)
	}
	if filter.RiskLevel != "" {
		query = query.Where("risk_level = ?", string(filter.RiskLevel))
	}
	if filter.Keyword != "" {
		kw := "%" + escapeLike(strings.ToLower(filter.Keyword)) + "%"
		query = query.Where(
			"LOWER(operating_system) LIKE ? ESCAPE '\\' OR LOWER(device_name) LIKE ? ESCAPE '\\' OR LOWER(os_version) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\'",
			kw, kw, kw, kw,
		)
	}

	if err := query.Count(&page.TotalCount).Error; err != nil {
		return page, err
	}

	var models []AssetVulnerabilityModel
	err := query.Order("published desc, id").Offset(filter.Offset()).Limit(filter.Limit).Find(&models).Error
	if err != nil {
		return page, err
	}
	page.Items = vulnerabilitiesToDomain(models)
	return page, nil
}

// GetVulnerability returns the first stored link of a CVE.
func (a *SQLiteAdapter) GetVulnerability(ctx context.Context, cveID string) (domain.AssetVulnerability, error) {
	var m AssetVulnerabilityModel
	err := a.db.WithContext(ctx).Where("cve_id = ?", cveID).Order("id").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.AssetVulnerability{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.AssetVulnerability{}, err
	}
	return vulnerabilityToDomain(m), nil
}

// TopVulnerabilities returns the highest scored links, unscored last.
func (a *SQLiteAdapter) TopVulnerabilities(ctx context.Context, limit int) ([]domain.AssetVulnerability, error) {
	var models []AssetVulnerabilityModel
	err := a.db.WithContext(ctx).
		Order("cvss_score IS NULL, cvss_score desc, published desc, id").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return vulnerabilitiesToDomain(models), nil
}

// RiskSummary counts links per risk tier, largest first.
func (a *SQLiteAdapter) RiskSummary(ctx context.Context) ([]domain.RiskCount, error) {
	var rows []domain.RiskCount
	err := a.db.WithContext(ctx).Model(&AssetVulnerabilityModel{}).
		Select("risk_level, COUNT(*) AS count").
		Group("risk_level").
		Order("count desc, risk_level").
		Scan(&rows).Error
	return rows, err
}

// OSSummary counts links per operating system, largest first.
func (a *SQLiteAdapter) OSSummary(ctx context.Context) ([]domain.OSCount, error) {
	var rows []domain.OSCount
	err := a.db.WithContext(ctx).Model(&AssetVulnerabilityModel{}).
		Select("operating_system, COUNT(*) AS count").
		Group("operating_system").
		Order("count desc, operating_system").
		Scan(&rows).Error
	return rows, err
}

// CWEBreakdown counts links per referenced CWE, largest first.
func (a *SQLiteAdapter) CWEBreakdown(ctx context.Context) ([]domain.CWECount, error) {
	var columns []datatypes.JSONSlice[domain.Weakness]
	if err := a.db.WithContext(ctx).Model(&AssetVulnerabilityModel{}).Pluck("weaknesses", &columns).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, c := range columns {
		rec := domain.VulnerabilityRecord{Weaknesses: c}
		for _, cwe := range rec.CWEs() {
			counts[cwe]++
		}
	}

	rows := make([]domain.CWECount, 0, len(counts))
	for cwe, n := range counts {
		rows = append(rows, domain.CWECount{CWE: cwe, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].CWE < rows[j].CWE
	})
	return rows, nil
}

// VulnerabilitiesPerYear counts links per publication year, oldest first.
func (a *SQLiteAdapter) VulnerabilitiesPerYear(ctx context.Context) ([]domain.YearCount, error) {
	var published []time.Time
	err := a.db.WithContext(ctx).Model(&AssetVulnerabilityModel{}).Pluck("published", &published).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int64)
	for _, t := range published {
		if t.IsZero() {
			continue
		}
		counts[t.UTC().Year()]++
	}

	rows := make([]domain.YearCount, 0, len(counts))
	for year, n := range counts {
		rows = append(rows, domain.YearCount{Year: year, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Year < rows[j].Year })
	return rows, nil
}

// AssetsWithStatus lists every asset and whether it has any vulnerability.
func (a *SQLiteAdapter) AssetsWithStatus(ctx context.Context) ([]domain.AssetStatus, error) {
	assets, err := a.ListAssets(ctx)
	if err != nil {
		return nil, err
	}

	var vulnerable []string
	err = a.db.WithContext(ctx).Model(&AssetVulnerabilityModel{}).Distinct().Pluck("asset_id", &vulnerable).Error
	if err != nil {
		return nil, err
	}
	hit := make(map[string]bool, len(vulnerable))
	for _, id := range vulnerable {
		hit[id] = true
	}

	out := make([]domain.AssetStatus, len(assets))
	for i, asset := range assets {
		out[i] = domain.AssetStatus{Asset: asset, Vulnerable: hit[asset.ID]}
	}
	return out, nil
}
