package ports

import (
	"context"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
)

// VulnerabilitySource fetches vulnerability records from the external database.
type VulnerabilitySource interface {
	// FetchByCriterion returns every record applicable to one platform-match string.
	FetchByCriterion(ctx context.Context, criterion string) ([]domain.VulnerabilityRecord, error)
}

// VulnerabilityStore persists raw records and asset vulnerability links.
type VulnerabilityStore interface {
	// UpsertRecord creates the record or refreshes it when the incoming copy
	// has a newer lastModified.
	UpsertRecord(ctx context.Context, record domain.VulnerabilityRecord) error
	ExistsRecord(ctx context.Context, cveID string) (bool, error)

	// UpsertAssetVulnerability inserts the link unless one already exists for
	// (AssetID, CVEID). created is false when the link was already there.
	UpsertAssetVulnerability(ctx context.Context, av domain.AssetVulnerability) (created bool, err error)
	ExistsAssetVulnerability(ctx context.Context, assetID, cveID string) (bool, error)
}

// VulnerabilityReader answers the reporting queries.
type VulnerabilityReader interface {
	ListVulnerabilities(ctx context.Context, filter domain.VulnerabilityFilter) (domain.Page[domain.AssetVulnerability], error)
	GetVulnerability(ctx context.Context, cveID string) (domain.AssetVulnerability, error)
	TopVulnerabilities(ctx context.Context, limit int) ([]domain.AssetVulnerability, error)
	RiskSummary(ctx context.Context) ([]domain.RiskCount, error)
	OSSummary(ctx context.Context) ([]domain.OSCount, error)
	CWEBreakdown(ctx context.Context) ([]domain.CWECount, error)
	VulnerabilitiesPerYear(ctx context.Context) ([]domain.YearCount, error)
	AssetsWithStatus(ctx context.Context) ([]domain.AssetStatus, error)
}
