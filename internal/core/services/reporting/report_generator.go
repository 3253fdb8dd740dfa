package reporting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
	"github.com/lcalzada-xor/assetvuln/internal/core/ports"
)

// DefaultTopN is the number of vulnerabilities listed in a report.
const DefaultTopN = 10

// ReportGenerator assembles vulnerability reports from the store.
type ReportGenerator struct {
	reader ports.VulnerabilityReader
	now    func() time.Time
	topN   int
}

// NewReportGenerator creates a new report generator
func NewReportGenerator(reader ports.VulnerabilityReader, topN int) *ReportGenerator {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &ReportGenerator{reader: reader, now: time.Now, topN: topN}
}

// Generate builds a report of the current state of the store.
func (g *ReportGenerator) Generate(ctx context.Context) (domain.VulnerabilityReport, error) {
	report := domain.VulnerabilityReport{
		ID:          uuid.NewString(),
		Title:       "Asset Vulnerability Report",
		GeneratedAt: g.now().UTC(),
	}

	statuses, err := g.reader.AssetsWithStatus(ctx)
	if err != nil {
		return report, errors.Wrap(err, "failed to list assets")
	}
	report.AssetCount = len(statuses)
	for _, s := range statuses {
		if s.Vulnerable {
			report.VulnerableAssets++
		}
	}

	if report.Totals, err = g.reader.RiskSummary(ctx); err != nil {
		return report, errors.Wrap(err, "failed to summarize risk")
	}
	if report.ByOS, err = g.reader.OSSummary(ctx); err != nil {
		return report, errors.Wrap(err, "failed to summarize operating systems")
	}
	if report.Top, err = g.reader.TopVulnerabilities(ctx, g.topN); err != nil {
		return report, errors.Wrap(err, "failed to fetch top vulnerabilities")
	}
	return report, nil
}
