package ports

import (
	"context"
	"time"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
)

// NotificationSink broadcasts notifications to connected listeners.
// Delivery is best-effort and unordered.
type NotificationSink interface {
	Publish(ctx context.Context, event domain.NotificationEvent) error
}

// Normalizer maps a free-text operating system to a canonical platform name.
type Normalizer interface {
	Normalize(ctx context.Context, rawOS, rawVersion string) (canonical string, matched bool, err error)
}

// CriteriaResolver turns a canonical platform and version into the ordered
// list of criteria to query the vulnerability source with.
type CriteriaResolver interface {
	ResolveCriteria(ctx context.Context, canonicalName, version string) ([]domain.MatchCriterion, error)
}

// Scorer extracts the preferred CVSS score of a record.
type Scorer interface {
	// Score returns ok=false when the record carries no supported scoring.
	Score(record domain.VulnerabilityRecord) (score float64, version string, ok bool)
	RiskLevel(score float64, version string, ok bool) domain.RiskLevel
	AttackVector(record domain.VulnerabilityRecord) string
}

// Ingestor decides whether a record is new for an asset and persists it.
type Ingestor interface {
	Ingest(ctx context.Context, asset domain.Asset, record domain.VulnerabilityRecord, criteriaUsed []string) (created bool, err error)
}

// Pacer blocks for a mandatory delay. It returns early only with ctx.Err().
type Pacer interface {
	Wait(ctx context.Context, d time.Duration) error
}

// Reconciler is the entry point used by triggers (HTTP, CLI, scheduler).
type Reconciler interface {
	ReconcileAll(ctx context.Context)
	ReconcileDevice(ctx context.Context, deviceName string) error
}
