package ports

import (
	"context"
	"time"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
)

// AssetSource is the read-only view of the asset inventory.
type AssetSource interface {
	ListAssets(ctx context.Context) ([]domain.Asset, error)
	// GetAsset looks an asset up by device name.
	GetAsset(ctx context.Context, deviceName string) (domain.Asset, bool, error)
}

// PlatformCatalog lists canonical platforms in stable first-seen order.
type PlatformCatalog interface {
	ListPlatforms(ctx context.Context) ([]domain.CanonicalPlatform, error)
}

// CriteriaStore queries recorded platform-match criteria. All name
// comparisons are case-insensitive.
type CriteriaStore interface {
	// FindOSCriterion returns the criterion recorded for exactly this platform name.
	FindOSCriterion(ctx context.Context, name string) (domain.MatchCriterion, bool, error)
	// FindVersionCriteria returns criteria recorded for exactly "<name> <version>".
	FindVersionCriteria(ctx context.Context, name, version string, limit int) ([]domain.MatchCriterion, error)
	// FindPartialCriteria returns criteria whose asset name contains any of the words.
	FindPartialCriteria(ctx context.Context, words []string, limit int) ([]domain.MatchCriterion, error)
}

// NotificationStore persists notification events.
type NotificationStore interface {
	// PersistIfNew stores the event unless one with the same message exists.
	PersistIfNew(ctx context.Context, event domain.NotificationEvent) (created bool, err error)
	ListNotifications(ctx context.Context, limit int) ([]domain.NotificationEvent, error)
	PurgeNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SeedStore receives reference data and inventory imports.
type SeedStore interface {
	SavePlatform(ctx context.Context, platform domain.CanonicalPlatform) error
	SaveCriterion(ctx context.Context, criterion domain.MatchCriterion) error
	SaveAsset(ctx context.Context, asset *domain.Asset) error
}
