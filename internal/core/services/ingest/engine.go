package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
	"github.com/lcalzada-xor/assetvuln/internal/core/ports"
	"github.com/lcalzada-xor/assetvuln/internal/telemetry"
)

// Engine implements ports.Ingestor. It is the only writer of asset
// vulnerabilities and notifications.
type Engine struct {
	store         ports.VulnerabilityStore
	notifications ports.NotificationStore
	sink          ports.NotificationSink
	scorer        ports.Scorer
	now           func() time.Time
}

var _ ports.Ingestor = (*Engine)(nil)

func NewEngine(store ports.VulnerabilityStore, notifications ports.NotificationStore, sink ports.NotificationSink, scorer ports.Scorer) *Engine {
	return &Engine{
		store:         store,
		notifications: notifications,
		sink:          sink,
		scorer:        scorer,
		now:           time.Now,
	}
}

// Ingest stores record if unknown and links it to asset. created is true only
// when the link did not exist before. Storage failures are returned wrapping
// domain.ErrStorage. A failed broadcast is logged and does not undo anything.
func (e *Engine) Ingest(ctx context.Context, asset domain.Asset, record domain.VulnerabilityRecord, criteriaUsed []string) (bool, error) {
	exists, err := e.store.ExistsRecord(ctx, record.ID)
	if err != nil {
		return e.fail(errors.Wrapf(domain.ErrStorage, "check record %s: %v", record.ID, err))
	}
	if !exists {
		if err := e.store.UpsertRecord(ctx, record); err != nil {
			return e.fail(errors.Wrapf(domain.ErrStorage, "upsert record %s: %v", record.ID, err))
		}
	}

	linked, err := e.store.ExistsAssetVulnerability(ctx, asset.ID, record.ID)
	if err != nil {
		return e.fail(errors.Wrapf(domain.ErrStorage, "check %s for asset %s: %v", record.ID, asset.ID, err))
	}
	if linked {
		telemetry.Ingested.WithLabelValues("existing").Inc()
		return false, nil
	}

	created, err := e.store.UpsertAssetVulnerability(ctx, e.snapshot(asset, record, criteriaUsed))
	if err != nil {
		return e.fail(errors.Wrapf(domain.ErrStorage, "link %s to asset %s: %v", record.ID, asset.ID, err))
	}
	if !created {
		// Linked concurrently since the existence check.
		telemetry.Ingested.WithLabelValues("existing").Inc()
		return false, nil
	}
	telemetry.Ingested.WithLabelValues("created").Inc()

	return true, e.notify(ctx, asset, record.ID)
}

func (e *Engine) fail(err error) (bool, error) {
	telemetry.Ingested.WithLabelValues("error").Inc()
	return false, err
}

func (e *Engine) notify(ctx context.Context, asset domain.Asset, cveID string) error {
	event := domain.NotificationEvent{
		ID:        uuid.NewString(),
		Type:      domain.NotificationTypeNewCVE,
		Message:   domain.NewCVEMessage(asset.DeviceName, cveID),
		AssetID:   asset.ID,
		CVEID:     cveID,
		CreatedAt: e.now().UTC(),
	}

	isNew, err := e.notifications.PersistIfNew(ctx, event)
	if err != nil {
		telemetry.Notifications.WithLabelValues("store_error").Inc()
		return errors.Wrapf(domain.ErrStorage, "persist notification for %s: %v", cveID, err)
	}
	if !isNew {
		telemetry.Notifications.WithLabelValues("duplicate").Inc()
		return nil
	}

	if err := e.sink.Publish(ctx, event); err != nil {
		telemetry.Notifications.WithLabelValues("publish_error").Inc()
		slog.Warn("Failed to publish notification",
			"asset", asset.DeviceName, "cve", cveID, "error", errors.Wrap(domain.ErrNotificationPublish, err.Error()))
		return nil
	}
	telemetry.Notifications.WithLabelValues("published").Inc()
	return nil
}

func (e *Engine) snapshot(asset domain.Asset, record domain.VulnerabilityRecord, criteriaUsed []string) domain.AssetVulnerability {
	score, version, ok := e.scorer.Score(record)

	av := domain.AssetVulnerability{
		AssetID:         asset.ID,
		DeviceName:      asset.DeviceName,
		ApplicationName: asset.ApplicationName,
		OperatingSystem: asset.OperatingSystem,
		OSVersion:       asset.OSVersion,
		CVEID:           record.ID,
		VulnStatus:      record.VulnStatus,
		Descriptions:    record.Descriptions,
		Configurations:  record.ConfigurationMatches(),
		Weaknesses:      record.Weaknesses,
		RiskLevel:       e.scorer.RiskLevel(score, version, ok),
		CVSSVersion:     version,
		AttackVector:    e.scorer.AttackVector(record),
		CPENamesUsed:    append([]string(nil), criteriaUsed...),
		CreatedAt:       e.now().UTC(),
	}
	if ok {
		av.CVSSScore = &score
	}
	if t, ok := domain.ParseNVDTime(record.Published); ok {
		av.Published = t
	}
	if t, ok := domain.ParseNVDTime(record.LastModified); ok {
		av.LastModified = t
	}
	return av
}
