package reconcile

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
	"github.com/lcalzada-xor/assetvuln/internal/core/ports"
	"github.com/lcalzada-xor/assetvuln/internal/telemetry"
)

// Defaults of Config.
const (
	DefaultPacingDelay = 3 * time.Second
	DefaultBatchSize   = 10
)

// Skip reasons reported in Summary.Skipped and the assets_skipped metric.
const (
	SkipIncomplete        = "incomplete"
	SkipNormalizationMiss = "normalization_miss"
	SkipNoCriteria        = "no_criteria"
	SkipStorageError      = "storage_error"
)

type Config struct {
	// PacingDelay is waited after each criterion request and between
	// record batches.
	PacingDelay time.Duration
	BatchSize   int
	// Concurrency is the number of assets reconciled at once by ReconcileAll.
	// Outbound requests stay globally throttled by the source client.
	Concurrency int
}

// Summary describes one asset reconciliation. It is only used for logging.
type Summary struct {
	Asset          string
	Platform       string
	Skipped        string
	Criteria       int
	FailedCriteria int
	Fetched        int
	Created        int
	Existing       int
	Failed         int
}

// Orchestrator runs the reconciliation pipeline:
// normalize, resolve criteria, fetch per criterion, ingest in batches.
type Orchestrator struct {
	assets     ports.AssetSource
	normalizer ports.Normalizer
	resolver   ports.CriteriaResolver
	source     ports.VulnerabilitySource
	ingestor   ports.Ingestor
	pacer      ports.Pacer
	cfg        Config

	running atomic.Bool
}

var _ ports.Reconciler = (*Orchestrator)(nil)

func NewOrchestrator(
	assets ports.AssetSource,
	normalizer ports.Normalizer,
	resolver ports.CriteriaResolver,
	source ports.VulnerabilitySource,
	ingestor ports.Ingestor,
	pacer ports.Pacer,
	cfg Config,
) *Orchestrator {
	if cfg.PacingDelay < 0 {
		cfg.PacingDelay = 0
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if pacer == nil {
		pacer = SleepPacer{}
	}
	return &Orchestrator{
		assets:     assets,
		normalizer: normalizer,
		resolver:   resolver,
		source:     source,
		ingestor:   ingestor,
		pacer:      pacer,
		cfg:        cfg,
	}
}

// ReconcileAll reconciles every asset. Failures are logged per asset and
// never stop the run. A call made while another run is in progress is a no-op.
func (o *Orchestrator) ReconcileAll(ctx context.Context) {
	if !o.running.CompareAndSwap(false, true) {
		slog.Warn("Reconciliation already in progress, skipping")
		return
	}
	defer o.running.Store(false)

	assets, err := o.assets.ListAssets(ctx)
	if err != nil {
		slog.Error("Failed to list assets", "error", err)
		return
	}
	slog.Info("Starting reconciliation", "assets", len(assets), "concurrency", o.cfg.Concurrency)

	var g errgroup.Group
	g.SetLimit(o.cfg.Concurrency)
	for _, asset := range assets {
		if ctx.Err() != nil {
			break
		}
		asset := asset
		g.Go(func() error {
			o.reconcileLogged(ctx, asset)
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("Reconciliation finished", "assets", len(assets), "cancelled", ctx.Err() != nil)
}

// ReconcileDevice reconciles the asset with the given device name.
func (o *Orchestrator) ReconcileDevice(ctx context.Context, deviceName string) error {
	asset, ok, err := o.assets.GetAsset(ctx, deviceName)
	if err != nil {
		return errors.Wrapf(domain.ErrStorage, "get asset %q: %v", deviceName, err)
	}
	if !ok {
		return errors.Wrap(domain.ErrAssetNotFound, deviceName)
	}
	o.reconcileLogged(ctx, asset)
	return nil
}

func (o *Orchestrator) reconcileLogged(ctx context.Context, asset domain.Asset) {
	sum, err := o.ReconcileAsset(ctx, asset)
	if err != nil {
		slog.Warn("Reconciliation interrupted", "asset", asset.DeviceName, "error", err)
	}
	if sum.Skipped != "" {
		return
	}
	slog.Info("Reconciled asset",
		"asset", sum.Asset,
		"platform", sum.Platform,
		"criteria", sum.Criteria,
		"failed_criteria", sum.FailedCriteria,
		"fetched", sum.Fetched,
		"created", sum.Created,
		"existing", sum.Existing,
		"failed", sum.Failed,
	)
}

// ReconcileAsset runs the pipeline for one asset. It is idempotent. The only
// error returned is the context error when the run was cancelled; all other
// failures are contained and logged.
func (o *Orchestrator) ReconcileAsset(ctx context.Context, asset domain.Asset) (Summary, error) {
	ctx, span := otel.Tracer("reconcile-service").Start(ctx, "ReconcileAsset")
	defer span.End()
	span.SetAttributes(
		attribute.String("asset.id", asset.ID),
		attribute.String("asset.device_name", asset.DeviceName),
	)

	start := time.Now()
	defer func() { telemetry.ReconcileDuration.Observe(time.Since(start).Seconds()) }()

	sum := Summary{Asset: asset.DeviceName}

	if !asset.Reconcilable() {
		return o.skip(sum, SkipIncomplete, nil), nil
	}

	platform, ok, err := o.normalizer.Normalize(ctx, asset.OperatingSystem, asset.OSVersion)
	if err != nil {
		return o.skip(sum, SkipStorageError, err), nil
	}
	if !ok {
		return o.skip(sum, SkipNormalizationMiss, errors.Wrap(domain.ErrNormalizationMiss, asset.OperatingSystem)), nil
	}
	sum.Platform = platform
	span.SetAttributes(attribute.String("platform", platform))

	criteria, err := o.resolver.ResolveCriteria(ctx, platform, asset.OSVersion)
	if err != nil {
		return o.skip(sum, SkipStorageError, err), nil
	}
	if len(criteria) == 0 {
		return o.skip(sum, SkipNoCriteria, errors.Wrap(domain.ErrNoCriteria, platform)), nil
	}
	sum.Criteria = len(criteria)

	var used []string
	for i, c := range criteria {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		used = appendUnique(used, c.Criteria)

		records, err := o.source.FetchByCriterion(ctx, c.Criteria)
		if err != nil {
			sum.FailedCriteria++
			slog.Error("Failed to fetch vulnerabilities", "asset", asset.DeviceName, "criterion", c.Criteria, "error", err)
		} else {
			sum.Fetched += len(records)
			if err := o.ingestBatches(ctx, asset, records, used, &sum); err != nil {
				return sum, err
			}
		}

		if i < len(criteria)-1 {
			if err := o.pacer.Wait(ctx, o.cfg.PacingDelay); err != nil {
				return sum, err
			}
		}
	}

	span.SetAttributes(attribute.Int("cve.created", sum.Created))
	return sum, nil
}

func (o *Orchestrator) ingestBatches(ctx context.Context, asset domain.Asset, records []domain.VulnerabilityRecord, used []string, sum *Summary) error {
	for start := 0; start < len(records); start += o.cfg.BatchSize {
		end := min(start+o.cfg.BatchSize, len(records))

		for _, rec := range records[start:end] {
			created, err := o.ingestor.Ingest(ctx, asset, rec, used)
			if err != nil {
				sum.Failed++
				slog.Error("Failed to ingest vulnerability", "asset", asset.DeviceName, "cve", rec.ID, "error", err)
			}
			switch {
			case created:
				sum.Created++
			case err == nil:
				sum.Existing++
			}
		}

		if end < len(records) {
			if err := o.pacer.Wait(ctx, o.cfg.PacingDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

func (o *Orchestrator) skip(sum Summary, reason string, err error) Summary {
	sum.Skipped = reason
	telemetry.AssetsSkipped.WithLabelValues(reason).Inc()
	if reason == SkipStorageError {
		slog.Error("Skipping asset", "asset", sum.Asset, "reason", reason, "error", err)
	} else {
		slog.Info("Skipping asset", "asset", sum.Asset, "reason", reason, "error", err)
	}
	return sum
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
