package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/lcalzada-xor/assetvuln/internal/adapters/nvd"
	pdf "github.com/lcalzada-xor/assetvuln/internal/adapters/reporting"
	"github.com/lcalzada-xor/assetvuln/internal/adapters/seed"
	"github.com/lcalzada-xor/assetvuln/internal/adapters/storage"
	"github.com/lcalzada-xor/assetvuln/internal/adapters/web/handlers"
	webserver "github.com/lcalzada-xor/assetvuln/internal/adapters/web/server"
	"github.com/lcalzada-xor/assetvuln/internal/adapters/web/websocket"
	"github.com/lcalzada-xor/assetvuln/internal/config"
	"github.com/lcalzada-xor/assetvuln/internal/core/services/criteria"
	"github.com/lcalzada-xor/assetvuln/internal/core/services/ingest"
	"github.com/lcalzada-xor/assetvuln/internal/core/services/normalize"
	"github.com/lcalzada-xor/assetvuln/internal/core/services/reconcile"
	"github.com/lcalzada-xor/assetvuln/internal/core/services/reporting"
	"github.com/lcalzada-xor/assetvuln/internal/core/services/schedule"
	"github.com/lcalzada-xor/assetvuln/internal/core/services/scoring"
	"github.com/lcalzada-xor/assetvuln/internal/telemetry"
)

// Application holds the core components of the application.
// It acts as the Facade for the entire system, wiring services to infrastructure.
type Application struct {
	Config     *config.Config
	Store      *storage.SQLiteAdapter
	Source     *nvd.Client
	Hub        *websocket.Hub
	Normalizer *normalize.Service
	Reconciler *reconcile.Orchestrator
	Scheduler  *schedule.Scheduler
	Seeder     *seed.Loader
	Reports    *reporting.ReportGenerator
	Exporter   *pdf.PDFExporter

	shutdownTracer func(context.Context) error
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config: cfg,
	}

	if err := app.bootstrap(); err != nil {
		return nil, errors.Wrap(err, "application bootstrap failed")
	}

	return app, nil
}

// bootstrap orchestrates the initialization sequence.
func (app *Application) bootstrap() error {
	// 1. Foundation & Infrastructure
	telemetry.InitMetrics()

	if app.Config.Trace {
		shutdown, err := telemetry.InitTracer(os.Stdout)
		if err != nil {
			return errors.Wrap(err, "failed to init tracer")
		}
		app.shutdownTracer = shutdown
	}

	if err := app.initStorage(); err != nil {
		return err
	}

	// 2. Adapters
	app.Source = nvd.NewClient(nvd.Config{
		BaseURL: app.Config.NVDURL,
		APIKey:  app.Config.NVDAPIKey,
		Retry: nvd.RetryPolicy{
			MaxAttempts: app.Config.RetryAttempts,
			Delay:       app.Config.RetryDelay,
			Retryable:   nvd.RetryOnUnavailable,
		},
		Timeout: app.Config.RequestTimeout,
		Limiter: app.limiter(),
	})
	app.Hub = websocket.NewHub(app.Config.AllowedOrigins)
	app.Seeder = seed.NewLoader(app.Store)
	app.Exporter = pdf.NewPDFExporter()

	// 3. Domain Services
	app.Normalizer = normalize.NewService(app.Store, normalize.Config{Threshold: app.Config.SimilarityThreshold})
	engine := ingest.NewEngine(app.Store, app.Store, app.Hub, scoring.NewScorer())
	app.Reconciler = reconcile.NewOrchestrator(
		app.Store,
		app.Normalizer,
		criteria.NewResolver(app.Store),
		app.Source,
		engine,
		reconcile.SleepPacer{},
		reconcile.Config{
			PacingDelay: app.Config.PacingDelay,
			BatchSize:   app.Config.BatchSize,
			Concurrency: app.Config.Concurrency,
		},
	)
	app.Scheduler = schedule.NewScheduler(app.Reconciler, app.Store, schedule.Config{
		Interval:        app.Config.ScheduleInterval,
		RunOnStart:      app.Config.RunOnStart,
		NotificationTTL: app.Config.NotificationTTL,
	})
	app.Reports = reporting.NewReportGenerator(app.Store, reporting.DefaultTopN)

	return nil
}

func (app *Application) initStorage() error {
	if err := os.MkdirAll(filepath.Dir(app.Config.DBPath), 0755); err != nil {
		return errors.Wrap(err, "failed to create DB directory")
	}

	var opts []storage.Option
	if app.Config.Trace {
		opts = append(opts, storage.WithTracing())
	}
	if app.Config.Debug {
		opts = append(opts, storage.WithDebug())
	}
	store, err := storage.NewSQLiteAdapter(app.Config.DBPath, opts...)
	if err != nil {
		return errors.Wrap(err, "failed to init storage")
	}
	app.Store = store
	return nil
}

func (app *Application) limiter() *rate.Limiter {
	if app.Config.RequestInterval > 0 {
		return rate.NewLimiter(rate.Every(app.Config.RequestInterval), 1)
	}
	return nvd.DefaultLimiter(app.Config.NVDAPIKey != "")
}

// Serve runs the web server and the scheduler until ctx is cancelled.
func (app *Application) Serve(ctx context.Context) error {
	slog.Info("starting assetvuln", "addr", app.Config.Addr, "db", app.Config.DBPath)

	srv := webserver.NewServer(app.Config.Addr,
		app.Hub,
		handlers.NewCVEHandler(ctx, app.Reconciler),
		handlers.NewVulnerabilityHandler(app.Store, app.Store, app.Store),
		handlers.NewReportHandler(app.Reports, app.Exporter),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Run(gctx); err != nil {
			return errors.Wrap(err, "web server error")
		}
		return nil
	})
	g.Go(func() error {
		_ = app.Scheduler.Run(gctx)
		return nil
	})

	err := g.Wait()
	if ctx.Err() != nil {
		slog.Info("termination signal received")
	}
	return err
}

// Seed imports reference data and assets, then drops cached normalizations.
func (app *Application) Seed(ctx context.Context, files seed.Files) error {
	if err := app.Seeder.Load(ctx, files); err != nil {
		return err
	}
	app.Normalizer.Purge()
	return nil
}

// WriteReport renders the PDF report to w.
func (app *Application) WriteReport(ctx context.Context, w io.Writer) error {
	report, err := app.Reports.Generate(ctx)
	if err != nil {
		return err
	}
	data, err := app.Exporter.ExportVulnerabilityReport(report)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Purge deletes notifications past the retention period.
func (app *Application) Purge(ctx context.Context) (int64, error) {
	return app.Scheduler.Purge(ctx)
}

// Close releases storage and flushes traces.
func (app *Application) Close(ctx context.Context) error {
	var errs []error
	if app.shutdownTracer != nil {
		if err := app.shutdownTracer(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
