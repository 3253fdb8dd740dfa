package seed

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
	"github.com/lcalzada-xor/assetvuln/internal/core/ports"
)

// Files names the seed files to import. Empty paths are skipped.
type Files struct {
	Platforms string
	Criteria  string
	Assets    string
}

// Result counts the entries of one seed file.
type Result struct {
	Loaded int
	Failed int
}

// Loader imports reference data and inventory from JSON files.
type Loader struct {
	store    ports.SeedStore
	validate *validator.Validate
}

// NewLoader creates a new seed loader.
func NewLoader(store ports.SeedStore) *Loader {
	v := validator.New()
	v.RegisterStructValidation(validateCriterion, domain.MatchCriterion{})
	return &Loader{store: store, validate: v}
}

// validateCriterion rejects malformed CPE 2.3 names. Criteria in other
// formats are passed through.
func validateCriterion(sl validator.StructLevel) {
	c := sl.Current().Interface().(domain.MatchCriterion)
	if strings.HasPrefix(c.Criteria, "cpe:") && !domain.IsValidCPE(c.Criteria) {
		sl.ReportError(c.Criteria, "Criteria", "criteria", "cpe", "")
	}
}

// Load imports every configured file. Platforms are loaded before criteria
// so catalog order follows the platforms file.
func (l *Loader) Load(ctx context.Context, files Files) error {
	steps := []struct {
		path string
		load func(context.Context, io.Reader) (Result, error)
	}{
		{files.Platforms, l.LoadPlatforms},
		{files.Criteria, l.LoadCriteria},
		{files.Assets, l.LoadAssets},
	}
	for _, step := range steps {
		if step.path == "" {
			continue
		}
		if err := l.loadFile(ctx, step.path, step.load); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) loadFile(ctx context.Context, path string, load func(context.Context, io.Reader) (Result, error)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to read seed file")
	}
	defer f.Close()

	res, err := load(ctx, f)
	if err != nil {
		return errors.Wrapf(err, "seed file %s", path)
	}
	slog.Info("seed file loaded", "file", path, "loaded", res.Loaded, "failed", res.Failed)
	return nil
}

// LoadPlatforms imports a JSON array of canonical platforms.
func (l *Loader) LoadPlatforms(ctx context.Context, r io.Reader) (Result, error) {
	var platforms []domain.CanonicalPlatform
	if err := json.NewDecoder(r).Decode(&platforms); err != nil {
		return Result{}, errors.Wrap(err, "failed to parse platforms")
	}
	return importAll(ctx, l, platforms, func(p domain.CanonicalPlatform) string { return p.Name }, l.store.SavePlatform)
}

// LoadCriteria imports a JSON array of {"criteria", "assetName"} objects.
func (l *Loader) LoadCriteria(ctx context.Context, r io.Reader) (Result, error) {
	var entries []criterionEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return Result{}, errors.Wrap(err, "failed to parse criteria")
	}
	criteria := make([]domain.MatchCriterion, len(entries))
	for i, e := range entries {
		criteria[i] = e.criterion()
	}
	return importAll(ctx, l, criteria, func(c domain.MatchCriterion) string { return c.Criteria }, l.store.SaveCriterion)
}

// LoadAssets imports a JSON array of assets. Existing device names are updated.
func (l *Loader) LoadAssets(ctx context.Context, r io.Reader) (Result, error) {
	var assets []domain.Asset
	if err := json.NewDecoder(r).Decode(&assets); err != nil {
		return Result{}, errors.Wrap(err, "failed to parse assets")
	}
	save := func(ctx context.Context, a domain.Asset) error { return l.store.SaveAsset(ctx, &a) }
	return importAll(ctx, l, assets, func(a domain.Asset) string { return a.DeviceName }, save)
}

// importAll validates and saves every entry. Invalid or failing entries are
// logged and counted; the import goes on.
func importAll[T any](ctx context.Context, l *Loader, entries []T, key func(T) string, save func(context.Context, T) error) (Result, error) {
	var res Result
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := l.validate.Struct(e); err != nil {
			slog.Warn("invalid seed entry", "key", key(e), "err", err)
			res.Failed++
			continue
		}
		if err := save(ctx, e); err != nil {
			slog.Error("failed to save seed entry", "key", key(e), "err", err)
			res.Failed++
			continue
		}
		res.Loaded++
	}
	return res, nil
}

// criterionEntry accepts both the current and the legacy spreadsheet key
// for the platform name.
type criterionEntry struct {
	Criteria        string `json:"criteria"`
	AssetName       string `json:"assetName"`
	LegacyAssetName string `json:"Asset Name"`
}

func (e criterionEntry) criterion() domain.MatchCriterion {
	name := e.AssetName
	if name == "" {
		name = e.LegacyAssetName
	}
	return domain.MatchCriterion{Criteria: e.Criteria, AssetName: name}
}
