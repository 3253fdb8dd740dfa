package normalize

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
	"github.com/lcalzada-xor/assetvuln/internal/core/ports"
)

// DefaultThreshold is the minimum fuzzy similarity accepted when no
// canonical name shares a word with the raw operating system.
const DefaultThreshold = 0.4

const (
	defaultCacheSize = 512
	defaultCacheTTL  = 10 * time.Minute
)

// Config tunes a Service.
type Config struct {
	Threshold float64
	CacheSize int
	CacheTTL  time.Duration
}

// Service implements ports.Normalizer against a PlatformCatalog.
// Successful matches are cached per raw operating system.
type Service struct {
	catalog   ports.PlatformCatalog
	threshold float64
	cache     *expirable.LRU[string, string]
}

var _ ports.Normalizer = (*Service)(nil)

// NewService creates a normalizer. Zero config values fall back to defaults.
func NewService(catalog ports.PlatformCatalog, cfg Config) *Service {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	return &Service{
		catalog:   catalog,
		threshold: cfg.Threshold,
		cache:     expirable.NewLRU[string, string](cfg.CacheSize, nil, cfg.CacheTTL),
	}
}

// Normalize maps rawOS to a canonical platform name. An empty OS or version
// is a miss without any catalog access. The returned error is only set when
// the catalog itself could not be read.
func (s *Service) Normalize(ctx context.Context, rawOS, rawVersion string) (string, bool, error) {
	rawOS = strings.TrimSpace(rawOS)
	if rawOS == "" || strings.TrimSpace(rawVersion) == "" {
		return "", false, nil
	}

	key := strings.ToLower(rawOS)
	if name, ok := s.cache.Get(key); ok {
		return name, true, nil
	}

	platforms, err := s.catalog.ListPlatforms(ctx)
	if err != nil {
		return "", false, errors.Wrap(err, "could not list canonical platforms")
	}
	if len(platforms) == 0 {
		return "", false, nil
	}

	name, ok := s.match(rawOS, platforms)
	if ok {
		s.cache.Add(key, name)
	}
	return name, ok, nil
}

// Purge drops cached matches, e.g. after the catalog was reseeded.
func (s *Service) Purge() {
	s.cache.Purge()
}

func (s *Service) match(rawOS string, platforms []domain.CanonicalPlatform) (string, bool) {
	// Word overlap: highest count wins, first platform wins ties.
	bestCount := 0
	var best string
	for _, p := range platforms {
		for _, n := range p.Names() {
			if c := overlap(n, rawOS); c > bestCount {
				bestCount = c
				best = p.Name
			}
		}
	}
	if bestCount > 0 {
		return best, true
	}

	bestScore := -1.0
	for _, p := range platforms {
		for _, n := range p.Names() {
			if score := Similarity(n, rawOS); score > bestScore {
				bestScore = score
				best = p.Name
			}
		}
	}
	if bestScore >= s.threshold {
		slog.Debug("Fuzzy platform match", "os", rawOS, "platform", best, "similarity", bestScore)
		return best, true
	}
	return "", false
}
