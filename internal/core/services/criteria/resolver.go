package criteria

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
	"github.com/lcalzada-xor/assetvuln/internal/core/ports"
)

const (
	// VersionLimit caps the number of "<platform> <version>" criteria.
	VersionLimit = 5
	// MaxCriteria caps the resolved list, OS-only criterion included.
	MaxCriteria = VersionLimit + 1
)

// Resolver implements ports.CriteriaResolver.
type Resolver struct {
	store ports.CriteriaStore
}

var _ ports.CriteriaResolver = (*Resolver)(nil)

func NewResolver(store ports.CriteriaStore) *Resolver {
	return &Resolver{store: store}
}

// ResolveCriteria returns the criteria to query for a canonical platform:
// the OS-only criterion first, then up to VersionLimit version criteria.
// A platform without an OS-only criterion resolves to nothing, so no source
// lookups are made for it.
func (r *Resolver) ResolveCriteria(ctx context.Context, canonicalName, version string) ([]domain.MatchCriterion, error) {
	canonicalName = strings.TrimSpace(canonicalName)
	version = strings.TrimSpace(version)
	if canonicalName == "" {
		return nil, nil
	}

	osOnly, ok, err := r.store.FindOSCriterion(ctx, canonicalName)
	if err != nil {
		return nil, errors.Wrapf(err, "find OS criterion for %q", canonicalName)
	}
	if !ok {
		return nil, nil
	}

	result := []domain.MatchCriterion{osOnly}
	if version == "" {
		return result, nil
	}

	versioned, err := r.store.FindVersionCriteria(ctx, canonicalName, version, VersionLimit)
	if err != nil {
		return nil, errors.Wrapf(err, "find version criteria for %q %q", canonicalName, version)
	}

	if len(versioned) == 0 {
		words := strings.Fields(canonicalName + " " + version)
		versioned, err = r.store.FindPartialCriteria(ctx, words, VersionLimit)
		if err != nil {
			return nil, errors.Wrapf(err, "find partial criteria for %v", words)
		}
	}

	seen := map[string]bool{osOnly.Criteria: true}
	for _, c := range versioned {
		if len(result) == MaxCriteria {
			break
		}
		if seen[c.Criteria] {
			continue
		}
		seen[c.Criteria] = true
		result = append(result, c)
	}
	return result, nil
}
