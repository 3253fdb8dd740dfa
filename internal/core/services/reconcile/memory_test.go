package reconcile

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
)

// memoryStore backs every storage port with maps.
type memoryStore struct {
	mu            sync.Mutex
	assets        []domain.Asset
	platforms     []domain.CanonicalPlatform
	criteria      []domain.MatchCriterion
	records       map[string]domain.VulnerabilityRecord
	links         map[string]domain.AssetVulnerability
	notifications map[string]domain.NotificationEvent
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		records:       make(map[string]domain.VulnerabilityRecord),
		links:         make(map[string]domain.AssetVulnerability),
		notifications: make(map[string]domain.NotificationEvent),
	}
}

func (s *memoryStore) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Asset(nil), s.assets...), nil
}

func (s *memoryStore) GetAsset(ctx context.Context, deviceName string) (domain.Asset, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assets {
		if a.DeviceName == deviceName {
			return a, true, nil
		}
	}
	return domain.Asset{}, false, nil
}

func (s *memoryStore) ListPlatforms(ctx context.Context) ([]domain.CanonicalPlatform, error) {
	return s.platforms, nil
}

func (s *memoryStore) FindOSCriterion(ctx context.Context, name string) (domain.MatchCriterion, bool, error) {
	for _, c := range s.criteria {
		if strings.EqualFold(c.AssetName, name) {
			return c, true, nil
		}
	}
	return domain.MatchCriterion{}, false, nil
}

func (s *memoryStore) FindVersionCriteria(ctx context.Context, name, version string, limit int) ([]domain.MatchCriterion, error) {
	var out []domain.MatchCriterion
	for _, c := range s.criteria {
		if strings.EqualFold(c.AssetName, name+" "+version) && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memoryStore) FindPartialCriteria(ctx context.Context, words []string, limit int) ([]domain.MatchCriterion, error) {
	var out []domain.MatchCriterion
	for _, c := range s.criteria {
		for _, w := range words {
			if strings.Contains(strings.ToLower(c.AssetName), strings.ToLower(w)) {
				out = append(out, c)
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memoryStore) UpsertRecord(ctx context.Context, record domain.VulnerabilityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
	return nil
}

func (s *memoryStore) ExistsRecord(ctx context.Context, cveID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[cveID]
	return ok, nil
}

func (s *memoryStore) UpsertAssetVulnerability(ctx context.Context, av domain.AssetVulnerability) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := av.AssetID + "|" + av.CVEID
	if _, ok := s.links[key]; ok {
		return false, nil
	}
	s.links[key] = av
	return true, nil
}

func (s *memoryStore) ExistsAssetVulnerability(ctx context.Context, assetID, cveID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.links[assetID+"|"+cveID]
	return ok, nil
}

func (s *memoryStore) PersistIfNew(ctx context.Context, event domain.NotificationEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[event.Message]; ok {
		return false, nil
	}
	s.notifications[event.Message] = event
	return true, nil
}

func (s *memoryStore) ListNotifications(ctx context.Context, limit int) ([]domain.NotificationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.NotificationEvent
	for _, n := range s.notifications {
		out = append(out, n)
	}
	return out, nil
}

func (s *memoryStore) PurgeNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (s *memoryStore) linkFor(assetID, cveID string) (domain.AssetVulnerability, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	av, ok := s.links[assetID+"|"+cveID]
	return av, ok
}

func (s *memoryStore) counts() (links, notifications int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.links), len(s.notifications)
}

// fakeSource serves canned records and records every call.
type fakeSource struct {
	mu       sync.Mutex
	calls    []string
	records  []domain.VulnerabilityRecord
	failures map[string]error
}

func (f *fakeSource) FetchByCriterion(ctx context.Context, criterion string) ([]domain.VulnerabilityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, criterion)
	if err := f.failures[criterion]; err != nil {
		return nil, err
	}
	return f.records, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// recordingSink keeps published events.
type recordingSink struct {
	mu     sync.Mutex
	events []domain.NotificationEvent
}

func (r *recordingSink) Publish(ctx context.Context, event domain.NotificationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// recordingPacer never sleeps. onWait, when set, runs before returning.
type recordingPacer struct {
	mu     sync.Mutex
	waits  []time.Duration
	onWait func()
}

func (p *recordingPacer) Wait(ctx context.Context, d time.Duration) error {
	p.mu.Lock()
	p.waits = append(p.waits, d)
	p.mu.Unlock()
	if p.onWait != nil {
		p.onWait()
	}
	return ctx.Err()
}
