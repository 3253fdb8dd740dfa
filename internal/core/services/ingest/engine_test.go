package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
	"github.com/lcalzada-xor/assetvuln/internal/core/services/scoring"
)

// Mocks

type MockVulnerabilityStore struct {
	mock.Mock
}

func (m *MockVulnerabilityStore) UpsertRecord(ctx context.Context, record domain.VulnerabilityRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockVulnerabilityStore) ExistsRecord(ctx context.Context, cveID string) (bool, error) {
	args := m.Called(ctx, cveID)
	return args.Bool(0), args.Error(1)
}

func (m *MockVulnerabilityStore) UpsertAssetVulnerability(ctx context.Context, av domain.AssetVulnerability) (bool, error) {
	args := m.Called(ctx, av)
	return args.Bool(0), args.Error(1)
}

func (m *MockVulnerabilityStore) ExistsAssetVulnerability(ctx context.Context, assetID, cveID string) (bool, error) {
	args := m.Called(ctx, assetID, cveID)
	return args.Bool(0), args.Error(1)
}

type MockNotificationStore struct {
	mock.Mock
}

func (m *MockNotificationStore) PersistIfNew(ctx context.Context, event domain.NotificationEvent) (bool, error) {
	args := m.Called(ctx, event)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotificationStore) ListNotifications(ctx context.Context, limit int) ([]domain.NotificationEvent, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.NotificationEvent), args.Error(1)
}

func (m *MockNotificationStore) PurgeNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Publish(ctx context.Context, event domain.NotificationEvent) error {
	return m.Called(ctx, event).Error(0)
}

// Fixtures

var testAsset = domain.Asset{
	ID:              "a1",
	DeviceName:      "srv-dc-01",
	ApplicationName: "Active Directory",
	OperatingSystem: "Windows Server",
	OSVersion:       "2019",
}

const criterionUsed = "cpe:2.3:o:microsoft:windows_server_2019:-:*:*:*:*:*:*:*"

func criticalRecord() domain.VulnerabilityRecord {
	return domain.VulnerabilityRecord{
		ID:           "CVE-2020-1472",
		Published:    "2020-08-17T19:15:15.117",
		LastModified: "2024-03-01T10:00:00.000",
		VulnStatus:   "Analyzed",
		Descriptions: []domain.Description{{Lang: "en", Value: "Netlogon Elevation of Privilege Vulnerability"}},
		Metrics: domain.Metrics{CvssMetricV31: []domain.CVSSMetric{{
			CvssData: domain.CVSSData{Version: "3.1", BaseScore: 10.0, AttackVector: "NETWORK"},
		}}},
		Configurations: []domain.Configuration{{Nodes: []domain.Node{{CpeMatch: []domain.CPEMatch{
			{Vulnerable: true, Criteria: criterionUsed},
		}}}}},
	}
}

type fixture struct {
	store         *MockVulnerabilityStore
	notifications *MockNotificationStore
	sink          *MockSink
	engine        *Engine
}

func newFixture() *fixture {
	f := &fixture{
		store:         new(MockVulnerabilityStore),
		notifications: new(MockNotificationStore),
		sink:          new(MockSink),
	}
	f.engine = NewEngine(f.store, f.notifications, f.sink, scoring.NewScorer())
	f.engine.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

// Tests

func TestIngest_NewRecord(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := criticalRecord()

	f.store.On("ExistsRecord", ctx, rec.ID).Return(false, nil)
	f.store.On("UpsertRecord", ctx, rec).Return(nil)
	f.store.On("ExistsAssetVulnerability", ctx, "a1", rec.ID).Return(false, nil)
	f.store.On("UpsertAssetVulnerability", ctx, mock.MatchedBy(func(av domain.AssetVulnerability) bool {
		return av.AssetID == "a1" &&
			av.CVEID == rec.ID &&
			av.DeviceName == "srv-dc-01" &&
			av.RiskLevel == domain.RiskCritical &&
			av.CVSSVersion == domain.CVSSv31 &&
			av.CVSSScore != nil && *av.CVSSScore == 10.0 &&
			av.AttackVector == "NETWORK" &&
			av.Published.Year() == 2020 &&
			len(av.Configurations) == 1 && av.Configurations[0].MatchCriteriaID == "No Match ID" &&
			len(av.CPENamesUsed) == 1 && av.CPENamesUsed[0] == criterionUsed
	})).Return(true, nil)

	msg := "New CVE found for asset srv-dc-01: CVE-2020-1472"
	isEvent := mock.MatchedBy(func(e domain.NotificationEvent) bool {
		return e.Message == msg && e.Type == domain.NotificationTypeNewCVE && e.AssetID == "a1" && e.ID != ""
	})
	f.notifications.On("PersistIfNew", ctx, isEvent).Return(true, nil)
	f.sink.On("Publish", ctx, isEvent).Return(nil)

	created, err := f.engine.Ingest(ctx, testAsset, rec, []string{criterionUsed})
	require.NoError(t, err)
	assert.True(t, created)

	f.store.AssertExpectations(t)
	f.notifications.AssertExpectations(t)
	f.sink.AssertExpectations(t)
}

func TestIngest_KnownRecordIsNotRewritten(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := criticalRecord()

	f.store.On("ExistsRecord", ctx, rec.ID).Return(true, nil)
	f.store.On("ExistsAssetVulnerability", ctx, "a1", rec.ID).Return(false, nil)
	f.store.On("UpsertAssetVulnerability", ctx, mock.Anything).Return(true, nil)
	f.notifications.On("PersistIfNew", ctx, mock.Anything).Return(true, nil)
	f.sink.On("Publish", ctx, mock.Anything).Return(nil)

	created, err := f.engine.Ingest(ctx, testAsset, rec, nil)
	require.NoError(t, err)
	assert.True(t, created)
	f.store.AssertNotCalled(t, "UpsertRecord", mock.Anything, mock.Anything)
}

func TestIngest_ExistingLinkIsNoop(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := criticalRecord()

	f.store.On("ExistsRecord", ctx, rec.ID).Return(true, nil)
	f.store.On("ExistsAssetVulnerability", ctx, "a1", rec.ID).Return(true, nil)

	created, err := f.engine.Ingest(ctx, testAsset, rec, nil)
	require.NoError(t, err)
	assert.False(t, created)

	f.store.AssertNotCalled(t, "UpsertAssetVulnerability", mock.Anything, mock.Anything)
	f.notifications.AssertNotCalled(t, "PersistIfNew", mock.Anything, mock.Anything)
	f.sink.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestIngest_LostInsertRace(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := criticalRecord()

	f.store.On("ExistsRecord", ctx, rec.ID).Return(true, nil)
	f.store.On("ExistsAssetVulnerability", ctx, "a1", rec.ID).Return(false, nil)
	f.store.On("UpsertAssetVulnerability", ctx, mock.Anything).Return(false, nil)

	created, err := f.engine.Ingest(ctx, testAsset, rec, nil)
	require.NoError(t, err)
	assert.False(t, created)
	f.notifications.AssertNotCalled(t, "PersistIfNew", mock.Anything, mock.Anything)
}

func TestIngest_DuplicateNotificationNotPublished(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := criticalRecord()

	f.store.On("ExistsRecord", ctx, rec.ID).Return(true, nil)
	f.store.On("ExistsAssetVulnerability", ctx, "a1", rec.ID).Return(false, nil)
	f.store.On("UpsertAssetVulnerability", ctx, mock.Anything).Return(true, nil)
	f.notifications.On("PersistIfNew", ctx, mock.Anything).Return(false, nil)

	created, err := f.engine.Ingest(ctx, testAsset, rec, nil)
	require.NoError(t, err)
	assert.True(t, created)
	f.sink.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestIngest_PublishFailureKeepsLink(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := criticalRecord()

	f.store.On("ExistsRecord", ctx, rec.ID).Return(true, nil)
	f.store.On("ExistsAssetVulnerability", ctx, "a1", rec.ID).Return(false, nil)
	f.store.On("UpsertAssetVulnerability", ctx, mock.Anything).Return(true, nil)
	f.notifications.On("PersistIfNew", ctx, mock.Anything).Return(true, nil)
	f.sink.On("Publish", ctx, mock.Anything).Return(errors.New("hub closed"))

	created, err := f.engine.Ingest(ctx, testAsset, rec, nil)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestIngest_StorageErrors(t *testing.T) {
	ctx := context.Background()
	rec := criticalRecord()
	boom := errors.New("database is locked")

	t.Run("record upsert", func(t *testing.T) {
		f := newFixture()
		f.store.On("ExistsRecord", ctx, rec.ID).Return(false, nil)
		f.store.On("UpsertRecord", ctx, rec).Return(boom)

		created, err := f.engine.Ingest(ctx, testAsset, rec, nil)
		assert.ErrorIs(t, err, domain.ErrStorage)
		assert.False(t, created)
		f.store.AssertNotCalled(t, "ExistsAssetVulnerability", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("link insert", func(t *testing.T) {
		f := newFixture()
		f.store.On("ExistsRecord", ctx, rec.ID).Return(true, nil)
		f.store.On("ExistsAssetVulnerability", ctx, "a1", rec.ID).Return(false, nil)
		f.store.On("UpsertAssetVulnerability", ctx, mock.Anything).Return(false, boom)

		created, err := f.engine.Ingest(ctx, testAsset, rec, nil)
		assert.ErrorIs(t, err, domain.ErrStorage)
		assert.False(t, created)
		f.notifications.AssertNotCalled(t, "PersistIfNew", mock.Anything, mock.Anything)
	})

	t.Run("notification persist", func(t *testing.T) {
		f := newFixture()
		f.store.On("ExistsRecord", ctx, rec.ID).Return(true, nil)
		f.store.On("ExistsAssetVulnerability", ctx, "a1", rec.ID).Return(false, nil)
		f.store.On("UpsertAssetVulnerability", ctx, mock.Anything).Return(true, nil)
		f.notifications.On("PersistIfNew", ctx, mock.Anything).Return(false, boom)

		created, err := f.engine.Ingest(ctx, testAsset, rec, nil)
		assert.ErrorIs(t, err, domain.ErrStorage)
		assert.True(t, created)
		f.sink.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestIngest_UnscoredRecord(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := domain.VulnerabilityRecord{ID: "CVE-2024-99999", Published: "2024-04-30T09:00:00.000"}

	f.store.On("ExistsRecord", ctx, rec.ID).Return(true, nil)
	f.store.On("ExistsAssetVulnerability", ctx, "a1", rec.ID).Return(false, nil)
	f.store.On("UpsertAssetVulnerability", ctx, mock.MatchedBy(func(av domain.AssetVulnerability) bool {
		return av.RiskLevel == domain.RiskUnknown && av.CVSSScore == nil && av.CVSSVersion == ""
	})).Return(true, nil)
	f.notifications.On("PersistIfNew", ctx, mock.Anything).Return(true, nil)
	f.sink.On("Publish", ctx, mock.Anything).Return(nil)

	created, err := f.engine.Ingest(ctx, testAsset, rec, nil)
	require.NoError(t, err)
	assert.True(t, created)
	f.store.AssertExpectations(t)
}
