package handlers

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
)

type MockReconciler struct {
	mock.Mock
	allDone chan struct{}
	once    sync.Once
}

func (m *MockReconciler) ReconcileAll(ctx context.Context) {
	m.Called(ctx)
	if m.allDone != nil {
		m.once.Do(func() { close(m.allDone) })
	}
}

func (m *MockReconciler) ReconcileDevice(ctx context.Context, deviceName string) error {
	return m.Called(ctx, deviceName).Error(0)
}

type MockReader struct {
	mock.Mock
}

func (m *MockReader) ListVulnerabilities(ctx context.Context, filter domain.VulnerabilityFilter) (domain.Page[domain.AssetVulnerability], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(domain.Page[domain.AssetVulnerability]), args.Error(1)
}

func (m *MockReader) GetVulnerability(ctx context.Context, cveID string) (domain.AssetVulnerability, error) {
	args := m.Called(ctx, cveID)
	return args.Get(0).(domain.AssetVulnerability), args.Error(1)
}

func (m *MockReader) TopVulnerabilities(ctx context.Context, limit int) ([]domain.AssetVulnerability, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.AssetVulnerability), args.Error(1)
}

func (m *MockReader) RiskSummary(ctx context.Context) ([]domain.RiskCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.RiskCount), args.Error(1)
}

func (m *MockReader) OSSummary(ctx context.Context) ([]domain.OSCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.OSCount), args.Error(1)
}

func (m *MockReader) CWEBreakdown(ctx context.Context) ([]domain.CWECount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.CWECount), args.Error(1)
}

func (m *MockReader) VulnerabilitiesPerYear(ctx context.Context) ([]domain.YearCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.YearCount), args.Error(1)
}

func (m *MockReader) AssetsWithStatus(ctx context.Context) ([]domain.AssetStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.AssetStatus), args.Error(1)
}

type MockNotifications struct {
	mock.Mock
}

func (m *MockNotifications) ListNotifications(ctx context.Context, limit int) ([]domain.NotificationEvent, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.NotificationEvent), args.Error(1)
}

type MockRecords struct {
	mock.Mock
}

func (m *MockRecords) GetRecord(ctx context.Context, cveID string) (domain.VulnerabilityRecord, error) {
	args := m.Called(ctx, cveID)
	return args.Get(0).(domain.VulnerabilityRecord), args.Error(1)
}
