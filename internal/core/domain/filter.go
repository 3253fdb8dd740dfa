package domain

import (
	"errors"
	"strings"
)

// Pagination defaults of vulnerability listings.
const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 500
)

// Domain Errors for filtering
var (
	ErrInvalidPage      = errors.New("page must be >= 1")
	ErrInvalidLimit     = errors.New("limit must be between 1 and 500")
	ErrInvalidRiskLevel = errors.New("unknown risk level")
)

// VulnerabilityFilter selects asset vulnerabilities for reporting.
// Empty fields match anything.
type VulnerabilityFilter struct {
	OperatingSystem string    `json:"operating_system"` // exact match
	OSVersion       string    `json:"os_version"`       // exact match
	Keyword         string    `json:"keyword"`          // partial, case-insensitive: OS, device, version, description
	RiskLevel       RiskLevel `json:"riskLevel"`
	Page            int       `json:"page"`
	Limit           int       `json:"limit"`
}

// NewVulnerabilityFilter initializes a filter with the default page window.
func NewVulnerabilityFilter() *VulnerabilityFilter {
	return &VulnerabilityFilter{Page: DefaultPage, Limit: DefaultLimit}
}

func (f *VulnerabilityFilter) WithOS(os, version string) *VulnerabilityFilter {
	f.OperatingSystem = strings.TrimSpace(os)
	f.OSVersion = strings.TrimSpace(version)
	return f
}

func (f *VulnerabilityFilter) WithKeyword(keyword string) *VulnerabilityFilter {
	f.Keyword = strings.TrimSpace(keyword)
	return f
}

func (f *VulnerabilityFilter) WithRiskLevel(level RiskLevel) *VulnerabilityFilter {
	f.RiskLevel = level
	return f
}

func (f *VulnerabilityFilter) WithPage(page, limit int) *VulnerabilityFilter {
	f.Page = page
	f.Limit = limit
	return f
}

// Validate ensures the filter is usable by the store.
func (f *VulnerabilityFilter) Validate() error {
	if f.Page < 1 {
		return ErrInvalidPage
	}
	if f.Limit < 1 || f.Limit > MaxLimit {
		return ErrInvalidLimit
	}
	switch f.RiskLevel {
	case "", RiskNone, RiskLow, RiskMedium, RiskHigh, RiskCritical, RiskUnknown:
		return nil
	}
	return ErrInvalidRiskLevel
}

// Offset is the number of rows skipped for the current page.
func (f *VulnerabilityFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Page is one window of a paginated listing.
type Page[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
}
