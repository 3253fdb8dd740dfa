package domain

import "time"

// RiskCount is the number of asset vulnerabilities in one risk tier.
type RiskCount struct {
	RiskLevel RiskLevel `json:"riskLevel"`
	Count     int64     `json:"count"`
}

// OSCount is the number of asset vulnerabilities per operating system.
type OSCount struct {
	OperatingSystem string `json:"operating_system"`
	Count           int64  `json:"count"`
}

// CWECount is the number of asset vulnerabilities referencing a CWE.
type CWECount struct {
	CWE   string `json:"cwe"`
	Count int64  `json:"count"`
}

// YearCount is the number of asset vulnerabilities published in a year.
type YearCount struct {
	Year  int   `json:"year"`
	Count int64 `json:"totalCount"`
}

// VulnerabilityReport is the printable summary of the vulnerability store.
type VulnerabilityReport struct {
	ID               string               `json:"id"`
	Title            string               `json:"title"`
	GeneratedAt      time.Time            `json:"generated_at"`
	AssetCount       int                  `json:"asset_count"`
	VulnerableAssets int                  `json:"vulnerable_assets"`
	Totals           []RiskCount          `json:"totals"`
	ByOS             []OSCount            `json:"by_os"`
	Top              []AssetVulnerability `json:"top"`
}

// Total sums all tiers.
func (r VulnerabilityReport) Total() int64 {
	var n int64
	for _, t := range r.Totals {
		n += t.Count
	}
	return n
}

// Count returns the number of links in one tier.
func (r VulnerabilityReport) Count(level RiskLevel) int64 {
	for _, t := range r.Totals {
		if t.RiskLevel == level {
			return t.Count
		}
	}
	return 0
}
