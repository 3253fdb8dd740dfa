package domain

import "time"

// RiskLevel is the discrete risk tier derived from a CVSS score.
type RiskLevel string

const (
	RiskNone     RiskLevel = "None"
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
	RiskUnknown  RiskLevel = "Unknown"
)

// CVSS standard versions the scorer understands, newest first.
const (
	CVSSv31 = "3.1"
	CVSSv30 = "3.0"
	CVSSv20 = "2.0"
)

// ConfigurationMatch is the trimmed cpeMatch kept in vulnerability snapshots.
type ConfigurationMatch struct {
	Criteria        string `json:"criteria"`
	MatchCriteriaID string `json:"matchCriteriaId"`
}

// AssetVulnerability links one asset to one CVE. It carries a snapshot of
// the asset and of the scoring at the time the link was created.
// There is at most one per (AssetID, CVEID).
type AssetVulnerability struct {
	AssetID         string `json:"asset"`
	DeviceName      string `json:"device_name"`
	ApplicationName string `json:"application_name"`
	OperatingSystem string `json:"operating_system"`
	OSVersion       string `json:"os_version"`

	CVEID          string               `json:"cveId"`
	Published      time.Time            `json:"published"`
	LastModified   time.Time            `json:"lastModified"`
	VulnStatus     string               `json:"vulnStatus"`
	Descriptions   []Description        `json:"descriptions"`
	Configurations []ConfigurationMatch `json:"configurations"`
	Weaknesses     []Weakness           `json:"weaknesses"`

	RiskLevel    RiskLevel `json:"riskLevel"`
	CVSSVersion  string    `json:"cvssVersion,omitempty"`
	CVSSScore    *float64  `json:"cvssScore"` // nil when the record has no scoring
	AttackVector string    `json:"attackVector,omitempty"`

	CPENamesUsed []string  `json:"cpeNameUsed"`
	CreatedAt    time.Time `json:"created_at"`
}
