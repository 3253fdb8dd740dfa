package storage

import (
	"time"

	"gorm.io/datatypes"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
)

// AssetModel is the GORM model for the asset inventory.
type AssetModel struct {
	ID              string `gorm:"primaryKey"`
	DeviceName      string `gorm:"uniqueIndex;not null"`
	ApplicationName string
	OperatingSystem string `gorm:"column:operating_system;index"`
	OSVersion       string `gorm:"column:os_version"`
	Contact         string
	CreatedAt       time.Time
}

func (AssetModel) TableName() string { return "assets" }

// PlatformModel stores canonical platform names. Insertion order (ID) is the
// stable iteration order used by normalization.
type PlatformModel struct {
	ID        uint                        `gorm:"primaryKey"`
	Name      string                      `gorm:"uniqueIndex;not null"`
	Aliases   datatypes.JSONSlice[string] `gorm:"not null"`
	CreatedAt time.Time
}

func (PlatformModel) TableName() string { return "platforms" }

// CriterionModel stores a CPE name with the platform name it was recorded for.
type CriterionModel struct {
	ID        uint   `gorm:"primaryKey"`
	Criteria  string `gorm:"uniqueIndex;not null"`
	AssetName string `gorm:"index;not null"`
	CreatedAt time.Time
}

func (CriterionModel) TableName() string { return "criteria" }

// CVEModel stores raw vulnerability records. Sub-documents are JSON columns.
type CVEModel struct {
	ID               string `gorm:"primaryKey"`
	SourceIdentifier string
	Published        time.Time
	LastModified     time.Time `gorm:"index"`
	VulnStatus       string
	Descriptions     datatypes.JSONSlice[domain.Description]
	Metrics          datatypes.JSONType[domain.Metrics]
	Weaknesses       datatypes.JSONSlice[domain.Weakness]
	Configurations   datatypes.JSONSlice[domain.Configuration]
	References       datatypes.JSONSlice[domain.Reference]
	UpdatedAt        time.Time
}

func (CVEModel) TableName() string { return "cves" }

// AssetVulnerabilityModel links an asset to a CVE. (asset_id, cve_id) is unique.
type AssetVulnerabilityModel struct {
	ID              uint   `gorm:"primaryKey"`
	AssetID         string `gorm:"column:asset_id;uniqueIndex:idx_asset_cve;not null"`
	CVEID           string `gorm:"column:cve_id;uniqueIndex:idx_asset_cve;index;not null"`
	DeviceName      string
	ApplicationName string
	OperatingSystem string    `gorm:"column:operating_system;index"`
	OSVersion       string    `gorm:"column:os_version"`
	Published       time.Time `gorm:"index"`
	LastModified    time.Time
	VulnStatus      string
	Description     string // english description, searched by keyword
	Descriptions    datatypes.JSONSlice[domain.Description]
	Configurations  datatypes.JSONSlice[domain.ConfigurationMatch]
	Weaknesses      datatypes.JSONSlice[domain.Weakness]
	RiskLevel       string                      `gorm:"index"`
	CVSSVersion     string                      `gorm:"column:cvss_version"`
	CVSSScore       *float64                    `gorm:"column:cvss_score"`
	AttackVector    string
	CPENamesUsed    datatypes.JSONSlice[string] `gorm:"column:cpe_names_used"`
	CreatedAt       time.Time
}

func (AssetVulnerabilityModel) TableName() string { return "asset_vulnerabilities" }

// NotificationModel stores notifications. Messages are unique.
type NotificationModel struct {
	ID        string `gorm:"primaryKey"`
	Type      string
	Message   string    `gorm:"uniqueIndex;not null"`
	AssetID   string    `gorm:"column:asset_id"`
	CVEID     string    `gorm:"column:cve_id"`
	CreatedAt time.Time `gorm:"index"`
}

func (NotificationModel) TableName() string { return "notifications" }

var allModels = []any{
	&AssetModel{},
	&PlatformModel{},
	&CriterionModel{},
	&CVEModel{},
	&AssetVulnerabilityModel{},
	&NotificationModel{},
}
