package domain

import (
	"strings"
	"time"
)

// Asset is a monitored device or application as registered by operators.
// The reconciliation core only reads assets.
type Asset struct {
	ID              string    `json:"id"`
	DeviceName      string    `json:"device_name" validate:"required"`
	ApplicationName string    `json:"application_name" validate:"required"`
	OperatingSystem string    `json:"operating_system" validate:"required"`
	OSVersion       string    `json:"os_version" validate:"required"`
	Contact         string    `json:"contact,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Reconcilable reports whether the asset carries enough information to be
// matched against the vulnerability database.
func (a Asset) Reconcilable() bool {
	return strings.TrimSpace(a.OperatingSystem) != "" && strings.TrimSpace(a.OSVersion) != ""
}

// AssetStatus pairs an asset with whether at least one vulnerability is
// linked to it.
type AssetStatus struct {
	Asset
	Vulnerable bool `json:"vulnerable"`
}
