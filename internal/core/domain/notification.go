package domain

import (
	"fmt"
	"time"
)

// NotificationTypeNewCVE is the broadcast type of new vulnerability notifications.
const NotificationTypeNewCVE = "notification"

// NotificationEvent is an append-only operator notification. Events expire
// after the configured retention.
type NotificationEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	AssetID   string    `json:"asset_id,omitempty"`
	CVEID     string    `json:"cve_id,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewCVEMessage is the text of the notification sent when a CVE is first
// mapped to an asset. Notifications are deduplicated on this text.
func NewCVEMessage(deviceName, cveID string) string {
	return fmt.Sprintf("New CVE found for asset %s: %s", deviceName, cveID)
}
