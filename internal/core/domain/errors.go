package domain

import "errors"

// Failure classes of a reconciliation run. None of them is fatal: the
// affected asset, criterion or record is simply not updated this cycle.
var (
	ErrNormalizationMiss   = errors.New("no canonical platform matches the operating system")
	ErrNoCriteria          = errors.New("no OS-level match criterion recorded for platform")
	ErrSourceUnavailable   = errors.New("vulnerability source unavailable")
	ErrStorage             = errors.New("storage operation failed")
	ErrNotificationPublish = errors.New("notification publish failed")
)

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrNotFound      = errors.New("not found")
)
