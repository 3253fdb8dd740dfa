package storage

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
)

// PersistIfNew stores the event unless a notification with the same message exists.
func (a *SQLiteAdapter) PersistIfNew(ctx context.Context, event domain.NotificationEvent) (bool, error) {
	model := notificationToModel(event)
	res := a.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message"}},
		DoNothing: true,
	}).Create(&model)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListNotifications returns the newest notifications first.
func (a *SQLiteAdapter) ListNotifications(ctx context.Context, limit int) ([]domain.NotificationEvent, error) {
	var models []NotificationModel
	if err := a.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	events := make([]domain.NotificationEvent, len(models))
	for i, m := range models {
		events[i] = notificationToDomain(m)
	}
	return events, nil
}

// PurgeNotificationsBefore deletes notifications created before cutoff.
func (a *SQLiteAdapter) PurgeNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := a.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&NotificationModel{})
	return res.RowsAffected, res.Error
}
