package service

import (
	"context"

	"go-clinic-management/internal/domain/entity"
	"go-clinic-management/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationDispatcher writes notification rows inside the caller's
// transaction and pushes them to live clients once that transaction commits.
type NotificationDispatcher interface {
	NotifyUser(tx *gorm.DB, userID uint, kind, title, message string, data map[string]interface{}) (*entity.Notification, error)
	NotifyAdmins(tx *gorm.DB, kind, title, message string, data map[string]interface{}) ([]entity.Notification, error)
	// Broadcast never fails: delivery problems are logged and dropped.
	Broadcast(ctx context.Context, notifications []entity.Notification)
}

type notificationDispatcher struct {
	log              *logrus.Logger
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	broadcaster      Broadcaster
}

func NewNotificationDispatcher(
	log *logrus.Logger,
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	broadcaster Broadcaster,
) NotificationDispatcher {
	if broadcaster == nil {
		broadcaster = NewNoopBroadcaster()
	}
	return &notificationDispatcher{
		log:              log,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		broadcaster:      broadcaster,
	}
}

func (d *notificationDispatcher) NotifyUser(tx *gorm.DB, userID uint, kind, title, message string, data map[string]interface{}) (*entity.Notification, error) {
	notification := &entity.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Data:    datatypes.JSONMap(data),
	}
	if err := d.notificationRepo.Create(tx, notification); err != nil {
		d.log.Warnf("Failed to create %s notification for user %d: %+v", kind, userID, err)
		return nil, err
	}
	return notification, nil
}

func (d *notificationDispatcher) NotifyAdmins(tx *gorm.DB, kind, title, message string, data map[string]interface{}) ([]entity.Notification, error) {
	admins, err := d.userRepo.FindActiveByRole(tx, entity.RoleAdmin)
	if err != nil {
		d.log.Warnf("Failed to load admins: %+v", err)
		return nil, err
	}
	notifications := make([]entity.Notification, 0, len(admins))
	for _, admin := range admins {
		n, err := d.NotifyUser(tx, admin.ID, kind, title, message, data)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, nil
}

func (d *notificationDispatcher) Broadcast(ctx context.Context, notifications []entity.Notification) {
	for _, n := range notifications {
		if err := d.broadcaster.Publish(ctx, n); err != nil {
			d.log.WithFields(logrus.Fields{
				"notification_id": n.ID,
				"user_id":         n.UserID,
				"type":            n.Type,
			}).Warnf("Failed to broadcast notification: %+v", err)
		}
	}
}
