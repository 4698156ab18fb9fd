package usecase

import (
	"context"

	"go-clinic-management/internal/converter"
	"go-clinic-management/internal/delivery/dto"
	"go-clinic-management/internal/domain/repository"
	"go-clinic-management/pkg/apperror"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type NotificationUsecase interface {
	ListForUser(ctx context.Context, userID uint, unreadOnly bool) (*dto.NotificationListResponse, error)
	MarkRead(ctx context.Context, notificationID, userID uint) error
}

type notificationUsecase struct {
	db               *gorm.DB
	log              *logrus.Logger
	notificationRepo repository.NotificationRepository
}

func NewNotificationUsecase(db *gorm.DB, log *logrus.Logger, notificationRepo repository.NotificationRepository) NotificationUsecase {
	return &notificationUsecase{
		db:               db,
		log:              log,
		notificationRepo: notificationRepo,
	}
}

func (u *notificationUsecase) ListForUser(ctx context.Context, userID uint, unreadOnly bool) (*dto.NotificationListResponse, error) {
	notifications, err := u.notificationRepo.FindByUserID(u.db.WithContext(ctx), userID, unreadOnly)
	if err != nil {
		u.log.Warnf("Failed to find notifications of user %d: %+v", userID, err)
		return nil, err
	}

	unread := 0
	for i := range notifications {
		if !notifications[i].IsRead() {
			unread++
		}
	}

	return &dto.NotificationListResponse{
		Notifications: converter.NotificationsToResponses(notifications),
		Total:         len(notifications),
		Unread:        unread,
	}, nil
}

// MarkRead only touches the user's own unread notifications.
func (u *notificationUsecase) MarkRead(ctx context.Context, notificationID, userID uint) error {
	updated, err := u.notificationRepo.MarkRead(u.db.WithContext(ctx), notificationID, userID)
	if err != nil {
		u.log.Warnf("Failed to mark notification %d read: %+v", notificationID, err)
		return err
	}
	if updated == 0 {
		return apperror.NotFoundOrAlreadyProcessed("notification %d not found or already read", notificationID)
	}
	return nil
}
