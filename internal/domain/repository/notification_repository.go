package repository

import (
	"go-clinic-management/internal/domain/entity"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(db *gorm.DB, notification *entity.Notification) error
	FindByUserID(db *gorm.DB, userID uint, unreadOnly bool) ([]entity.Notification, error)
	MarkRead(db *gorm.DB, id, userID uint) (int64, error)
}
