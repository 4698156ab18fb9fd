package repository

import (
	"go-clinic-management/internal/domain/entity"

	"gorm.io/gorm"
)

type UserRepository interface {
	FindByID(db *gorm.DB, id uint) (*entity.User, error)
	FindFirstActiveByRole(db *gorm.DB, role string) (*entity.User, error)
	FindActiveByRole(db *gorm.DB, role string) ([]entity.User, error)
}
