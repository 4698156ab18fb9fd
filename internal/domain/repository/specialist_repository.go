package repository

import (
	"go-clinic-management/internal/domain/entity"

	"gorm.io/gorm"
)

type SpecialistRepository interface {
	FindByID(db *gorm.DB, id uint) (*entity.Specialist, error)
}
