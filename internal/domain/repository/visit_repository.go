package repository

import (
	"go-clinic-management/internal/domain/entity"

	"gorm.io/gorm"
)

type VisitRepository interface {
	Create(db *gorm.DB, visit *entity.Visit) error
	FindByID(db *gorm.DB, id uint) (*entity.Visit, error)
	FindByAppointmentID(db *gorm.DB, appointmentID uint) (*entity.Visit, error)
	UpdateStatusByAppointmentIDs(db *gorm.DB, appointmentIDs []uint, status entity.VisitStatus) error
}
