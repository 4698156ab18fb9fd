package repository

import (
	"errors"

	"go-clinic-management/internal/domain/entity"
	domainRepo "go-clinic-management/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type visitRepository struct{}

func NewVisitRepository() domainRepo.VisitRepository {
	return &visitRepository{}
}

func (r *visitRepository) Create(db *gorm.DB, visit *entity.Visit) error {
	return db.Omit(clause.Associations).Create(visit).Error
}

func (r *visitRepository) FindByID(db *gorm.DB, id uint) (*entity.Visit, error) {
	var visit entity.Visit
	err := db.Where("id = ?", id).First(&visit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &visit, nil
}

func (r *visitRepository) FindByAppointmentID(db *gorm.DB, appointmentID uint) (*entity.Visit, error) {
	var visit entity.Visit
	err := db.Where("appointment_id = ?", appointmentID).First(&visit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &visit, nil
}

func (r *visitRepository) UpdateStatusByAppointmentIDs(db *gorm.DB, appointmentIDs []uint, status entity.VisitStatus) error {
	if len(appointmentIDs) == 0 {
		return nil
	}
	return db.Model(&entity.Visit{}).Where("appointment_id IN ?", appointmentIDs).Update("status", status).Error
}
