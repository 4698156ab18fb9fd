package repository

import (
	"errors"

	"go-clinic-management/internal/domain/entity"
	domainRepo "go-clinic-management/internal/domain/repository"

	"gorm.io/gorm"
)

type specialistRepository struct{}

func NewSpecialistRepository() domainRepo.SpecialistRepository {
	return &specialistRepository{}
}

func (r *specialistRepository) FindByID(db *gorm.DB, id uint) (*entity.Specialist, error) {
	var specialist entity.Specialist
	err := db.Preload("User").Where("id = ?", id).First(&specialist).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &specialist, nil
}
