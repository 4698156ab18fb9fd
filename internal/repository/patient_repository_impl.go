package repository

import (
	"errors"
	"time"

	"go-clinic-management/internal/domain/entity"
	domainRepo "go-clinic-management/internal/domain/repository"

	"gorm.io/gorm"
)

type patientRepository struct{}

func NewPatientRepository() domainRepo.PatientRepository {
	return &patientRepository{}
}

func (r *patientRepository) Create(db *gorm.DB, patient *entity.Patient) error {
	return db.Create(patient).Error
}

func (r *patientRepository) FindByID(db *gorm.DB, id uint) (*entity.Patient, error) {
	var patient entity.Patient
	err := db.Where("id = ?", id).First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) FindByNameAndBirthdate(db *gorm.DB, firstName, lastName string, birthdate time.Time) (*entity.Patient, error) {
	var patient entity.Patient
	err := db.Where("last_name = ? AND first_name = ? AND birthdate = ?", lastName, firstName, birthdate).
		Order("id ASC").
		First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) FindByMobileAndName(db *gorm.DB, mobileNo, firstName, lastName string) (*entity.Patient, error) {
	var patient entity.Patient
	err := db.Where("mobile_no = ? AND last_name = ? AND first_name = ?", mobileNo, lastName, firstName).
		Order("id ASC").
		First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) LinkUser(db *gorm.DB, patientID, userID uint) (bool, error) {
	result := db.Model(&entity.Patient{}).
		Where("id = ? AND user_id IS NULL", patientID).
		Update("user_id", userID)
	return result.RowsAffected > 0, result.Error
}
