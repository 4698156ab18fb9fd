package repository

import (
	"time"

	"go-clinic-management/internal/domain/entity"

	"gorm.io/gorm"
)

type PatientRepository interface {
	Create(db *gorm.DB, patient *entity.Patient) error
	FindByID(db *gorm.DB, id uint) (*entity.Patient, error)
	FindByNameAndBirthdate(db *gorm.DB, firstName, lastName string, birthdate time.Time) (*entity.Patient, error)
	FindByMobileAndName(db *gorm.DB, mobileNo, firstName, lastName string) (*entity.Patient, error)
	// LinkUser sets user_id on a patient that has none yet.
	LinkUser(db *gorm.DB, patientID, userID uint) (bool, error)
}
