package repository

import (
	"time"

	"go-clinic-management/internal/domain/entity"

	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id uint) (*entity.Appointment, error)
	FindByIDs(db *gorm.DB, ids []uint) ([]entity.Appointment, error)
	FindByPatientID(db *gorm.DB, patientID uint) ([]entity.Appointment, error)
	// LockPendingByID selects the appointment FOR UPDATE only while it is
	// Pending. A nil result means missing or already processed.
	LockPendingByID(db *gorm.DB, id uint) (*entity.Appointment, error)
	LockByID(db *gorm.DB, id uint) (*entity.Appointment, error)
	LockByIDs(db *gorm.DB, ids []uint) ([]entity.Appointment, error)
	FindDuplicate(db *gorm.DB, patientID uint, specialistID *uint, date time.Time, clock string) (*entity.Appointment, error)
	Update(db *gorm.DB, appointment *entity.Appointment) error
	UpdateStatusByIDs(db *gorm.DB, ids []uint, status entity.AppointmentStatus) error
	UpdateBillingStatusByIDs(db *gorm.DB, ids []uint, status entity.BillingStatus) error
}
