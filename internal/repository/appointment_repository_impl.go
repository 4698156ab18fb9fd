package repository

import (
	"errors"
	"time"

	"go-clinic-management/internal/domain/entity"
	domainRepo "go-clinic-management/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Omit(clause.Associations).Create(appointment).Error
}

func (r *appointmentRepository) FindByID(db *gorm.DB, id uint) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Preload("Patient").Preload("Specialist").Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindByIDs(db *gorm.DB, ids []uint) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	if len(ids) == 0 {
		return appointments, nil
	}
	err := db.Preload("Patient").Preload("Specialist").Where("id IN ?", ids).Order("id ASC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindByPatientID(db *gorm.DB, patientID uint) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Preload("Specialist").
		Where("patient_id = ?", patientID).
		Order("appointment_date DESC, appointment_time DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// LockPendingByID takes a row lock on the appointment only while it is still
// Pending, so two concurrent approvals cannot both see it as pending.
func (r *appointmentRepository) LockPendingByID(db *gorm.DB, id uint) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND status = ?", id, entity.AppointmentStatusPending).
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) LockByID(db *gorm.DB, id uint) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

// LockByIDs locks the appointments in id order to keep lock acquisition
// consistent across transactions.
func (r *appointmentRepository) LockByIDs(db *gorm.DB, ids []uint) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	if len(ids) == 0 {
		return appointments, nil
	}
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindDuplicate(db *gorm.DB, patientID uint, specialistID *uint, date time.Time, clock string) (*entity.Appointment, error) {
	var appointment entity.Appointment
	query := db.Where("patient_id = ? AND appointment_date = ? AND appointment_time = ? AND status <> ?",
		patientID, date, clock, entity.AppointmentStatusCancelled)
	if specialistID != nil {
		query = query.Where("specialist_id = ?", *specialistID)
	} else {
		query = query.Where("specialist_id IS NULL")
	}
	err := query.First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Omit(clause.Associations).Save(appointment).Error
}

func (r *appointmentRepository) UpdateStatusByIDs(db *gorm.DB, ids []uint, status entity.AppointmentStatus) error {
	if len(ids) == 0 {
		return nil
	}
	return db.Model(&entity.Appointment{}).Where("id IN ?", ids).Update("status", status).Error
}

func (r *appointmentRepository) UpdateBillingStatusByIDs(db *gorm.DB, ids []uint, status entity.BillingStatus) error {
	if len(ids) == 0 {
		return nil
	}
	return db.Model(&entity.Appointment{}).Where("id IN ?", ids).Update("billing_status", status).Error
}
