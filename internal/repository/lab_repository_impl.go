package repository

import (
	"go-clinic-management/internal/domain/entity"
	domainRepo "go-clinic-management/internal/domain/repository"

	"gorm.io/gorm"
)

type labRepository struct{}

func NewLabRepository() domainRepo.LabRepository {
	return &labRepository{}
}

func (r *labRepository) FindActiveTestsByIDs(db *gorm.DB, ids []uint) ([]entity.LabTest, error) {
	var tests []entity.LabTest
	if len(ids) == 0 {
		return tests, nil
	}
	err := db.Where("id IN ? AND is_active = ?", ids, true).Order("id ASC").Find(&tests).Error
	if err != nil {
		return nil, err
	}
	return tests, nil
}

func (r *labRepository) FindAppointmentLabTests(db *gorm.DB, appointmentID uint) ([]entity.AppointmentLabTest, error) {
	var tests []entity.AppointmentLabTest
	err := db.Preload("LabTest").Where("appointment_id = ?", appointmentID).Order("id ASC").Find(&tests).Error
	if err != nil {
		return nil, err
	}
	return tests, nil
}

func (r *labRepository) CreateAppointmentLabTests(db *gorm.DB, tests []entity.AppointmentLabTest) error {
	if len(tests) == 0 {
		return nil
	}
	return db.Omit("LabTest").Create(&tests).Error
}

func (r *labRepository) DeleteAppointmentLabTest(db *gorm.DB, appointmentID, labTestID uint) (int64, error) {
	result := db.Where("appointment_id = ? AND lab_test_id = ?", appointmentID, labTestID).
		Delete(&entity.AppointmentLabTest{})
	return result.RowsAffected, result.Error
}

// CreateOrder inserts the order and its results.
func (r *labRepository) CreateOrder(db *gorm.DB, order *entity.LabOrder) error {
	return db.Create(order).Error
}

func (r *labRepository) FindOutstandingTestIDs(db *gorm.DB, visitID, appointmentID *uint) ([]uint, error) {
	var ids []uint
	if visitID == nil && appointmentID == nil {
		return ids, nil
	}
	query := db.Model(&entity.LabResult{}).
		Distinct("lab_results.lab_test_id").
		Joins("JOIN lab_orders ON lab_orders.id = lab_results.lab_order_id").
		Where("lab_orders.status <> ?", entity.LabOrderStatusCancelled)
	switch {
	case visitID != nil && appointmentID != nil:
		query = query.Where("(lab_orders.visit_id = ? OR lab_orders.appointment_id = ?)", *visitID, *appointmentID)
	case visitID != nil:
		query = query.Where("lab_orders.visit_id = ?", *visitID)
	default:
		query = query.Where("lab_orders.appointment_id = ?", *appointmentID)
	}
	err := query.Pluck("lab_results.lab_test_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// DeletePendingResults drops results of labTestID not yet filled in by the
// lab on the appointment's open orders.
func (r *labRepository) DeletePendingResults(db *gorm.DB, appointmentID, labTestID uint) (int64, error) {
	orders := db.Model(&entity.LabOrder{}).
		Select("id").
		Where("appointment_id = ? AND status = ?", appointmentID, entity.LabOrderStatusOrdered)
	result := db.Where("lab_test_id = ? AND status = ? AND lab_order_id IN (?)",
		labTestID, entity.LabResultStatusPending, orders).
		Delete(&entity.LabResult{})
	return result.RowsAffected, result.Error
}

func (r *labRepository) CancelEmptyOrders(db *gorm.DB, appointmentID uint) (int64, error) {
	result := db.Model(&entity.LabOrder{}).
		Where("appointment_id = ? AND status = ?", appointmentID, entity.LabOrderStatusOrdered).
		Where("NOT EXISTS (SELECT 1 FROM lab_results WHERE lab_results.lab_order_id = lab_orders.id)").
		Update("status", entity.LabOrderStatusCancelled)
	return result.RowsAffected, result.Error
}
