package repository

import (
	"go-clinic-management/internal/domain/entity"

	"gorm.io/gorm"
)

type LabRepository interface {
	FindActiveTestsByIDs(db *gorm.DB, ids []uint) ([]entity.LabTest, error)
	FindAppointmentLabTests(db *gorm.DB, appointmentID uint) ([]entity.AppointmentLabTest, error)
	CreateAppointmentLabTests(db *gorm.DB, tests []entity.AppointmentLabTest) error
	DeleteAppointmentLabTest(db *gorm.DB, appointmentID, labTestID uint) (int64, error)
	CreateOrder(db *gorm.DB, order *entity.LabOrder) error
	// FindOutstandingTestIDs lists test ids already requested by a
	// non-cancelled order of the visit or appointment.
	FindOutstandingTestIDs(db *gorm.DB, visitID, appointmentID *uint) ([]uint, error)
	DeletePendingResults(db *gorm.DB, appointmentID, labTestID uint) (int64, error)
	CancelEmptyOrders(db *gorm.DB, appointmentID uint) (int64, error)
}
