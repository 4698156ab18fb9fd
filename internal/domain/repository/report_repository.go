package repository

import (
	"time"

	"go-clinic-management/internal/domain/entity"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportRepository runs the read-only dashboard aggregates. Day ranges are
// half-open: from is included, until is excluded.
type ReportRepository interface {
	CountPatients(db *gorm.DB) (int64, error)
	CountVisits(db *gorm.DB) (int64, error)
	CountAppointmentsByStatus(db *gorm.DB) ([]entity.StatusCount, error)
	SumTransactions(db *gorm.DB, status entity.TransactionStatus) (decimal.Decimal, error)
	AppointmentsPerDay(db *gorm.DB, from, until time.Time) ([]entity.DailyCount, error)
	LabTestUsage(db *gorm.DB, from, until time.Time, limit int) ([]entity.LabTestUsage, error)
	RevenuePerDay(db *gorm.DB, from, until time.Time) ([]entity.DailyRevenue, error)
}
