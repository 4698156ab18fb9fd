package repository

import (
	"strings"
	"time"

	"go-clinic-management/internal/domain/entity"
	domainRepo "go-clinic-management/internal/domain/repository"
	"go-clinic-management/pkg/datetime"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type reportRepository struct{}

func NewReportRepository() domainRepo.ReportRepository {
	return &reportRepository{}
}

// dialectFor picks the goqu dialect matching the gorm connection.
func dialectFor(db *gorm.DB) goqu.DialectWrapper {
	if db.Dialector != nil && db.Dialector.Name() == "sqlite" {
		return goqu.Dialect("sqlite3")
	}
	return goqu.Dialect("postgres")
}

func (r *reportRepository) CountPatients(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&entity.Patient{}).Count(&count).Error
	return count, err
}

func (r *reportRepository) CountVisits(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&entity.Visit{}).Count(&count).Error
	return count, err
}

func (r *reportRepository) CountAppointmentsByStatus(db *gorm.DB) ([]entity.StatusCount, error) {
	var rows []entity.StatusCount
	err := db.Model(&entity.Appointment{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&rows).Error
	return rows, err
}

func (r *reportRepository) SumTransactions(db *gorm.DB, status entity.TransactionStatus) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := db.Model(&entity.BillingTransaction{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("LOWER(status) = ?", strings.ToLower(string(status))).
		Row().
		Scan(&total)
	return total, err
}

func (r *reportRepository) AppointmentsPerDay(db *gorm.DB, from, until time.Time) ([]entity.DailyCount, error) {
	query, _, err := dialectFor(db).
		From("appointments").
		Select(
			goqu.C("appointment_date").As("day"),
			goqu.COUNT(goqu.Star()).As("count"),
		).
		Where(
			goqu.C("deleted_at").IsNull(),
			goqu.C("appointment_date").Gte(from.Format(datetime.DateLayout)),
			goqu.C("appointment_date").Lt(until.Format(datetime.DateLayout)),
		).
		GroupBy(goqu.C("appointment_date")).
		Order(goqu.C("appointment_date").Asc()).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []entity.DailyCount
	err = db.Raw(query).Scan(&rows).Error
	return rows, err
}

func (r *reportRepository) LabTestUsage(db *gorm.DB, from, until time.Time, limit int) ([]entity.LabTestUsage, error) {
	ds := dialectFor(db).
		From(goqu.T("appointment_lab_tests").As("alt")).
		Join(goqu.T("lab_tests").As("lt"), goqu.On(goqu.Ex{"lt.id": goqu.I("alt.lab_test_id")})).
		Select(
			goqu.I("lt.id").As("lab_test_id"),
			goqu.I("lt.code").As("code"),
			goqu.I("lt.name").As("name"),
			goqu.COUNT(goqu.I("alt.id")).As("requests"),
			goqu.COALESCE(goqu.SUM(goqu.I("alt.price")), 0).As("revenue"),
		).
		Where(
			goqu.I("alt.created_at").Gte(from.Format(datetime.DateLayout)),
			goqu.I("alt.created_at").Lt(until.Format(datetime.DateLayout)),
		).
		GroupBy(goqu.I("lt.id"), goqu.I("lt.code"), goqu.I("lt.name")).
		Order(goqu.C("requests").Desc(), goqu.I("lt.id").Asc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, _, err := ds.ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []entity.LabTestUsage
	err = db.Raw(query).Scan(&rows).Error
	return rows, err
}

func (r *reportRepository) RevenuePerDay(db *gorm.DB, from, until time.Time) ([]entity.DailyRevenue, error) {
	query, _, err := dialectFor(db).
		From("daily_transactions").
		Select(
			goqu.C("transaction_date").As("day"),
			goqu.COUNT(goqu.Star()).As("transactions"),
			goqu.COALESCE(goqu.SUM(goqu.C("total_amount")), 0).As("total"),
		).
		Where(
			goqu.C("status").Eq(string(entity.TransactionStatusPaid)),
			goqu.C("transaction_date").Gte(from.Format(datetime.DateLayout)),
			goqu.C("transaction_date").Lt(until.Format(datetime.DateLayout)),
		).
		GroupBy(goqu.C("transaction_date")).
		Order(goqu.C("transaction_date").Asc()).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []entity.DailyRevenue
	err = db.Raw(query).Scan(&rows).Error
	return rows, err
}
