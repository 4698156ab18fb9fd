// Package testutil builds throwaway databases and loggers for package tests.
package testutil

import (
	"testing"
	"time"

	"go-clinic-management/internal/domain/entity"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table the workflow touches.
var Models = []interface{}{
	&entity.User{},
	&entity.Patient{},
	&entity.Specialist{},
	&entity.Appointment{},
	&entity.Visit{},
	&entity.LabTest{},
	&entity.AppointmentLabTest{},
	&entity.LabOrder{},
	&entity.LabResult{},
	&entity.BillingTransaction{},
	&entity.BillingTransactionItem{},
	&entity.AppointmentBillingLink{},
	&entity.DailyTransaction{},
	&entity.Notification{},
	&entity.AuditLog{},
}

// NewSQLiteDB opens a migrated in-memory database. The pool is pinned to a
// single connection, so transactions from concurrent goroutines serialize
// and row locks behave like they do on postgres.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Models...))
	return db
}

// NullLogger discards output but keeps entries on the returned hook.
func NullLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}

// Fixtures are the reference rows most workflow tests start from.
type Fixtures struct {
	Admin        entity.User
	Doctor       entity.User
	PatientUser  entity.User
	Specialist   entity.Specialist
	CBC          entity.LabTest
	Urinalysis   entity.LabTest
	InactiveTest entity.LabTest
}

// Seed inserts an admin, a doctor with a specialist profile, a patient
// portal account and a small lab catalog.
func Seed(t testing.TB, db *gorm.DB) *Fixtures {
	t.Helper()

	f := &Fixtures{
		Admin:       entity.User{Name: "Clinic Admin", Email: "admin@clinic.test", Role: entity.RoleAdmin, IsActive: true},
		Doctor:      entity.User{Name: "Dr. Reyes", Email: "reyes@clinic.test", Role: entity.RoleDoctor, IsActive: true},
		PatientUser: entity.User{Name: "Maria Santos", Email: "maria@clinic.test", Role: entity.RolePatient, IsActive: true},
	}
	require.NoError(t, db.Create(&f.Admin).Error)
	require.NoError(t, db.Create(&f.Doctor).Error)
	require.NoError(t, db.Create(&f.PatientUser).Error)

	f.Specialist = entity.Specialist{
		Name:           "Dr. Reyes",
		SpecialistType: entity.SpecialistTypeDoctor,
		UserID:         &f.Doctor.ID,
		IsActive:       true,
	}
	require.NoError(t, db.Create(&f.Specialist).Error)

	f.CBC = entity.LabTest{Code: "cbc", Name: "Complete Blood Count", Price: decimal.NewFromInt(500), IsActive: true}
	f.Urinalysis = entity.LabTest{Code: "urinalysis", Name: "Urinalysis", Price: decimal.NewFromInt(500), IsActive: true}
	f.InactiveTest = entity.LabTest{Code: "retired", Name: "Retired Panel", Price: decimal.NewFromInt(100), IsActive: false}
	require.NoError(t, db.Create(&f.CBC).Error)
	require.NoError(t, db.Create(&f.Urinalysis).Error)
	require.NoError(t, db.Create(&f.InactiveTest).Error)

	return f
}
