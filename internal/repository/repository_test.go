package repository

import (
	"testing"
	"time"

	"go-clinic-management/internal/domain/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestAppointmentRepository_LockPendingByID_SelectsForUpdate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAppointmentRepository()

	rows := sqlmock.NewRows([]string{"id", "appointment_code", "patient_id", "status"}).
		AddRow(7, "A0007", 3, "Pending")
	mock.ExpectQuery(`SELECT \* FROM "appointments" WHERE \(id = \$1 AND status = \$2\).* FOR UPDATE`).
		WillReturnRows(rows)

	appointment, err := repo.LockPendingByID(db, 7)
	require.NoError(t, err)
	require.NotNil(t, appointment)
	assert.Equal(t, uint(7), appointment.ID)
	assert.Equal(t, entity.AppointmentStatusPending, appointment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_LockPendingByID_NoRowReturnsNil(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAppointmentRepository()

	mock.ExpectQuery(`FROM "appointments" .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	appointment, err := repo.LockPendingByID(db, 7)
	require.NoError(t, err)
	assert.Nil(t, appointment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBillingRepository_LockPendingTransaction_SelectsForUpdate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBillingRepository()

	rows := sqlmock.NewRows([]string{"id", "transaction_code", "patient_id", "status"}).
		AddRow(11, "TXN-000011", 3, "pending")
	mock.ExpectQuery(`SELECT \* FROM "billing_transactions" WHERE id = \$1 AND LOWER\(status\) = \$2 .* FOR UPDATE`).
		WillReturnRows(rows)

	transaction, err := repo.LockPendingTransaction(db, 11)
	require.NoError(t, err)
	require.NotNil(t, transaction)
	assert.Equal(t, "TXN-000011", transaction.TransactionCode)
	assert.True(t, transaction.IsPending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkRead_OnlyUnread(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewNotificationRepository()

	mock.ExpectExec(`UPDATE "notifications" SET "read_at"=\$1 WHERE id = \$2 AND user_id = \$3 AND read_at IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.MarkRead(db, 5, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_AppointmentsPerDay_HalfOpenRange(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReportRepository()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"day", "count"}).
		AddRow(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 3).
		AddRow(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), 1)
	mock.ExpectQuery(`SELECT "appointment_date" AS "day", COUNT\(\*\) AS "count" FROM "appointments" ` +
		`WHERE \(\("deleted_at" IS NULL\) AND \("appointment_date" >= '2024-01-01'\) AND \("appointment_date" < '2024-01-08'\)\) ` +
		`GROUP BY "appointment_date" ORDER BY "appointment_date" ASC`).
		WillReturnRows(rows)

	result, err := repo.AppointmentsPerDay(db, from, until)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, int64(3), result[0].Count)
	assert.Equal(t, 5, result[1].Day.Day())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_RevenuePerDay_PaidOnly(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReportRepository()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"day", "transactions", "total"}).
		AddRow(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 2, "1300.00")
	mock.ExpectQuery(`FROM "daily_transactions" WHERE \(\("status" = 'paid'\) AND \("transaction_date" >= '2024-01-01'\) AND \("transaction_date" < '2024-02-01'\)\)`).
		WillReturnRows(rows)

	result, err := repo.RevenuePerDay(db, from, until)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, int64(2), result[0].Transactions)
	assert.True(t, decimal.RequireFromString("1300").Equal(result[0].Total))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_LabTestUsage_Limit(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReportRepository()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"lab_test_id", "code", "name", "requests", "revenue"}).
		AddRow(1, "cbc", "Complete Blood Count", 4, "2000.00")
	mock.ExpectQuery(`FROM "appointment_lab_tests" AS "alt" INNER JOIN "lab_tests" AS "lt" .* ORDER BY "requests" DESC, "lt"."id" ASC LIMIT 5`).
		WillReturnRows(rows)

	result, err := repo.LabTestUsage(db, from, until, 5)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "cbc", result[0].Code)
	assert.Equal(t, int64(4), result[0].Requests)
	assert.NoError(t, mock.ExpectationsWereMet())
}
