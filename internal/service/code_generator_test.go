package service

import (
	"testing"

	"go-clinic-management/internal/domain/entity"
	"go-clinic-management/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCode(t *testing.T) {
	assert.Equal(t, "P0001", FormatCode("P", 4, 1))
	assert.Equal(t, "A0042", FormatCode("A", 4, 42))
	assert.Equal(t, "TXN-000123", FormatCode("TXN-", 6, 123))
	assert.Equal(t, "V12345", FormatCode("V", 4, 12345))
}

func TestCodeGenerator_StableUntilTableChanges(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	codes := NewCodeGenerator()

	first, err := NextCode(codes, db, AppointmentCode)
	require.NoError(t, err)
	again, err := NextCode(codes, db, AppointmentCode)
	require.NoError(t, err)
	assert.Equal(t, "A0001", first)
	assert.Equal(t, first, again)

	require.NoError(t, db.Create(&entity.Appointment{
		AppointmentCode:  first,
		PatientID:        1,
		AppointmentType:  entity.AppointmentTypeConsultation,
		AppointmentTime:  "09:00:00",
		Status:           entity.AppointmentStatusPending,
		Source:           entity.AppointmentSourceOnline,
		BillingStatus:    entity.BillingStatusPending,
		Price:            decimal.NewFromInt(300),
		TotalLabAmount:   decimal.Zero,
		FinalTotalAmount: decimal.NewFromInt(300),
	}).Error)

	next, err := NextCode(codes, db, AppointmentCode)
	require.NoError(t, err)
	assert.Equal(t, "A0002", next)
}

func TestCodeGenerator_CountsSoftDeletedRows(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	codes := NewCodeGenerator()

	patient := &entity.Patient{PatientNo: "P0001", FirstName: "Ana", LastName: "Lim"}
	require.NoError(t, db.Create(patient).Error)
	require.NoError(t, db.Delete(patient).Error)

	code, err := NextCode(codes, db, PatientCode)
	require.NoError(t, err)
	assert.Equal(t, "P0002", code)
}
