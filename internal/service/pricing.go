package service

import (
	"go-clinic-management/internal/domain/entity"
	"go-clinic-management/pkg/apperror"

	"github.com/shopspring/decimal"
)

var appointmentPrices = map[string]decimal.Decimal{
	entity.AppointmentTypeConsultation:        decimal.NewFromInt(300),
	entity.AppointmentTypeGeneralConsultation: decimal.NewFromInt(300),
	entity.AppointmentTypeFecalysis:           decimal.NewFromInt(500),
	entity.AppointmentTypeCBC:                 decimal.NewFromInt(500),
	entity.AppointmentTypeUrinalysis:          decimal.NewFromInt(500),
	entity.AppointmentTypeXRay:                decimal.NewFromInt(700),
	entity.AppointmentTypeUltrasound:          decimal.NewFromInt(800),
}

// ManualTransactionCap is the most a manual_transaction appointment is billed.
var ManualTransactionCap = decimal.NewFromInt(350)

// IsKnownAppointmentType reports whether the type has a price rule.
func IsKnownAppointmentType(appointmentType string) bool {
	if appointmentType == entity.AppointmentTypeManualTransaction {
		return true
	}
	_, ok := appointmentPrices[appointmentType]
	return ok
}

// AppointmentPrice applies the price table. requested is only read for
// manual_transaction appointments and is clamped to ManualTransactionCap.
func AppointmentPrice(appointmentType string, requested decimal.Decimal) (decimal.Decimal, error) {
	if appointmentType == entity.AppointmentTypeManualTransaction {
		if requested.IsNegative() {
			return decimal.Zero, apperror.Validation("price must not be negative")
		}
		if requested.GreaterThanOrEqual(ManualTransactionCap) {
			return ManualTransactionCap, nil
		}
		return requested, nil
	}
	price, ok := appointmentPrices[appointmentType]
	if !ok {
		return decimal.Zero, apperror.Validation("unknown appointment type %q", appointmentType)
	}
	return price, nil
}

// ConsultationPrice is the consultation line billed for an appointment.
func ConsultationPrice(appointment *entity.Appointment) decimal.Decimal {
	if appointment.AppointmentType == entity.AppointmentTypeManualTransaction &&
		appointment.Price.GreaterThanOrEqual(ManualTransactionCap) {
		return ManualTransactionCap
	}
	if appointment.Price.IsPositive() {
		return appointment.Price
	}
	if price, ok := appointmentPrices[appointment.AppointmentType]; ok {
		return price
	}
	return decimal.Zero
}
