package validator

import (
	"testing"

	"go-clinic-management/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name string `json:"name" validate:"required"`
	Date string `json:"appointment_date" validate:"required,clockdate"`
	Time string `json:"appointment_time" validate:"required,clocktime"`
	Type string `json:"appointment_type" validate:"omitempty,oneof=consultation x-ray"`
}

func TestCheck_Valid(t *testing.T) {
	v := NewValidator()
	err := v.Check(&sampleRequest{Name: "Juan", Date: "2024-01-15", Time: "9:00 AM", Type: "x-ray"})
	assert.NoError(t, err)
}

func TestCheck_ReportsJSONFieldNames(t *testing.T) {
	v := NewValidator()
	err := v.Check(&sampleRequest{Date: "yesterday", Time: "25:99", Type: "massage"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrValidationFailure)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "name is required", appErr.Fields["name"])
	assert.Equal(t, "appointment_date must be a date (YYYY-MM-DD)", appErr.Fields["appointment_date"])
	assert.Equal(t, "appointment_time must be a time (HH:MM or HH:MM:SS)", appErr.Fields["appointment_time"])
	assert.Contains(t, appErr.Fields["appointment_type"], "must be one of")
}
