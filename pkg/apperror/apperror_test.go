package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindSentinels(t *testing.T) {
	err := NotFoundOrAlreadyProcessed("appointment %d not found or already processed", 7).WithOp("appointment.approve")

	assert.ErrorIs(t, err, ErrNotFoundOrAlreadyProcessed)
	assert.NotErrorIs(t, err, ErrValidationFailure)
	assert.Equal(t, "appointment.approve: appointment 7 not found or already processed", err.Error())

	wrapped := fmt.Errorf("handler: %w", err)
	assert.ErrorIs(t, wrapped, ErrNotFoundOrAlreadyProcessed)
	assert.Equal(t, KindNotFoundOrAlreadyProcessed, KindOf(wrapped))
}

func TestValidationFieldsMessage(t *testing.T) {
	err := ValidationFields(map[string]string{
		"last_name":  "last_name is required",
		"first_name": "first_name is required",
	})
	assert.Equal(t, "validation failed (first_name is required; last_name is required)", err.Error())
	assert.Equal(t, KindValidationFailure, KindOf(err))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))

	inner := errors.New("db down")
	err := &Error{Kind: KindInvariantViolation, Message: "no lab tests", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}
