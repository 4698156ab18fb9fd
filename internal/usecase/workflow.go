package usecase

import (
	"errors"

	"go-clinic-management/internal/domain/entity"
	"go-clinic-management/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

// pgUniqueViolation is the SQLSTATE Postgres reports for a duplicate key
const pgUniqueViolation = "23505"

// translateDBError maps a unique violation (for example two transactions
// generating the same display code) to an invariant violation the caller
// may retry. Other errors pass through unchanged.
func translateDBError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &apperror.Error{
			Kind:    apperror.KindInvariantViolation,
			Message: "conflicting concurrent write on " + pgErr.ConstraintName + ", retry the request",
			Err:     err,
		}
	}
	return err
}

// fail logs a workflow failure with its context and hands the error back.
// Domain errors are expected outcomes and log at info.
func fail(log *logrus.Logger, op string, fields logrus.Fields, err error) error {
	err = translateDBError(err)
	entry := log.WithFields(fields).WithField("operation", op)
	if apperror.KindOf(err) != "" {
		entry.Infof("Workflow rejected: %v", err)
	} else {
		entry.Warnf("Workflow failed: %+v", err)
	}
	return err
}

// missingIDs lists the requested ids that found no appointment.
func missingIDs(requested []uint, found []entity.Appointment) []uint {
	present := make(map[uint]bool, len(found))
	for _, a := range found {
		present[a.ID] = true
	}
	var missing []uint
	for _, id := range requested {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
