package service

import (
	"fmt"

	"gorm.io/gorm"
)

// CodeSpec names the table a display code is derived from and its format.
type CodeSpec struct {
	Table  string
	Prefix string
	Width  int
}

var (
	PatientCode     = CodeSpec{Table: "patients", Prefix: "P", Width: 4}
	AppointmentCode = CodeSpec{Table: "appointments", Prefix: "A", Width: 4}
	VisitCode       = CodeSpec{Table: "visits", Prefix: "V", Width: 4}
	TransactionCode = CodeSpec{Table: "billing_transactions", Prefix: "TXN-", Width: 6}
)

// CodeGenerator produces the human readable sequential codes shown to staff.
type CodeGenerator interface {
	Next(tx *gorm.DB, table, prefix string, width int) (string, error)
}

// maxIDCodeGenerator derives the next code from MAX(id)+1 of the table.
// Two transactions running concurrently can compute the same code; the
// unique index on each code column makes the later commit fail.
type maxIDCodeGenerator struct{}

func NewCodeGenerator() CodeGenerator {
	return &maxIDCodeGenerator{}
}

func (g *maxIDCodeGenerator) Next(tx *gorm.DB, table, prefix string, width int) (string, error) {
	var maxID int64
	// Table() skips the soft delete scope, so deleted rows still count
	err := tx.Table(table).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error
	if err != nil {
		return "", fmt.Errorf("read max id of %s: %w", table, err)
	}
	return FormatCode(prefix, width, maxID+1), nil
}

// NextCode is Next for one of the predefined code specs.
func NextCode(g CodeGenerator, tx *gorm.DB, cs CodeSpec) (string, error) {
	return g.Next(tx, cs.Table, cs.Prefix, cs.Width)
}

// FormatCode left pads n with zeros to width and prepends prefix.
func FormatCode(prefix string, width int, n int64) string {
	return fmt.Sprintf("%s%0*d", prefix, width, n)
}
