package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Report rows are read models scanned from grouped queries, not tables.

type DailyCount struct {
	Day   time.Time
	Count int64
}

type LabTestUsage struct {
	LabTestID uint
	Code      string
	Name      string
	Requests  int64
	Revenue   decimal.Decimal
}

type DailyRevenue struct {
	Day          time.Time
	Transactions int64
	Total        decimal.Decimal
}

type StatusCount struct {
	Status string
	Count  int64
}
