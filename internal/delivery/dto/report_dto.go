package dto

import "github.com/shopspring/decimal"

// Request DTOs

// ReportRangeRequest is an inclusive day range read from the query string.
type ReportRangeRequest struct {
	From  string `json:"from" validate:"required,clockdate"`
	To    string `json:"to" validate:"required,clockdate"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

// Response DTOs

type StatisticsResponse struct {
	TotalPatients        int64            `json:"total_patients"`
	TotalAppointments    int64            `json:"total_appointments"`
	AppointmentsByStatus map[string]int64 `json:"appointments_by_status"`
	TotalVisits          int64            `json:"total_visits"`
	PendingRevenue       decimal.Decimal  `json:"pending_revenue"`
	PaidRevenue          decimal.Decimal  `json:"paid_revenue"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type LabTestUsage struct {
	LabTestID uint            `json:"lab_test_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Requests  int64           `json:"requests"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type DailyRevenue struct {
	Date         string          `json:"date"`
	Transactions int64           `json:"transactions"`
	Total        decimal.Decimal `json:"total"`
}

type RepairStepResponse struct {
	Step     string `json:"step"`
	Repaired int    `json:"repaired"`
	Error    string `json:"error,omitempty"`
}

type RepairResponse struct {
	Steps         []RepairStepResponse `json:"steps"`
	TotalRepaired int                  `json:"total_repaired"`
}
