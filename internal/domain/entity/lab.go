package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// LabTest is an orderable test in the lab catalog.
type LabTest struct {
	ID        uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Code      string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"code"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	IsActive  bool            `gorm:"not null" json:"is_active"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (LabTest) TableName() string {
	return "lab_tests"
}

// AppointmentLabTest is a lab test billed on an appointment. Price is the
// catalog price at the time the test was added.
type AppointmentLabTest struct {
	ID            uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	AppointmentID uint            `gorm:"not null;index" json:"appointment_id"`
	LabTestID     uint            `gorm:"not null;index" json:"lab_test_id"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	AddedBy       *uint           `json:"added_by,omitempty"`
	Notes         string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`

	LabTest *LabTest `gorm:"foreignKey:LabTestID" json:"lab_test,omitempty"`
}

func (AppointmentLabTest) TableName() string {
	return "appointment_lab_tests"
}

type LabOrderStatus string

const (
	LabOrderStatusOrdered   LabOrderStatus = "ordered"
	LabOrderStatusCompleted LabOrderStatus = "completed"
	LabOrderStatusCancelled LabOrderStatus = "cancelled"
)

// LabOrder groups the tests requested together for a visit or appointment.
type LabOrder struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientID     uint           `gorm:"not null;index" json:"patient_id"`
	AppointmentID *uint          `gorm:"index" json:"appointment_id,omitempty"`
	VisitID       *uint          `gorm:"index" json:"visit_id,omitempty"`
	OrderedBy     *uint          `json:"ordered_by,omitempty"`
	Status        LabOrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Notes         string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	Results []LabResult `gorm:"foreignKey:LabOrderID" json:"results,omitempty"`
}

func (LabOrder) TableName() string {
	return "lab_orders"
}

type LabResultStatus string

const (
	LabResultStatusPending   LabResultStatus = "pending"
	LabResultStatusCompleted LabResultStatus = "completed"
)

// LabResult holds the outcome of one test of an order. Results stay empty
// until the lab fills them in.
type LabResult struct {
	ID         uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	LabOrderID uint              `gorm:"not null;index" json:"lab_order_id"`
	LabTestID  uint              `gorm:"not null;index" json:"lab_test_id"`
	Status     LabResultStatus   `gorm:"type:varchar(20);not null" json:"status"`
	Results    datatypes.JSONMap `json:"results"`
	CreatedAt  time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (LabResult) TableName() string {
	return "lab_results"
}
