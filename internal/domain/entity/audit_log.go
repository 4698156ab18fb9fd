package entity

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is one workflow step, addressed by the row it touched. Metadata
// keeps the old and new values.
type AuditLog struct {
	ID         uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     *uint             `gorm:"index" json:"user_id,omitempty"`
	Action     string            `gorm:"type:varchar(100);not null;index" json:"action"`
	EntityName string            `gorm:"type:varchar(50);index:idx_audit_logs_entity" json:"entity_name,omitempty"`
	EntityID   *uint             `gorm:"index:idx_audit_logs_entity" json:"entity_id,omitempty"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
}

// AuditLogFilter narrows the audit trail. Zero fields match everything;
// Until is exclusive.
type AuditLogFilter struct {
	Action     string
	EntityName string
	EntityID   *uint
	UserID     *uint
	Since      *time.Time
	Until      *time.Time
	Limit      int
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// Workflow audit actions
const (
	AuditActionAppointmentCreate  = "appointment.create"
	AuditActionAppointmentApprove = "appointment.approve"
	AuditActionAppointmentReject  = "appointment.reject"
	AuditActionBillingCreate      = "billing.create"
	AuditActionBillingPay         = "billing.pay"
	AuditActionBillingCancel      = "billing.cancel"
	AuditActionLabAttach          = "lab.attach"
	AuditActionLabRemove          = "lab.remove"
	AuditActionIntegrityRepair    = "integrity.repair"
)
