package dto

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLogQuery is read from the query string of GET /admin/audit-logs.
type AuditLogQuery struct {
	Action   string `json:"action" validate:"omitempty,max=100"`
	Entity   string `json:"entity" validate:"omitempty,oneof=appointment billing_transaction lab_order integrity"`
	EntityID *uint  `json:"entity_id" validate:"omitempty,min=1"`
	UserID   *uint  `json:"user_id" validate:"omitempty,min=1"`
	From     string `json:"from" validate:"omitempty,clockdate"`
	To       string `json:"to" validate:"omitempty,clockdate"`
	Limit    int    `json:"limit" validate:"omitempty,min=1,max=500"`
}

type AuditLogResponse struct {
	ID        uint              `json:"id"`
	UserID    *uint             `json:"user_id,omitempty"`
	Action    string            `json:"action"`
	Entity    string            `json:"entity,omitempty"`
	EntityID  *uint             `json:"entity_id,omitempty"`
	Changes   datatypes.JSONMap `json:"changes,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs []AuditLogResponse `json:"logs"`
	// Total counts every matching entry, Logs holds at most the limit.
	Total int64 `json:"total"`
}
