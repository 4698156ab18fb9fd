package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types
const (
	NotificationAppointmentRequest  = "appointment_request"
	NotificationAppointmentApproved = "appointment_approved"
	NotificationAppointmentRejected = "appointment_rejected"
	NotificationPaymentReceived     = "payment_received"
	NotificationLabTestsOrdered     = "lab_tests_ordered"
)

// Notification is an in-app message addressed to one user.
type Notification struct {
	ID        uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint              `gorm:"not null;index" json:"user_id"`
	Type      string            `gorm:"type:varchar(50);not null;index" json:"type"`
	Title     string            `gorm:"type:varchar(255);not null" json:"title"`
	Message   string            `gorm:"type:text" json:"message"`
	Data      datatypes.JSONMap `json:"data,omitempty"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	CreatedAt time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// IsRead reports whether the user has opened the notification
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}
