package dto

import "time"

// Request DTOs

// PatientRequest is the identity block of a booking form.
type PatientRequest struct {
	FirstName          string `json:"first_name" validate:"required,max=100"`
	MiddleName         string `json:"middle_name" validate:"omitempty,max=100"`
	LastName           string `json:"last_name" validate:"required,max=100"`
	Birthdate          string `json:"birthdate" validate:"omitempty,clockdate"`
	Sex                string `json:"sex" validate:"omitempty,oneof=Male Female"`
	MobileNo           string `json:"mobile_no" validate:"omitempty,max=20"`
	Email              string `json:"email" validate:"omitempty,email"`
	Address            string `json:"address" validate:"omitempty,max=500"`
	MedicalHistory     string `json:"medical_history"`
	Allergies          string `json:"allergies"`
	CurrentMedications string `json:"current_medications"`
}

// Response DTOs

type PatientResponse struct {
	ID        uint       `json:"id"`
	PatientNo string     `json:"patient_no"`
	FullName  string     `json:"full_name"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Birthdate *string    `json:"birthdate,omitempty"`
	Sex       string     `json:"sex,omitempty"`
	MobileNo  string     `json:"mobile_no,omitempty"`
	Email     string     `json:"email,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}
