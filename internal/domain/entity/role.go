package entity

// Role names stored on users.role
const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RoleMedtech = "medtech"
	RoleNurse   = "nurse"
	RolePatient = "patient"
)
