package models

import "time"

// Account roles
const (
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

// Account represents a portal user. Doctors and patients are two variants
// of the same entity, discriminated by Role; the per-role profile fields
// are empty for the other variant.
type Account struct {
	ID           int64  `json:"id"`
	Role         string `json:"role"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`

	// Doctor profile
	Name           string `json:"name,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	LicenseNumber  string `json:"license_number,omitempty"`
	HospitalName   string `json:"hospital_name,omitempty"`

	// Patient profile
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
	Phone            string `json:"phone,omitempty"`
	DateOfBirth      string `json:"date_of_birth,omitempty"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
	EmergencyPhone   string `json:"emergency_phone,omitempty"`
	TwoFactorEnabled bool   `json:"two_factor_enabled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName returns the name to address the account holder by
func (a *Account) DisplayName() string {
	if a.Role == RoleDoctor {
		return a.Name
	}
	return a.FirstName + " " + a.LastName
}
