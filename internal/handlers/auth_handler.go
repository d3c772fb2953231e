package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"metabridge/internal/models"
	"metabridge/internal/service"
	"metabridge/internal/validation"
)

// AuthHandler handles registration and the two-step login flow
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type doctorSignupRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Specialization string `json:"specialization"`
	LicenseNumber  string `json:"license_number"`
	HospitalName   string `json:"hospital_name"`
}

type patientRegisterRequest struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	DateOfBirth      string `json:"date_of_birth"`
	Password         string `json:"password"`
	EmergencyContact string `json:"emergency_contact"`
	EmergencyPhone   string `json:"emergency_phone"`
	TwoFactorEnabled bool   `json:"two_factor_enabled"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type registerResponse struct {
	Message string          `json:"message"`
	Account *models.Account `json:"account"`
	Token   string          `json:"token"`
}

type verifyOTPResponse struct {
	Token   string          `json:"token"`
	Account *models.Account `json:"account"`
}

// DoctorSignup handles POST /api/doctor/signup
func (h *AuthHandler) DoctorSignup(w http.ResponseWriter, r *http.Request) {
	var req doctorSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	account, token, err := h.authService.RegisterDoctor(req.Name, req.Email, req.Password,
		req.Specialization, req.LicenseNumber, req.HospitalName)
	if err != nil {
		h.respondRegisterError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, registerResponse{
		Message: "Doctor registered",
		Account: account,
		Token:   token,
	})
}

// PatientRegister handles POST /api/patient/register
func (h *AuthHandler) PatientRegister(w http.ResponseWriter, r *http.Request) {
	var req patientRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	account, token, err := h.authService.RegisterPatient(req.FirstName, req.LastName, req.Email,
		req.Phone, req.DateOfBirth, req.Password, req.EmergencyContact, req.EmergencyPhone,
		req.TwoFactorEnabled)
	if err != nil {
		h.respondRegisterError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, registerResponse{
		Message: "Patient registered",
		Account: account,
		Token:   token,
	})
}

// DoctorLogin handles POST /api/doctor/login
func (h *AuthHandler) DoctorLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, models.RoleDoctor)
}

// PatientLogin handles POST /api/patient/login
func (h *AuthHandler) PatientLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, models.RolePatient)
}

// login verifies first-factor credentials and issues a one-time code.
// The code itself is only ever delivered out-of-band.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, role string) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	account, err := h.authService.VerifyCredentials(role, req.Email, req.Password)
	if err != nil {
		// Unknown email and wrong password answer identically so the
		// response can't be used to probe for registered addresses.
		if errors.Is(err, service.ErrAccountNotFound) || errors.Is(err, service.ErrInvalidCredentials) {
			respondError(w, http.StatusBadRequest, "Invalid email or password", "", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "Server error", "Credential check failed", err)
		return
	}

	if _, err := h.authService.IssueOTP(r.Context(), account); err != nil {
		respondError(w, http.StatusInternalServerError, "Server error", "OTP issuance failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "otp sent"})
}

// DoctorVerifyOTP handles POST /api/doctor/verify-otp
func (h *AuthHandler) DoctorVerifyOTP(w http.ResponseWriter, r *http.Request) {
	h.verifyOTP(w, r, models.RoleDoctor)
}

// PatientVerifyOTP handles POST /api/patient/verify-otp
func (h *AuthHandler) PatientVerifyOTP(w http.ResponseWriter, r *http.Request) {
	h.verifyOTP(w, r, models.RolePatient)
}

func (h *AuthHandler) verifyOTP(w http.ResponseWriter, r *http.Request, role string) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	token, account, err := h.authService.VerifyOTP(role, req.Email, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			respondError(w, http.StatusUnauthorized, "Invalid or expired OTP", "", nil)
		case errors.Is(err, service.ErrNoActiveCode):
			respondError(w, http.StatusUnauthorized, "No active OTP, please log in again", "", nil)
		case errors.Is(err, service.ErrCodeExpired):
			respondError(w, http.StatusUnauthorized, "OTP expired, please log in again", "", nil)
		case errors.Is(err, service.ErrInvalidCode):
			respondError(w, http.StatusUnauthorized, "Invalid OTP", "", nil)
		case errors.Is(err, service.ErrTooManyAttempts):
			respondError(w, http.StatusUnauthorized, "Too many failed attempts, please log in again", "", nil)
		default:
			respondError(w, http.StatusInternalServerError, "Server error", "OTP verification failed", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, verifyOTPResponse{Token: token, Account: account})
}

func (h *AuthHandler) respondRegisterError(w http.ResponseWriter, err error) {
	var validationErr validation.ValidationError
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		respondError(w, http.StatusBadRequest, "Account already exists", "", nil)
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, validationErr.Error(), "", nil)
	default:
		respondError(w, http.StatusInternalServerError, "Server error", "Registration failed", err)
	}
}
