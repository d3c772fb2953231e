package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"metabridge/internal/models"
	"metabridge/internal/repository"
	"metabridge/internal/security"
	"metabridge/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoActiveCode       = errors.New("no active code")
	ErrInvalidCode        = errors.New("invalid code")
	ErrCodeExpired        = errors.New("code expired")
	ErrTooManyAttempts    = errors.New("too many failed attempts")
)

// OTPNotifier delivers a one-time code to an account's registered contact
// channels. Delivery is best-effort: issuance never depends on it.
type OTPNotifier interface {
	SendOTPCode(ctx context.Context, account *models.Account, code string) error
}

// AuthService implements the two-step login flow: credential verification,
// one-time code issuance, and code verification with session token minting.
type AuthService struct {
	accounts    *repository.AccountRepository
	codes       *repository.OTPRepository
	notifier    OTPNotifier
	signer      *security.TokenSigner
	otpLifetime time.Duration
	maxAttempts int
}

// NewAuthService creates a new auth service
func NewAuthService(accounts *repository.AccountRepository, codes *repository.OTPRepository,
	notifier OTPNotifier, signer *security.TokenSigner, otpLifetime time.Duration, maxAttempts int) *AuthService {
	return &AuthService{
		accounts:    accounts,
		codes:       codes,
		notifier:    notifier,
		signer:      signer,
		otpLifetime: otpLifetime,
		maxAttempts: maxAttempts,
	}
}

// RegisterDoctor creates a doctor account and returns it with a session token
func (s *AuthService) RegisterDoctor(name, email, password, specialization, licenseNumber, hospitalName string) (*models.Account, string, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, "", err
	}
	account := &models.Account{
		Role:           models.RoleDoctor,
		Name:           name,
		Specialization: specialization,
		LicenseNumber:  licenseNumber,
		HospitalName:   hospitalName,
	}
	return s.register(account, email, password)
}

// RegisterPatient creates a patient account and returns it with a session token
func (s *AuthService) RegisterPatient(firstName, lastName, email, phone, dateOfBirth, password,
	emergencyContact, emergencyPhone string, twoFactorEnabled bool) (*models.Account, string, error) {
	if err := validation.ValidateName(firstName); err != nil {
		return nil, "", err
	}
	account := &models.Account{
		Role:             models.RolePatient,
		FirstName:        firstName,
		LastName:         lastName,
		Phone:            phone,
		DateOfBirth:      dateOfBirth,
		EmergencyContact: emergencyContact,
		EmergencyPhone:   emergencyPhone,
		TwoFactorEnabled: twoFactorEnabled,
	}
	return s.register(account, email, password)
}

func (s *AuthService) register(account *models.Account, email, password string) (*models.Account, string, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, "", err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, "", err
	}

	email = validation.NormalizeEmail(email)
	existing, err := s.accounts.GetByEmail(email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, "", ErrEmailTaken
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}
	account.Email = email
	account.PasswordHash = hash

	created, err := s.accounts.Create(account)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create account: %w", err)
	}

	token, err := s.signer.Mint(created)
	if err != nil {
		return nil, "", fmt.Errorf("failed to mint token: %w", err)
	}
	return created, token, nil
}

// VerifyCredentials validates an email/password pair against the stored hash
// for the given role. The returned account is the stored record; callers must
// not expose its password hash (Account marshals it as "-").
func (s *AuthService) VerifyCredentials(role, email, password string) (*models.Account, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.accounts.GetByEmail(validation.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil || account.Role != role {
		return nil, ErrAccountNotFound
	}

	if !security.CheckPassword(password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}

// IssueOTP generates a fresh one-time code for the account, superseding any
// unconsumed prior code, and dispatches it out-of-band. The code is durably
// persisted before dispatch is attempted, so a delivery failure never leaves
// the account without a verifiable code.
func (s *AuthService) IssueOTP(ctx context.Context, account *models.Account) (*models.OneTimeCode, error) {
	code, err := security.GenerateOTPCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	expiresAt := time.Now().Add(s.otpLifetime)
	issued, err := s.codes.Issue(account.ID, code, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to issue code: %w", err)
	}

	// Best-effort dispatch. Failures are logged, never propagated: the code
	// stays redeemable even when delivery could not be confirmed.
	if s.notifier != nil {
		if err := s.notifier.SendOTPCode(ctx, account, code); err != nil {
			log.Printf("OTP dispatch failed: account=%d email=%s: %v", account.ID, account.Email, err)
		}
	}

	return issued, nil
}

// VerifyOTP validates a submitted code for the account registered under email
// and, on success, mints a session token. A code verifies successfully at
// most once; expired, superseded, and consumed codes all fail.
func (s *AuthService) VerifyOTP(role, email, submitted string) (string, *models.Account, error) {
	if email == "" || submitted == "" {
		return "", nil, ErrInvalidCode
	}

	account, err := s.accounts.GetByEmail(validation.NormalizeEmail(email))
	if err != nil {
		return "", nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil || account.Role != role {
		return "", nil, ErrAccountNotFound
	}

	active, err := s.codes.GetLatestUnconsumed(account.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get active code: %w", err)
	}
	if active == nil {
		return "", nil, ErrNoActiveCode
	}
	if active.IsExpired() {
		return "", nil, ErrCodeExpired
	}

	if !security.CodesEqual(submitted, active.Code) {
		if recErr := s.codes.RecordFailedAttempt(active.ID); recErr != nil {
			log.Printf("Failed to record OTP attempt: account=%d: %v", account.ID, recErr)
		}
		// The 5th wrong guess burns the code; the client must log in again.
		if active.Attempts+1 >= s.maxAttempts {
			if invErr := s.codes.Invalidate(active.ID); invErr != nil {
				log.Printf("Failed to invalidate code: account=%d: %v", account.ID, invErr)
			}
			return "", nil, ErrTooManyAttempts
		}
		return "", nil, ErrInvalidCode
	}

	// Atomic test-and-set: exactly one of two racing correct submissions wins.
	consumed, err := s.codes.Consume(active.ID, time.Now())
	if err != nil {
		return "", nil, fmt.Errorf("failed to consume code: %w", err)
	}
	if !consumed {
		return "", nil, ErrNoActiveCode
	}

	token, err := s.signer.Mint(account)
	if err != nil {
		return "", nil, fmt.Errorf("failed to mint token: %w", err)
	}
	return token, account, nil
}

// CleanupExpiredCodes removes long-dead code rows. Correctness never depends
// on this; expiry is enforced at verification time.
func (s *AuthService) CleanupExpiredCodes() error {
	if err := s.codes.DeleteExpiredBefore(time.Now().Add(-24 * time.Hour)); err != nil {
		return fmt.Errorf("failed to cleanup codes: %w", err)
	}
	return nil
}
