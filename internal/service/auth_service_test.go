package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"metabridge/internal/database"
	"metabridge/internal/models"
	"metabridge/internal/repository"
	"metabridge/internal/security"
)

// captureNotifier records dispatched codes and can be told to fail
type captureNotifier struct {
	code  string
	calls int
	err   error
}

func (n *captureNotifier) SendOTPCode(_ context.Context, _ *models.Account, code string) error {
	n.calls++
	n.code = code
	return n.err
}

func newTestAuthService(t *testing.T, otpLifetime time.Duration, notifier OTPNotifier) *AuthService {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "auth_test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	signer, err := security.NewTokenSigner("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("Failed to create signer: %v", err)
	}

	accounts := repository.NewAccountRepository(db)
	codes := repository.NewOTPRepository(db)
	return NewAuthService(accounts, codes, notifier, signer, otpLifetime, 5)
}

func registerTestPatient(t *testing.T, s *AuthService, email string) *models.Account {
	t.Helper()
	account, _, err := s.RegisterPatient("Alice", "Nguyen", email, "+15550100", "1990-01-01",
		"password123", "Bob Nguyen", "+15550101", true)
	if err != nil {
		t.Fatalf("RegisterPatient() error = %v", err)
	}
	return account
}

func TestRegister(t *testing.T) {
	s := newTestAuthService(t, 5*time.Minute, nil)

	t.Run("doctor registration returns account and token", func(t *testing.T) {
		account, token, err := s.RegisterDoctor("Dr. Chen", "chen@example.com", "password123",
			"Cardiology", "LIC-1234", "General Hospital")
		if err != nil {
			t.Fatalf("RegisterDoctor() error = %v", err)
		}
		if account.ID == 0 {
			t.Error("account ID not assigned")
		}
		if account.Role != models.RoleDoctor {
			t.Errorf("role = %q, want %q", account.Role, models.RoleDoctor)
		}
		if token == "" {
			t.Error("no session token returned")
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		registerTestPatient(t, s, "dup@example.com")
		_, _, err := s.RegisterPatient("Eve", "Smith", "dup@example.com", "", "",
			"password123", "", "", false)
		if !errors.Is(err, ErrEmailTaken) {
			t.Errorf("error = %v, want ErrEmailTaken", err)
		}
	})

	t.Run("duplicate email rejected across roles", func(t *testing.T) {
		registerTestPatient(t, s, "crossrole@example.com")
		_, _, err := s.RegisterDoctor("Dr. Who", "crossrole@example.com", "password123", "", "", "")
		if !errors.Is(err, ErrEmailTaken) {
			t.Errorf("error = %v, want ErrEmailTaken", err)
		}
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		_, _, err := s.RegisterDoctor("Dr. Chen", "not-an-email", "password123", "", "", "")
		if err == nil {
			t.Error("expected validation error for invalid email")
		}
	})

	t.Run("short password rejected", func(t *testing.T) {
		_, _, err := s.RegisterDoctor("Dr. Chen", "short@example.com", "short", "", "", "")
		if err == nil {
			t.Error("expected validation error for short password")
		}
	})

	t.Run("email normalized on registration", func(t *testing.T) {
		registerTestPatient(t, s, "  Mixed.Case@Example.COM  ")
		account, err := s.VerifyCredentials(models.RolePatient, "mixed.case@example.com", "password123")
		if err != nil {
			t.Fatalf("VerifyCredentials() error = %v", err)
		}
		if account.Email != "mixed.case@example.com" {
			t.Errorf("stored email = %q, want normalized", account.Email)
		}
	})
}

func TestVerifyCredentials(t *testing.T) {
	s := newTestAuthService(t, 5*time.Minute, nil)
	registerTestPatient(t, s, "patient@example.com")

	tests := []struct {
		name     string
		role     string
		email    string
		password string
		wantErr  error
	}{
		{
			name:     "correct credentials",
			role:     models.RolePatient,
			email:    "patient@example.com",
			password: "password123",
			wantErr:  nil,
		},
		{
			name:     "wrong password",
			role:     models.RolePatient,
			email:    "patient@example.com",
			password: "wrongpassword",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			role:     models.RolePatient,
			email:    "nobody@example.com",
			password: "password123",
			wantErr:  ErrAccountNotFound,
		},
		{
			name:     "role mismatch",
			role:     models.RoleDoctor,
			email:    "patient@example.com",
			password: "password123",
			wantErr:  ErrAccountNotFound,
		},
		{
			name:     "empty password",
			role:     models.RolePatient,
			email:    "patient@example.com",
			password: "",
			wantErr:  ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.VerifyCredentials(tt.role, tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("VerifyCredentials() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestOTPFlow(t *testing.T) {
	notifier := &captureNotifier{}
	s := newTestAuthService(t, 5*time.Minute, notifier)
	account := registerTestPatient(t, s, "otp@example.com")

	issued, err := s.IssueOTP(context.Background(), account)
	if err != nil {
		t.Fatalf("IssueOTP() error = %v", err)
	}
	if notifier.calls != 1 {
		t.Errorf("notifier calls = %d, want 1", notifier.calls)
	}
	if notifier.code != issued.Code {
		t.Errorf("dispatched code %q differs from issued code %q", notifier.code, issued.Code)
	}

	token, verified, err := s.VerifyOTP(models.RolePatient, "otp@example.com", issued.Code)
	if err != nil {
		t.Fatalf("VerifyOTP() error = %v", err)
	}
	if token == "" {
		t.Error("no session token returned")
	}
	if verified.ID != account.ID {
		t.Errorf("verified account ID = %d, want %d", verified.ID, account.ID)
	}

	// A code verifies at most once
	_, _, err = s.VerifyOTP(models.RolePatient, "otp@example.com", issued.Code)
	if !errors.Is(err, ErrNoActiveCode) {
		t.Errorf("replay error = %v, want ErrNoActiveCode", err)
	}
}

func TestVerifyOTPFailures(t *testing.T) {
	t.Run("no code issued", func(t *testing.T) {
		s := newTestAuthService(t, 5*time.Minute, nil)
		registerTestPatient(t, s, "nocode@example.com")

		_, _, err := s.VerifyOTP(models.RolePatient, "nocode@example.com", "123456")
		if !errors.Is(err, ErrNoActiveCode) {
			t.Errorf("error = %v, want ErrNoActiveCode", err)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		s := newTestAuthService(t, 5*time.Minute, nil)

		_, _, err := s.VerifyOTP(models.RolePatient, "ghost@example.com", "123456")
		if !errors.Is(err, ErrAccountNotFound) {
			t.Errorf("error = %v, want ErrAccountNotFound", err)
		}
	})

	t.Run("expired code", func(t *testing.T) {
		s := newTestAuthService(t, -time.Minute, nil)
		account := registerTestPatient(t, s, "expired@example.com")

		issued, err := s.IssueOTP(context.Background(), account)
		if err != nil {
			t.Fatalf("IssueOTP() error = %v", err)
		}

		_, _, err = s.VerifyOTP(models.RolePatient, "expired@example.com", issued.Code)
		if !errors.Is(err, ErrCodeExpired) {
			t.Errorf("error = %v, want ErrCodeExpired", err)
		}
	})

	t.Run("wrong code preserves the active code", func(t *testing.T) {
		s := newTestAuthService(t, 5*time.Minute, nil)
		account := registerTestPatient(t, s, "wrong@example.com")

		issued, err := s.IssueOTP(context.Background(), account)
		if err != nil {
			t.Fatalf("IssueOTP() error = %v", err)
		}

		wrong := "000000"
		if wrong == issued.Code {
			wrong = "000001"
		}
		_, _, err = s.VerifyOTP(models.RolePatient, "wrong@example.com", wrong)
		if !errors.Is(err, ErrInvalidCode) {
			t.Errorf("error = %v, want ErrInvalidCode", err)
		}

		// The correct code still works afterwards
		if _, _, err := s.VerifyOTP(models.RolePatient, "wrong@example.com", issued.Code); err != nil {
			t.Errorf("VerifyOTP() after one mismatch error = %v", err)
		}
	})
}

func TestVerifyOTPAttemptLimit(t *testing.T) {
	s := newTestAuthService(t, 5*time.Minute, nil)
	account := registerTestPatient(t, s, "limit@example.com")

	issued, err := s.IssueOTP(context.Background(), account)
	if err != nil {
		t.Fatalf("IssueOTP() error = %v", err)
	}

	wrong := "000000"
	if wrong == issued.Code {
		wrong = "000001"
	}

	for i := 0; i < 4; i++ {
		_, _, err := s.VerifyOTP(models.RolePatient, "limit@example.com", wrong)
		if !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("attempt %d error = %v, want ErrInvalidCode", i+1, err)
		}
	}

	// The fifth wrong guess burns the code
	_, _, err = s.VerifyOTP(models.RolePatient, "limit@example.com", wrong)
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("fifth attempt error = %v, want ErrTooManyAttempts", err)
	}

	// Even the correct code no longer works
	_, _, err = s.VerifyOTP(models.RolePatient, "limit@example.com", issued.Code)
	if !errors.Is(err, ErrNoActiveCode) {
		t.Errorf("post-limit error = %v, want ErrNoActiveCode", err)
	}
}

func TestVerifyOTPConcurrentSubmissions(t *testing.T) {
	s := newTestAuthService(t, 5*time.Minute, nil)
	account := registerTestPatient(t, s, "race@example.com")

	issued, err := s.IssueOTP(context.Background(), account)
	if err != nil {
		t.Fatalf("IssueOTP() error = %v", err)
	}

	// All submissions carry the correct code; the conditional consume must
	// let exactly one of them mint a token
	const submitters = 8
	results := make(chan error, submitters)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, _, err := s.VerifyOTP(models.RolePatient, "race@example.com", issued.Code)
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var minted, lost int
	for err := range results {
		switch {
		case err == nil:
			minted++
		case errors.Is(err, ErrNoActiveCode):
			lost++
		default:
			t.Errorf("unexpected error under contention: %v", err)
		}
	}

	if minted != 1 {
		t.Errorf("tokens minted = %d, want exactly 1", minted)
	}
	if lost != submitters-1 {
		t.Errorf("losing submissions = %d, want %d", lost, submitters-1)
	}
}

func TestIssueOTPSupersedes(t *testing.T) {
	s := newTestAuthService(t, 5*time.Minute, nil)
	account := registerTestPatient(t, s, "supersede@example.com")

	first, err := s.IssueOTP(context.Background(), account)
	if err != nil {
		t.Fatalf("IssueOTP() error = %v", err)
	}
	second, err := s.IssueOTP(context.Background(), account)
	if err != nil {
		t.Fatalf("IssueOTP() error = %v", err)
	}

	if first.Code != second.Code {
		// The superseded code no longer verifies
		_, _, err = s.VerifyOTP(models.RolePatient, "supersede@example.com", first.Code)
		if !errors.Is(err, ErrInvalidCode) {
			t.Errorf("superseded code error = %v, want ErrInvalidCode", err)
		}
	}

	// Only the latest code verifies
	if _, _, err := s.VerifyOTP(models.RolePatient, "supersede@example.com", second.Code); err != nil {
		t.Errorf("latest code error = %v", err)
	}
}

func TestIssueOTPSurvivesDispatchFailure(t *testing.T) {
	notifier := &captureNotifier{err: errors.New("ses unavailable")}
	s := newTestAuthService(t, 5*time.Minute, notifier)
	account := registerTestPatient(t, s, "undelivered@example.com")

	issued, err := s.IssueOTP(context.Background(), account)
	if err != nil {
		t.Fatalf("IssueOTP() error = %v, want nil despite dispatch failure", err)
	}

	// The persisted code remains redeemable
	if _, _, err := s.VerifyOTP(models.RolePatient, "undelivered@example.com", issued.Code); err != nil {
		t.Errorf("VerifyOTP() error = %v", err)
	}
}
