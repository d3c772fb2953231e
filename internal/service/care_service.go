package service

import (
	"errors"
	"fmt"
	"strings"

	"metabridge/internal/models"
	"metabridge/internal/repository"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrEmptyMessage    = errors.New("message is required")
)

// CareService handles doctor-to-patient messaging and the doctor's patient
// roster
type CareService struct {
	accounts *repository.AccountRepository
	messages *repository.MessageRepository
}

// NewCareService creates a new care service
func NewCareService(accounts *repository.AccountRepository, messages *repository.MessageRepository) *CareService {
	return &CareService{accounts: accounts, messages: messages}
}

// ListPatients returns all patient accounts ordered by first name
func (s *CareService) ListPatients() ([]models.Account, error) {
	patients, err := s.accounts.ListPatients()
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

// SendMessage records a message from a doctor to a patient
func (s *CareService) SendMessage(doctorID, patientID int64, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}

	patient, err := s.accounts.GetByID(patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	if patient == nil || patient.Role != models.RolePatient {
		return nil, ErrPatientNotFound
	}

	message, err := s.messages.Create(doctorID, patientID, body)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return message, nil
}

// MessagesForPatient returns a patient's messages, newest first
func (s *CareService) MessagesForPatient(patientID int64) ([]models.PatientMessage, error) {
	messages, err := s.messages.ListForPatient(patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return messages, nil
}
