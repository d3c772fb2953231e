package service

import (
	"fmt"
	"mime/multipart"
	"path"

	"metabridge/internal/models"
	"metabridge/internal/repository"
	"metabridge/internal/storage"
)

// ReportService handles report upload and retrieval
type ReportService struct {
	accounts *repository.AccountRepository
	reports  *repository.ReportRepository
	store    *storage.ReportStore
}

// NewReportService creates a new report service
func NewReportService(accounts *repository.AccountRepository, reports *repository.ReportRepository, store *storage.ReportStore) *ReportService {
	return &ReportService{accounts: accounts, reports: reports, store: store}
}

// SendReport stores an uploaded report file and records it against the
// patient. The recorded path is relative, served under /uploads/.
func (s *ReportService) SendReport(doctorID, patientID int64, file multipart.File, header *multipart.FileHeader) (*models.Report, error) {
	patient, err := s.accounts.GetByID(patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	if patient == nil || patient.Role != models.RolePatient {
		return nil, ErrPatientNotFound
	}

	storedName, originalName, err := s.store.Save(file, header)
	if err != nil {
		return nil, err
	}

	relativePath := path.Join("uploads", "reports", storedName)
	report, err := s.reports.Create(doctorID, patientID, relativePath, originalName)
	if err != nil {
		return nil, fmt.Errorf("failed to record report: %w", err)
	}
	return report, nil
}

// ReportsForPatient returns a patient's reports, newest first
func (s *ReportService) ReportsForPatient(patientID int64) ([]models.Report, error) {
	reports, err := s.reports.ListForPatient(patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reports: %w", err)
	}
	return reports, nil
}
