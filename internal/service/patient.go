package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seniorble/guardian/internal/models"
	"github.com/seniorble/guardian/internal/storage"
)

type PatientService struct {
	patients storage.PatientRepository
	now      func() time.Time
}

func NewPatientService(patients storage.PatientRepository) *PatientService {
	return &PatientService{patients: patients, now: time.Now}
}

func (s *PatientService) Register(ctx context.Context, guardianID string, req models.CreatePatientRequest) (*models.Patient, error) {
	var notes *string
	if req.Notes != nil {
		if n := strings.TrimSpace(*req.Notes); n != "" {
			notes = &n
		}
	}

	p, err := s.patients.CreatePatient(ctx, models.Patient{
		ID:                 uuid.NewString(),
		GuardianID:         guardianID,
		Name:               strings.TrimSpace(req.Name),
		Birthdate:          req.Birthdate,
		Gender:             req.Gender,
		DeviceSerialNumber: strings.TrimSpace(req.DeviceSerialNumber),
		Notes:              notes,
		Relationship:       strings.TrimSpace(req.Relationship),
		CreatedAt:          s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrDeviceTaken
		}
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}

func (s *PatientService) List(ctx context.Context, guardianID string) ([]models.Patient, error) {
	patients, err := s.patients.ListPatientsByGuardian(ctx, guardianID)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return patients, nil
}
