package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/seniorble/guardian/internal/models"
	"github.com/seniorble/guardian/internal/storage"
)

type InMemoryPatientManager struct {
	mu       sync.RWMutex
	patients []models.Patient
}

func NewPatientRepository() *InMemoryPatientManager {
	return &InMemoryPatientManager{}
}

func (m *InMemoryPatientManager) CreatePatient(_ context.Context, p models.Patient) (*models.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.patients {
		if existing.DeviceSerialNumber == p.DeviceSerialNumber {
			return nil, storage.ErrDuplicate
		}
	}
	m.patients = append(m.patients, p)
	return &p, nil
}

func (m *InMemoryPatientManager) ListPatientsByGuardian(_ context.Context, guardianID string) ([]models.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Patient, 0)
	for _, p := range m.patients {
		if p.GuardianID == guardianID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
