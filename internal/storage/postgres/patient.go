package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/seniorble/guardian/internal/models"
	"github.com/seniorble/guardian/internal/storage"
)

type PatientRepository struct {
	db storage.DBTX
}

func NewPatientRepository(db storage.DBTX) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) CreatePatient(ctx context.Context, p models.Patient) (*models.Patient, error) {
	query := `INSERT INTO patients (id, guardian_id, name, birthdate, gender, device_serial_number, notes, relationship, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		p.ID,
		p.GuardianID,
		p.Name,
		p.Birthdate,
		p.Gender,
		p.DeviceSerialNumber,
		p.Notes,
		p.Relationship,
		p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("device %s: %w", p.DeviceSerialNumber, storage.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return &p, nil
}

func (r *PatientRepository) ListPatientsByGuardian(ctx context.Context, guardianID string) ([]models.Patient, error) {
	query := `SELECT id, guardian_id, name, to_char(birthdate, 'YYYY-MM-DD'), gender, device_serial_number, notes, relationship, created_at FROM patients WHERE guardian_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, guardianID)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	patients := make([]models.Patient, 0)
	for rows.Next() {
		var (
			p     models.Patient
			notes sql.NullString
		)
		if err := rows.Scan(
			&p.ID,
			&p.GuardianID,
			&p.Name,
			&p.Birthdate,
			&p.Gender,
			&p.DeviceSerialNumber,
			&notes,
			&p.Relationship,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		if notes.Valid {
			p.Notes = &notes.String
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return patients, nil
}
