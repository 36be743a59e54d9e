package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/seniorble/guardian/internal/models"
	"github.com/seniorble/guardian/internal/service"
)

const patientCreatedMsg = "어르신 정보가 등록되었습니다."

// (GET /patients).
func (c *Controller) ListPatients(ctx echo.Context) error {
	id, ok := service.IdentityFromContext(ctx.Request().Context())
	if !ok {
		return service.ErrUnauthenticated
	}

	patients, err := c.patientService.List(ctx.Request().Context(), id.ID)
	if err != nil {
		return err
	}
	if patients == nil {
		patients = []models.Patient{}
	}
	return ctx.JSON(http.StatusOK, models.PatientListResponse{Success: true, Patients: patients})
}

// (POST /patients).
func (c *Controller) CreatePatient(ctx echo.Context) error {
	id, ok := service.IdentityFromContext(ctx.Request().Context())
	if !ok {
		return service.ErrUnauthenticated
	}

	var req models.CreatePatientRequest
	if err := bindAndValidate(ctx, &req, nil); err != nil {
		return err
	}

	p, err := c.patientService.Register(ctx.Request().Context(), id.ID, req)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, models.PatientResponse{
		Success: true,
		Message: patientCreatedMsg,
		Patient: *p,
	})
}
