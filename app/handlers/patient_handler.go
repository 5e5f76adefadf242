package handlers

import (
	"github.com/amirphl/dentalcare/app/dto"
	businessflow "github.com/amirphl/dentalcare/business_flow"
	"github.com/gofiber/fiber/v3"
)

// PatientHandlerInterface defines the contract for patient and appointment handlers
type PatientHandlerInterface interface {
	CreatePatient(c fiber.Ctx) error
	ListPatients(c fiber.Ctx) error
	GetPatient(c fiber.Ctx) error
	UpdatePatient(c fiber.Ctx) error
	DeletePatient(c fiber.Ctx) error

	CreateAppointment(c fiber.Ctx) error
	ListAppointments(c fiber.Ctx) error
	GetAppointment(c fiber.Ctx) error
	UpdateAppointment(c fiber.Ctx) error
	CancelAppointment(c fiber.Ctx) error
	DeleteAppointment(c fiber.Ctx) error
}

type PatientHandler struct {
	baseHandler
	patients     businessflow.PatientFlow
	appointments businessflow.AppointmentFlow
}

func NewPatientHandler(patients businessflow.PatientFlow, appointments businessflow.AppointmentFlow) *PatientHandler {
	return &PatientHandler{
		baseHandler:  newBaseHandler(),
		patients:     patients,
		appointments: appointments,
	}
}

// CreatePatient
// @Summary Register Patient
// @Tags Patients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreatePatientRequest true "Patient"
// @Success 201 {object} dto.APIResponse{data=dto.PatientDTO}
// @Failure 409 {object} dto.APIResponse "Mobile already registered"
// @Router /api/v1/patients [post]
func (h *PatientHandler) CreatePatient(c fiber.Ctx) error {
	var req dto.CreatePatientRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/patients")
	defer cancel()

	p, err := h.patients.Create(ctx, &req, h.metadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to register patient", "CREATE_PATIENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Patient registered", p)
}

// ListPatients
// @Summary List Patients
// @Tags Patients
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param q query string false "Name or mobile"
// @Success 200 {object} dto.APIResponse{data=dto.ListPatientsResponse}
// @Router /api/v1/patients [get]
func (h *PatientHandler) ListPatients(c fiber.Ctx) error {
	var req dto.ListPatientsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_QUERY", err.Error())
	}

	ctx, cancel := h.requestContext(c, "/api/v1/patients")
	defer cancel()

	resp, err := h.patients.List(ctx, &req)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to list patients", "LIST_PATIENTS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Patients retrieved", resp)
}

// GetPatient
// @Summary Get Patient
// @Tags Patients
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Patient UUID"
// @Success 200 {object} dto.APIResponse{data=dto.PatientDTO}
// @Router /api/v1/patients/{uuid} [get]
func (h *PatientHandler) GetPatient(c fiber.Ctx) error {
	ctx, cancel := h.requestContext(c, "/api/v1/patients/:uuid")
	defer cancel()

	p, err := h.patients.Get(ctx, c.Params("uuid"))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to get patient", "GET_PATIENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Patient retrieved", p)
}

// UpdatePatient
// @Summary Update Patient
// @Tags Patients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Patient UUID"
// @Param request body dto.UpdatePatientRequest true "Patient"
// @Success 200 {object} dto.APIResponse{data=dto.PatientDTO}
// @Router /api/v1/patients/{uuid} [put]
func (h *PatientHandler) UpdatePatient(c fiber.Ctx) error {
	var req dto.UpdatePatientRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/patients/:uuid")
	defer cancel()

	p, err := h.patients.Update(ctx, c.Params("uuid"), &req, h.metadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to update patient", "UPDATE_PATIENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Patient updated", p)
}

// DeletePatient
// @Summary Delete Patient
// @Tags Patients
// @Security BearerAuth
// @Param uuid path string true "Patient UUID"
// @Success 200 {object} dto.APIResponse
// @Router /api/v1/patients/{uuid} [delete]
func (h *PatientHandler) DeletePatient(c fiber.Ctx) error {
	ctx, cancel := h.requestContext(c, "/api/v1/patients/:uuid")
	defer cancel()

	if err := h.patients.Delete(ctx, c.Params("uuid"), h.metadata(c)); err != nil {
		return h.handleFlowError(c, err, "Failed to delete patient", "DELETE_PATIENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Patient deleted", nil)
}

// CreateAppointment books a slot, rejecting overlaps for the same dentist
// @Summary Book Appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateAppointmentRequest true "Appointment"
// @Success 201 {object} dto.APIResponse{data=dto.AppointmentDTO}
// @Failure 409 {object} dto.APIResponse "Slot overlaps another appointment"
// @Router /api/v1/appointments [post]
func (h *PatientHandler) CreateAppointment(c fiber.Ctx) error {
	var req dto.CreateAppointmentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/appointments")
	defer cancel()

	a, err := h.appointments.Create(ctx, &req, h.metadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to book appointment", "CREATE_APPOINTMENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Appointment booked", a)
}

// ListAppointments
// @Summary List Appointments
// @Tags Appointments
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param patient_uuid query string false "Patient UUID"
// @Param dentist query string false "Dentist name"
// @Param status query string false "scheduled|completed|cancelled|no_show"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} dto.APIResponse{data=dto.ListAppointmentsResponse}
// @Router /api/v1/appointments [get]
func (h *PatientHandler) ListAppointments(c fiber.Ctx) error {
	var req dto.ListAppointmentsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_QUERY", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/appointments")
	defer cancel()

	resp, err := h.appointments.List(ctx, &req)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to list appointments", "LIST_APPOINTMENTS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Appointments retrieved", resp)
}

// GetAppointment
// @Summary Get Appointment
// @Tags Appointments
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Appointment UUID"
// @Success 200 {object} dto.APIResponse{data=dto.AppointmentDTO}
// @Router /api/v1/appointments/{uuid} [get]
func (h *PatientHandler) GetAppointment(c fiber.Ctx) error {
	ctx, cancel := h.requestContext(c, "/api/v1/appointments/:uuid")
	defer cancel()

	a, err := h.appointments.Get(ctx, c.Params("uuid"))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to get appointment", "GET_APPOINTMENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Appointment retrieved", a)
}

// UpdateAppointment
// @Summary Update Appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Appointment UUID"
// @Param request body dto.UpdateAppointmentRequest true "Appointment"
// @Success 200 {object} dto.APIResponse{data=dto.AppointmentDTO}
// @Router /api/v1/appointments/{uuid} [put]
func (h *PatientHandler) UpdateAppointment(c fiber.Ctx) error {
	var req dto.UpdateAppointmentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/appointments/:uuid")
	defer cancel()

	a, err := h.appointments.Update(ctx, c.Params("uuid"), &req, h.metadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to update appointment", "UPDATE_APPOINTMENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Appointment updated", a)
}

// CancelAppointment
// @Summary Cancel Appointment
// @Tags Appointments
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Appointment UUID"
// @Success 200 {object} dto.APIResponse{data=dto.AppointmentDTO}
// @Router /api/v1/appointments/{uuid}/cancel [post]
func (h *PatientHandler) CancelAppointment(c fiber.Ctx) error {
	ctx, cancel := h.requestContext(c, "/api/v1/appointments/:uuid/cancel")
	defer cancel()

	a, err := h.appointments.Cancel(ctx, c.Params("uuid"), h.metadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to cancel appointment", "CANCEL_APPOINTMENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Appointment cancelled", a)
}

// DeleteAppointment
// @Summary Delete Appointment
// @Tags Appointments
// @Security BearerAuth
// @Param uuid path string true "Appointment UUID"
// @Success 200 {object} dto.APIResponse
// @Router /api/v1/appointments/{uuid} [delete]
func (h *PatientHandler) DeleteAppointment(c fiber.Ctx) error {
	ctx, cancel := h.requestContext(c, "/api/v1/appointments/:uuid")
	defer cancel()

	if err := h.appointments.Delete(ctx, c.Params("uuid"), h.metadata(c)); err != nil {
		return h.handleFlowError(c, err, "Failed to delete appointment", "DELETE_APPOINTMENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Appointment deleted", nil)
}
