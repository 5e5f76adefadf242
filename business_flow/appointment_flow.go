package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/dentalcare/app/dto"
	"github.com/amirphl/dentalcare/app/services"
	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/repository"
	"github.com/amirphl/dentalcare/utils"
	"github.com/sirupsen/logrus"
)

const (
	defaultAppointmentMinutes = 30
	reminderBatchSize         = 100
)

// AppointmentFlow handles scheduling
type AppointmentFlow interface {
	Create(ctx context.Context, req *dto.CreateAppointmentRequest, metadata *ClientMetadata) (*dto.AppointmentDTO, error)
	List(ctx context.Context, req *dto.ListAppointmentsRequest) (*dto.ListAppointmentsResponse, error)
	Get(ctx context.Context, appointmentUUID string) (*dto.AppointmentDTO, error)
	Update(ctx context.Context, appointmentUUID string, req *dto.UpdateAppointmentRequest, metadata *ClientMetadata) (*dto.AppointmentDTO, error)
	Cancel(ctx context.Context, appointmentUUID string, metadata *ClientMetadata) (*dto.AppointmentDTO, error)
	Delete(ctx context.Context, appointmentUUID string, metadata *ClientMetadata) error
	SendDueReminders(ctx context.Context, leadTime time.Duration) (int, error)
}

type AppointmentFlowImpl struct {
	appointmentRepo repository.AppointmentRepository
	patientRepo     repository.PatientRepository
	notifier        services.NotificationService
	sendReminders   bool
	runTx           TxRunner
}

// NewAppointmentFlow creates the flow. Reminders are only sent when sendReminders
// is set and the caller asks for one.
func NewAppointmentFlow(appointmentRepo repository.AppointmentRepository, patientRepo repository.PatientRepository, notifier services.NotificationService, sendReminders bool, runTx TxRunner) AppointmentFlow {
	return &AppointmentFlowImpl{
		appointmentRepo: appointmentRepo,
		patientRepo:     patientRepo,
		notifier:        notifier,
		sendReminders:   sendReminders,
		runTx:           runTx,
	}
}

func (f *AppointmentFlowImpl) Create(ctx context.Context, req *dto.CreateAppointmentRequest, metadata *ClientMetadata) (*dto.AppointmentDTO, error) {
	if req == nil {
		return nil, NewBusinessError("APPOINTMENT_VALIDATION_FAILED", "Request body is required", ErrValidationFailed)
	}
	patient, err := getPatient(ctx, f.patientRepo, req.PatientUUID)
	if err != nil {
		return nil, err
	}

	appt := models.Appointment{
		PatientID:       patient.ID,
		DentistName:     strings.TrimSpace(req.DentistName),
		Treatment:       strings.TrimSpace(req.Treatment),
		ScheduledAt:     req.ScheduledAt.UTC(),
		DurationMinutes: req.DurationMinutes,
		Status:          models.AppointmentStatusScheduled,
		Notes:           utils.TrimPtr(req.Notes),
	}
	if appt.DurationMinutes <= 0 {
		appt.DurationMinutes = defaultAppointmentMinutes
	}
	if appt.ScheduledAt.Before(utils.UTCNow()) {
		return nil, NewBusinessError("APPOINTMENT_IN_PAST", "Appointment cannot be scheduled in the past", ErrAppointmentInPast)
	}

	err = f.withSchedule(ctx, appt.DentistName, func(txCtx context.Context) error {
		if err := f.ensureFree(txCtx, &appt); err != nil {
			return err
		}
		return f.appointmentRepo.Save(txCtx, &appt)
	})
	if err != nil {
		return nil, scheduleError(err, "APPOINTMENT_CREATE_FAILED", "Failed to create appointment")
	}
	appt.Patient = patient

	log := utils.Logger.WithFields(metadata.logFields()).WithFields(logrus.Fields{
		"appointment_uuid": appt.UUID.String(),
		"dentist":          appt.DentistName,
		"scheduled_at":     appt.ScheduledAt.Format(time.RFC3339),
	})
	log.Info("appointment scheduled")

	if req.SendReminder && f.sendReminders && f.notifier != nil {
		f.sendReminder(ctx, &appt, patient, log)
	}

	resp := ToAppointmentDTO(appt)
	return &resp, nil
}

func (f *AppointmentFlowImpl) List(ctx context.Context, req *dto.ListAppointmentsRequest) (*dto.ListAppointmentsResponse, error) {
	if req == nil {
		req = &dto.ListAppointmentsRequest{}
	}
	page, limit, offset := normalizePagination(req.Page, req.Limit)

	filter := models.AppointmentFilter{
		DentistName: utils.TrimPtr(req.DentistName),
		Status:      utils.TrimPtr(req.Status),
	}
	if p := utils.TrimPtr(req.PatientUUID); p != nil {
		patient, err := getPatient(ctx, f.patientRepo, *p)
		if err != nil {
			return nil, err
		}
		filter.PatientID = &patient.ID
	}

	from, err := parseDate(req.From)
	if err != nil {
		return nil, NewBusinessError("APPOINTMENT_VALIDATION_FAILED", "from must be YYYY-MM-DD", fmt.Errorf("%w: %w", ErrValidationFailed, err))
	}
	to, err := parseDate(req.To)
	if err != nil {
		return nil, NewBusinessError("APPOINTMENT_VALIDATION_FAILED", "to must be YYYY-MM-DD", fmt.Errorf("%w: %w", ErrValidationFailed, err))
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, NewBusinessError("INVALID_DATE_RANGE", "from cannot be after to", ErrStartDateAfterEndDate)
	}
	filter.ScheduledAfter = from
	if to != nil {
		// inclusive end day
		end := to.Add(24 * time.Hour)
		filter.ScheduledBefore = &end
	}

	rows, err := f.appointmentRepo.ByFilter(ctx, filter, "", limit, offset)
	if err != nil {
		return nil, NewBusinessError("APPOINTMENT_LIST_FAILED", "Failed to list appointments", err)
	}
	total, err := f.appointmentRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("APPOINTMENT_LIST_FAILED", "Failed to count appointments", err)
	}

	out := make([]dto.AppointmentDTO, 0, len(rows))
	for _, a := range rows {
		out = append(out, ToAppointmentDTO(*a))
	}
	return &dto.ListAppointmentsResponse{
		Items:      out,
		Pagination: newPaginationInfo(total, page, limit),
	}, nil
}

func (f *AppointmentFlowImpl) Get(ctx context.Context, appointmentUUID string) (*dto.AppointmentDTO, error) {
	appt, err := f.getAppointment(ctx, appointmentUUID)
	if err != nil {
		return nil, err
	}
	resp := ToAppointmentDTO(*appt)
	return &resp, nil
}

func (f *AppointmentFlowImpl) Update(ctx context.Context, appointmentUUID string, req *dto.UpdateAppointmentRequest, metadata *ClientMetadata) (*dto.AppointmentDTO, error) {
	if req == nil {
		return nil, NewBusinessError("APPOINTMENT_VALIDATION_FAILED", "Request body is required", ErrValidationFailed)
	}
	if !isAppointmentStatus(req.Status) {
		return nil, NewBusinessError("INVALID_APPOINTMENT_STATUS", "Unknown appointment status", ErrInvalidAppointmentArg)
	}
	appt, err := f.getAppointment(ctx, appointmentUUID)
	if err != nil {
		return nil, err
	}

	rescheduled := !req.ScheduledAt.UTC().Equal(appt.ScheduledAt.UTC()) ||
		strings.TrimSpace(req.DentistName) != appt.DentistName ||
		(req.DurationMinutes > 0 && req.DurationMinutes != appt.DurationMinutes)

	appt.DentistName = strings.TrimSpace(req.DentistName)
	appt.Treatment = strings.TrimSpace(req.Treatment)
	appt.ScheduledAt = req.ScheduledAt.UTC()
	if req.DurationMinutes > 0 {
		appt.DurationMinutes = req.DurationMinutes
	}
	appt.Status = req.Status
	appt.Notes = utils.TrimPtr(req.Notes)
	appt.UpdatedAt = utils.UTCNow()

	checkSlot := rescheduled && appt.Status == models.AppointmentStatusScheduled
	if checkSlot {
		if appt.ScheduledAt.Before(utils.UTCNow()) {
			return nil, NewBusinessError("APPOINTMENT_IN_PAST", "Appointment cannot be scheduled in the past", ErrAppointmentInPast)
		}
		appt.ReminderSentAt = nil
	}

	patient := appt.Patient
	appt.Patient = nil
	write := func(txCtx context.Context) error {
		if checkSlot {
			if err := f.ensureFree(txCtx, appt); err != nil {
				return err
			}
		}
		return f.appointmentRepo.Update(txCtx, appt, "uuid", "patient_id")
	}
	if checkSlot {
		err = f.withSchedule(ctx, appt.DentistName, write)
	} else {
		err = write(ctx)
	}
	appt.Patient = patient
	if err != nil {
		return nil, scheduleError(err, "APPOINTMENT_UPDATE_FAILED", "Failed to update appointment")
	}

	utils.Logger.WithFields(metadata.logFields()).WithFields(logrus.Fields{
		"appointment_uuid": appt.UUID.String(),
		"status":           appt.Status,
	}).Info("appointment updated")

	resp := ToAppointmentDTO(*appt)
	return &resp, nil
}

func (f *AppointmentFlowImpl) Cancel(ctx context.Context, appointmentUUID string, metadata *ClientMetadata) (*dto.AppointmentDTO, error) {
	appt, err := f.getAppointment(ctx, appointmentUUID)
	if err != nil {
		return nil, err
	}
	if appt.Status != models.AppointmentStatusScheduled {
		return nil, NewBusinessErrorf("APPOINTMENT_NOT_ACTIVE", "Appointment is %s", ErrAppointmentNotActive, appt.Status)
	}

	appt.Status = models.AppointmentStatusCancelled
	appt.UpdatedAt = utils.UTCNow()
	patient := appt.Patient
	appt.Patient = nil
	if err := f.appointmentRepo.Update(ctx, appt, "uuid", "patient_id"); err != nil {
		return nil, NewBusinessError("APPOINTMENT_UPDATE_FAILED", "Failed to cancel appointment", err)
	}
	appt.Patient = patient

	utils.Logger.WithFields(metadata.logFields()).WithField("appointment_uuid", appt.UUID.String()).Info("appointment cancelled")

	resp := ToAppointmentDTO(*appt)
	return &resp, nil
}

func (f *AppointmentFlowImpl) Delete(ctx context.Context, appointmentUUID string, metadata *ClientMetadata) error {
	appt, err := f.getAppointment(ctx, appointmentUUID)
	if err != nil {
		return err
	}
	if err := f.appointmentRepo.DeleteByID(ctx, appt.ID); err != nil {
		return NewBusinessError("APPOINTMENT_DELETE_FAILED", "Failed to delete appointment", err)
	}
	utils.Logger.WithFields(metadata.logFields()).WithField("appointment_uuid", appt.UUID.String()).Info("appointment deleted")
	return nil
}

// withSchedule runs fn in a transaction holding the dentist's schedule lock, so
// the overlap check and the write of concurrent bookings cannot interleave
func (f *AppointmentFlowImpl) withSchedule(ctx context.Context, dentistName string, fn func(context.Context) error) error {
	return f.runTx(ctx, func(txCtx context.Context) error {
		if err := f.appointmentRepo.LockDentistSchedule(txCtx, dentistName); err != nil {
			return err
		}
		return fn(txCtx)
	})
}

// scheduleError passes business errors through and wraps storage failures
func scheduleError(err error, code, message string) error {
	var be *BusinessError
	if errors.As(err, &be) {
		return err
	}
	return NewBusinessError(code, message, err)
}

// ensureFree rejects a slot that overlaps another scheduled appointment of the same dentist
func (f *AppointmentFlowImpl) ensureFree(ctx context.Context, appt *models.Appointment) error {
	clashes, err := f.appointmentRepo.ListOverlapping(ctx, appt.DentistName, appt.ScheduledAt, appt.EndsAt(), appt.ID)
	if err != nil {
		return NewBusinessError("APPOINTMENT_LOOKUP_FAILED", "Failed to check dentist availability", err)
	}
	if len(clashes) > 0 {
		c := clashes[0]
		return NewBusinessErrorf("APPOINTMENT_OVERLAP", "%s is booked from %s to %s", ErrAppointmentOverlap,
			appt.DentistName, c.ScheduledAt.UTC().Format(time.RFC3339), c.EndsAt().UTC().Format(time.RFC3339))
	}
	return nil
}

// SendDueReminders texts every scheduled patient whose appointment starts within
// leadTime and who has not been reminded yet. It returns how many reminders went out.
func (f *AppointmentFlowImpl) SendDueReminders(ctx context.Context, leadTime time.Duration) (int, error) {
	if !f.sendReminders || f.notifier == nil {
		return 0, nil
	}
	now := utils.UTCNow()
	until := now.Add(leadTime)
	filter := models.AppointmentFilter{
		Status:          utils.ToPtr(models.AppointmentStatusScheduled),
		ScheduledAfter:  &now,
		ScheduledBefore: &until,
		ReminderPending: utils.ToPtr(true),
	}
	due, err := f.appointmentRepo.ByFilter(ctx, filter, "scheduled_at ASC", reminderBatchSize, 0)
	if err != nil {
		return 0, NewBusinessError("APPOINTMENT_LIST_FAILED", "Failed to list due reminders", err)
	}

	sent := 0
	for _, appt := range due {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if appt.Patient == nil {
			continue
		}
		log := utils.Logger.WithFields(logrus.Fields{
			"appointment_uuid": appt.UUID.String(),
			"scheduled_at":     appt.ScheduledAt.Format(time.RFC3339),
		})
		if f.sendReminder(ctx, appt, appt.Patient, log) {
			sent++
		}
	}
	return sent, nil
}

// sendReminder is best effort: a failed SMS never fails the booking
func (f *AppointmentFlowImpl) sendReminder(ctx context.Context, appt *models.Appointment, patient *models.Patient, log *logrus.Entry) bool {
	msg := fmt.Sprintf("Dear %s, your %s appointment with %s is on %s (UTC).",
		patient.FullName(), appt.Treatment, appt.DentistName, appt.ScheduledAt.Format("2006-01-02 15:04"))
	if err := f.notifier.SendSMS(ctx, patient.Mobile, msg); err != nil {
		log.WithError(err).Warn("appointment reminder not sent")
		return false
	}
	now := utils.UTCNow()
	appt.ReminderSentAt = &now
	saved := appt.Patient
	appt.Patient = nil
	if err := f.appointmentRepo.Update(ctx, appt, "uuid", "patient_id"); err != nil {
		log.WithError(err).Warn("failed to record reminder time")
	}
	appt.Patient = saved
	return true
}

func (f *AppointmentFlowImpl) getAppointment(ctx context.Context, appointmentUUID string) (*models.Appointment, error) {
	if _, err := utils.ParseUUID(appointmentUUID); err != nil {
		return nil, NewBusinessError("INVALID_UUID", "Invalid appointment UUID", fmt.Errorf("%w: %w", ErrInvalidUUID, err))
	}
	appt, err := f.appointmentRepo.ByUUID(ctx, appointmentUUID)
	if err != nil {
		return nil, NewBusinessError("APPOINTMENT_LOOKUP_FAILED", "Failed to lookup appointment", err)
	}
	if appt == nil {
		return nil, NewBusinessError("APPOINTMENT_NOT_FOUND", "Appointment not found", ErrAppointmentNotFound)
	}
	return appt, nil
}

func isAppointmentStatus(s string) bool {
	switch s {
	case models.AppointmentStatusScheduled,
		models.AppointmentStatusCompleted,
		models.AppointmentStatusCancelled,
		models.AppointmentStatusNoShow:
		return true
	}
	return false
}
