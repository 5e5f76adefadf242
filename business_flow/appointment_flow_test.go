package businessflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirphl/dentalcare/app/dto"
	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type appointmentFixture struct {
	patients *fakePatientRepo
	appts    *fakeAppointmentRepo
	notifier *fakeNotifier
	flow     AppointmentFlow
	patient  *models.Patient
}

func newAppointmentFixture(t *testing.T, sendReminders bool) *appointmentFixture {
	t.Helper()
	fx := &appointmentFixture{patients: newFakePatientRepo(), notifier: &fakeNotifier{}}
	fx.appts = newFakeAppointmentRepo(fx.patients)
	fx.flow = NewAppointmentFlow(fx.appts, fx.patients, fx.notifier, sendReminders, passthroughTx)

	fx.patient = &models.Patient{FirstName: "Sara", LastName: "Karimi", Mobile: "+989121234567"}
	require.NoError(t, fx.patients.Save(context.Background(), fx.patient))
	return fx
}

func (fx *appointmentFixture) book(at time.Time, minutes int) *dto.CreateAppointmentRequest {
	return &dto.CreateAppointmentRequest{
		PatientUUID:     fx.patient.UUID.String(),
		DentistName:     "Dr. Rahimi",
		Treatment:       "Scaling",
		ScheduledAt:     at,
		DurationMinutes: minutes,
	}
}

func TestAppointmentFlow(t *testing.T) {
	ctx := context.Background()
	meta := NewClientMetadata("127.0.0.1", "test")
	tomorrow := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)

	t.Run("CreateDefaultsDuration", func(t *testing.T) {
		fx := newAppointmentFixture(t, false)
		a, err := fx.flow.Create(ctx, fx.book(tomorrow, 0), meta)
		require.NoError(t, err)
		assert.Equal(t, defaultAppointmentMinutes, a.DurationMinutes)
		assert.Equal(t, "Sara Karimi", a.PatientName)
		assert.Equal(t, models.AppointmentStatusScheduled, a.Status)
	})

	t.Run("RejectsPast", func(t *testing.T) {
		fx := newAppointmentFixture(t, false)
		_, err := fx.flow.Create(ctx, fx.book(time.Now().UTC().Add(-time.Hour), 30), meta)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("RejectsOverlap", func(t *testing.T) {
		fx := newAppointmentFixture(t, false)
		_, err := fx.flow.Create(ctx, fx.book(tomorrow, 60), meta)
		require.NoError(t, err)

		_, err = fx.flow.Create(ctx, fx.book(tomorrow.Add(30*time.Minute), 30), meta)
		require.Error(t, err)
		assert.True(t, IsAppointmentOverlap(err))

		// back to back is fine
		_, err = fx.flow.Create(ctx, fx.book(tomorrow.Add(60*time.Minute), 30), meta)
		require.NoError(t, err)

		// other dentists are independent
		req := fx.book(tomorrow, 30)
		req.DentistName = "Dr. Naderi"
		_, err = fx.flow.Create(ctx, req, meta)
		require.NoError(t, err)
	})

	t.Run("RacingBookingsTakeSlotOnce", func(t *testing.T) {
		fx := newAppointmentFixture(t, false)

		// a second booking of the same slot commits before the first one's transaction body runs
		var otherErr error
		interleaved := false
		interleavingTx := func(ctx context.Context, fn func(context.Context) error) error {
			if !interleaved {
				interleaved = true
				_, otherErr = fx.flow.Create(ctx, fx.book(tomorrow, 30), meta)
			}
			return fn(ctx)
		}
		flow := NewAppointmentFlow(fx.appts, fx.patients, fx.notifier, false, interleavingTx)

		_, err := flow.Create(ctx, fx.book(tomorrow.Add(15*time.Minute), 30), meta)
		require.NoError(t, otherErr)
		require.Error(t, err)
		assert.True(t, IsAppointmentOverlap(err))
		assert.Equal(t, []string{"Dr. Rahimi", "Dr. Rahimi"}, fx.appts.locked)

		all, err := fx.flow.List(ctx, &dto.ListAppointmentsRequest{})
		require.NoError(t, err)
		assert.Len(t, all.Items, 1)
	})

	t.Run("StorageFailureInsideSchedule", func(t *testing.T) {
		fx := newAppointmentFixture(t, false)
		failingTx := func(ctx context.Context, fn func(context.Context) error) error {
			return errFakeDB
		}
		flow := NewAppointmentFlow(fx.appts, fx.patients, fx.notifier, false, failingTx)

		_, err := flow.Create(ctx, fx.book(tomorrow, 30), meta)
		require.Error(t, err)
		assert.Equal(t, "APPOINTMENT_CREATE_FAILED", BusinessErrorCode(err))
	})

	t.Run("CancelFreesSlot", func(t *testing.T) {
		fx := newAppointmentFixture(t, false)
		a, err := fx.flow.Create(ctx, fx.book(tomorrow, 30), meta)
		require.NoError(t, err)

		cancelled, err := fx.flow.Cancel(ctx, a.UUID, meta)
		require.NoError(t, err)
		assert.Equal(t, models.AppointmentStatusCancelled, cancelled.Status)

		_, err = fx.flow.Cancel(ctx, a.UUID, meta)
		assert.True(t, IsAppointmentNotActive(err))

		_, err = fx.flow.Create(ctx, fx.book(tomorrow, 30), meta)
		require.NoError(t, err)
	})

	t.Run("RescheduleChecksOverlap", func(t *testing.T) {
		fx := newAppointmentFixture(t, false)
		_, err := fx.flow.Create(ctx, fx.book(tomorrow, 30), meta)
		require.NoError(t, err)
		second, err := fx.flow.Create(ctx, fx.book(tomorrow.Add(2*time.Hour), 30), meta)
		require.NoError(t, err)

		_, err = fx.flow.Update(ctx, second.UUID, &dto.UpdateAppointmentRequest{
			DentistName: "Dr. Rahimi",
			Treatment:   "Scaling",
			ScheduledAt: tomorrow.Add(15 * time.Minute),
			Status:      models.AppointmentStatusScheduled,
		}, meta)
		assert.True(t, IsAppointmentOverlap(err))

		moved, err := fx.flow.Update(ctx, second.UUID, &dto.UpdateAppointmentRequest{
			DentistName: "Dr. Rahimi",
			Treatment:   "Filling",
			ScheduledAt: tomorrow.Add(3 * time.Hour),
			Status:      models.AppointmentStatusScheduled,
		}, meta)
		require.NoError(t, err)
		assert.Equal(t, "Filling", moved.Treatment)
	})

	t.Run("SendsReminder", func(t *testing.T) {
		fx := newAppointmentFixture(t, true)
		req := fx.book(tomorrow, 30)
		req.SendReminder = true

		a, err := fx.flow.Create(ctx, req, meta)
		require.NoError(t, err)
		require.Len(t, fx.notifier.sent, 1)
		assert.Equal(t, "+989121234567", fx.notifier.sent[0].mobile)
		assert.Contains(t, fx.notifier.sent[0].message, "Dr. Rahimi")
		assert.NotNil(t, a.ReminderSentAt)
	})

	t.Run("ReminderFailureDoesNotFailBooking", func(t *testing.T) {
		fx := newAppointmentFixture(t, true)
		fx.notifier.err = errors.New("sms gateway down")
		req := fx.book(tomorrow, 30)
		req.SendReminder = true

		a, err := fx.flow.Create(ctx, req, meta)
		require.NoError(t, err)
		assert.Nil(t, a.ReminderSentAt)
	})

	t.Run("RemindersDisabled", func(t *testing.T) {
		fx := newAppointmentFixture(t, false)
		req := fx.book(tomorrow, 30)
		req.SendReminder = true

		_, err := fx.flow.Create(ctx, req, meta)
		require.NoError(t, err)
		assert.Empty(t, fx.notifier.sent)
	})

	t.Run("ListByDateRange", func(t *testing.T) {
		fx := newAppointmentFixture(t, false)
		_, err := fx.flow.Create(ctx, fx.book(tomorrow, 30), meta)
		require.NoError(t, err)
		_, err = fx.flow.Create(ctx, fx.book(tomorrow.Add(72*time.Hour), 30), meta)
		require.NoError(t, err)

		day := tomorrow.Format("2006-01-02")
		list, err := fx.flow.List(ctx, &dto.ListAppointmentsRequest{From: utils.ToPtr(day), To: utils.ToPtr(day)})
		require.NoError(t, err)
		assert.Len(t, list.Items, 1)

		_, err = fx.flow.List(ctx, &dto.ListAppointmentsRequest{From: utils.ToPtr("2030-02-01"), To: utils.ToPtr("2030-01-01")})
		assert.True(t, IsValidationError(err))
	})

	t.Run("UnknownPatient", func(t *testing.T) {
		fx := newAppointmentFixture(t, false)
		req := fx.book(tomorrow, 30)
		req.PatientUUID = "3f1c1f0e-7a52-4a0c-9d3c-1d2b8a6f4e11"
		_, err := fx.flow.Create(ctx, req, meta)
		assert.True(t, IsPatientNotFound(err))
	})
	t.Run("SendDueRemindersOnlyWithinLeadTime", func(t *testing.T) {
		fx := newAppointmentFixture(t, true)
		soon := time.Now().UTC().Add(2 * time.Hour).Truncate(time.Minute)
		_, err := fx.flow.Create(ctx, fx.book(soon, 30), meta)
		require.NoError(t, err)
		_, err = fx.flow.Create(ctx, fx.book(soon.Add(72*time.Hour), 30), meta)
		require.NoError(t, err)

		sent, err := fx.flow.SendDueReminders(ctx, 24*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		require.Len(t, fx.notifier.sent, 1)

		// already reminded appointments are skipped on the next pass
		sent, err = fx.flow.SendDueReminders(ctx, 24*time.Hour)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Len(t, fx.notifier.sent, 1)
	})

	t.Run("SendDueRemindersDisabled", func(t *testing.T) {
		fx := newAppointmentFixture(t, false)
		_, err := fx.flow.Create(ctx, fx.book(time.Now().UTC().Add(time.Hour), 30), meta)
		require.NoError(t, err)

		sent, err := fx.flow.SendDueReminders(ctx, 24*time.Hour)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Empty(t, fx.notifier.sent)
	})
}
