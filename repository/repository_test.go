package repository_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/repository"
	testingutil "github.com/amirphl/dentalcare/testing"
	"github.com/amirphl/dentalcare/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryItemRepository(t *testing.T) {
	testingutil.TestWithDB(t, func(testDB *testingutil.TestDB) {
		repo := repository.NewInventoryItemRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		item, err := fixtures.CreateTestInventoryItem("IN-001", 10)
		require.NoError(t, err)

		t.Run("ByCode", func(t *testing.T) {
			found, err := repo.ByCode(ctx, "IN-001")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, item.UUID, found.UUID)

			missing, err := repo.ByCode(ctx, "IN-999")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})

		t.Run("DuplicateCodeRejected", func(t *testing.T) {
			dup := &models.InventoryItem{Code: "IN-001", Name: "dup", Category: "consumables", Unit: "box"}
			err := repo.Save(ctx, dup)
			require.Error(t, err)
			assert.True(t, repository.IsUniqueViolation(err))
		})

		t.Run("AdjustQuantity", func(t *testing.T) {
			updated, err := repo.AdjustQuantity(ctx, item.ID, -4)
			require.NoError(t, err)
			assert.Equal(t, 6, updated.Quantity)

			unchanged, err := repo.AdjustQuantity(ctx, item.ID, -7)
			assert.ErrorIs(t, err, repository.ErrInsufficientStock)
			assert.Equal(t, 6, unchanged.Quantity)

			gone, err := repo.AdjustQuantity(ctx, item.ID+1000, 1)
			require.NoError(t, err)
			assert.Nil(t, gone)
		})

		t.Run("LowStockFilter", func(t *testing.T) {
			_, err := fixtures.CreateTestInventoryItem("IN-002", 2)
			require.NoError(t, err)

			low, err := repo.ByFilter(ctx, models.InventoryItemFilter{LowStock: utils.ToPtr(true)}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, low, 1)
			assert.Equal(t, "IN-002", low[0].Code)
		})

		t.Run("CountAllAfterDelete", func(t *testing.T) {
			require.NoError(t, repo.DeleteByID(ctx, item.ID))
			n, err := repo.CountAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
		})
	})
}

func TestAppointmentRepository(t *testing.T) {
	testingutil.TestWithDB(t, func(testDB *testingutil.TestDB) {
		repo := repository.NewAppointmentRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		patient, err := fixtures.CreateTestPatient()
		require.NoError(t, err)

		start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
		appt, err := fixtures.CreateTestAppointment(patient, "Dr. Rahimi", start, 30)
		require.NoError(t, err)

		t.Run("ListOverlapping", func(t *testing.T) {
			rows, err := repo.ListOverlapping(ctx, "Dr. Rahimi", start.Add(15*time.Minute), start.Add(45*time.Minute), 0)
			require.NoError(t, err)
			assert.Len(t, rows, 1)

			rows, err = repo.ListOverlapping(ctx, "Dr. Rahimi", start.Add(30*time.Minute), start.Add(time.Hour), 0)
			require.NoError(t, err)
			assert.Empty(t, rows)

			rows, err = repo.ListOverlapping(ctx, "Dr. Rahimi", start, start.Add(30*time.Minute), appt.ID)
			require.NoError(t, err)
			assert.Empty(t, rows)

			rows, err = repo.ListOverlapping(ctx, "Dr. Ahmadi", start, start.Add(30*time.Minute), 0)
			require.NoError(t, err)
			assert.Empty(t, rows)
		})

		t.Run("ScheduleLockSerializesTransactions", func(t *testing.T) {
			locked := make(chan struct{})
			release := make(chan struct{})
			firstDone := make(chan error, 1)
			go func() {
				firstDone <- repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
					if err := repo.LockDentistSchedule(txCtx, "Dr. Lock"); err != nil {
						close(locked)
						return err
					}
					close(locked)
					<-release
					return nil
				})
			}()
			<-locked

			var acquired atomic.Bool
			secondDone := make(chan error, 1)
			go func() {
				secondDone <- repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
					if err := repo.LockDentistSchedule(txCtx, "Dr. Lock"); err != nil {
						return err
					}
					acquired.Store(true)
					return nil
				})
			}()

			// another dentist is not blocked
			require.NoError(t, repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
				return repo.LockDentistSchedule(txCtx, "Dr. Other")
			}))

			time.Sleep(200 * time.Millisecond)
			assert.False(t, acquired.Load())

			close(release)
			require.NoError(t, <-firstDone)
			require.NoError(t, <-secondDone)
			assert.True(t, acquired.Load())
		})

		t.Run("ReminderPendingFilter", func(t *testing.T) {
			pending := models.AppointmentFilter{ReminderPending: utils.ToPtr(true)}
			rows, err := repo.ByFilter(ctx, pending, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			require.NotNil(t, rows[0].Patient)
			assert.Equal(t, patient.Mobile, rows[0].Patient.Mobile)

			rows[0].ReminderSentAt = utils.ToPtr(utils.UTCNow())
			rows[0].Patient = nil
			require.NoError(t, repo.Update(ctx, rows[0], "uuid", "patient_id"))

			rows, err = repo.ByFilter(ctx, pending, "", 0, 0)
			require.NoError(t, err)
			assert.Empty(t, rows)
		})
	})
}

func TestPatientRepository(t *testing.T) {
	testingutil.TestWithDB(t, func(testDB *testingutil.TestDB) {
		repo := repository.NewPatientRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		patient, err := fixtures.CreateTestPatient()
		require.NoError(t, err)

		found, err := repo.ByMobile(ctx, patient.Mobile)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, patient.ID, found.ID)
		assert.Equal(t, []string{"penicillin"}, []string(found.Allergies))

		byUUID, err := repo.ByUUID(ctx, patient.UUID.String())
		require.NoError(t, err)
		require.NotNil(t, byUUID)
		assert.Equal(t, patient.Mobile, byUUID.Mobile)
	})
}

func TestStaffRepository(t *testing.T) {
	testingutil.TestWithDB(t, func(testDB *testingutil.TestDB) {
		repo := repository.NewStaffRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		admin, err := fixtures.CreateTestStaff(models.StaffRoleAdmin)
		require.NoError(t, err)
		_, err = fixtures.CreateTestStaff(models.StaffRoleDentist)
		require.NoError(t, err)

		found, err := repo.ByUsername(ctx, admin.Username)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, admin.UUID, found.UUID)

		at := time.Now().UTC().Truncate(time.Second)
		require.NoError(t, repo.UpdateLastLogin(ctx, admin.ID, at))
		found, err = repo.ByID(ctx, admin.ID)
		require.NoError(t, err)
		require.NotNil(t, found.LastLoginAt)
		assert.WithinDuration(t, at, *found.LastLoginAt, time.Second)
	})
}

func TestInventoryRequestRepository(t *testing.T) {
	testingutil.TestWithDB(t, func(testDB *testingutil.TestDB) {
		repo := repository.NewInventoryRequestRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		req := &models.InventoryRequest{Code: "RI-001", ItemName: "Gloves", Quantity: 5, RequestedBy: "Nurse Ava"}
		require.NoError(t, repo.Save(ctx, req))

		t.Run("UpdateStatusFromExpected", func(t *testing.T) {
			now := utils.UTCNow()
			require.NoError(t, repo.UpdateStatus(ctx, req.ID, models.InventoryRequestStatusPending, models.InventoryRequestStatusApproved, &now))

			stored, err := repo.ByUUID(ctx, req.UUID.String())
			require.NoError(t, err)
			assert.Equal(t, models.InventoryRequestStatusApproved, stored.Status)
			assert.NotNil(t, stored.DecidedAt)
		})

		t.Run("UpdateStatusFromStale", func(t *testing.T) {
			now := utils.UTCNow()
			err := repo.UpdateStatus(ctx, req.ID, models.InventoryRequestStatusPending, models.InventoryRequestStatusRejected, &now)
			assert.ErrorIs(t, err, repository.ErrStatusChanged)

			stored, err := repo.ByUUID(ctx, req.UUID.String())
			require.NoError(t, err)
			assert.Equal(t, models.InventoryRequestStatusApproved, stored.Status)
		})

		t.Run("FulfilOnceInTransaction", func(t *testing.T) {
			items := repository.NewInventoryItemRepository(testDB.DB)
			item := &models.InventoryItem{Code: "ITEM-001", Name: "Gloves", Category: "consumables", Unit: "box", Quantity: 2}
			require.NoError(t, items.Save(ctx, item))

			fulfil := func() error {
				return repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
					now := utils.UTCNow()
					if err := repo.UpdateStatus(txCtx, req.ID, models.InventoryRequestStatusApproved, models.InventoryRequestStatusFulfilled, &now); err != nil {
						return err
					}
					_, err := items.AdjustQuantity(txCtx, item.ID, req.Quantity)
					return err
				})
			}
			require.NoError(t, fulfil())
			assert.ErrorIs(t, fulfil(), repository.ErrStatusChanged)

			stored, err := items.ByID(ctx, item.ID)
			require.NoError(t, err)
			assert.Equal(t, 7, stored.Quantity)
		})
	})
}

func TestInquiryRepository(t *testing.T) {
	testingutil.TestWithDB(t, func(testDB *testingutil.TestDB) {
		repo := repository.NewInquiryRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		inq := &models.Inquiry{Name: "Ali", Email: "ali@example.com", Subject: "Hours", Message: "Open on Fridays?"}
		require.NoError(t, repo.Save(ctx, inq))

		require.NoError(t, repo.Answer(ctx, inq.ID, "No", utils.UTCNow()))
		err := repo.Answer(ctx, inq.ID, "Yes", utils.UTCNow())
		assert.ErrorIs(t, err, repository.ErrStatusChanged)

		stored, err := repo.ByUUID(ctx, inq.UUID.String())
		require.NoError(t, err)
		require.NotNil(t, stored.Response)
		assert.Equal(t, "No", *stored.Response)
		assert.Equal(t, models.InquiryStatusAnswered, stored.Status)
	})
}

func TestWithTransactionRollsBack(t *testing.T) {
	testingutil.TestWithDB(t, func(testDB *testingutil.TestDB) {
		counters := repository.NewCounterRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		boom := errors.New("boom")
		err := repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
			if _, err := counters.IncrementAndGet(txCtx, "RB"); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		v, err := counters.Get(ctx, "RB")
		require.NoError(t, err)
		assert.Zero(t, v)
	})
}
