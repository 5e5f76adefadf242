package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plain password of every fixture staff account
const TestPassword = "TestPass123!"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestStaff creates an active staff account with TestPassword
func (tf *TestFixtures) CreateTestStaff(role string) (*models.Staff, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	staff := &models.Staff{
		Username:     fmt.Sprintf("%s.%06d", role, rand.Intn(1000000)),
		PasswordHash: string(hashedPassword),
		FullName:     "Test " + role,
		Role:         role,
		IsActive:     utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(staff).Error; err != nil {
		return nil, fmt.Errorf("failed to create test staff: %w", err)
	}
	return staff, nil
}

// CreateTestPatient creates a patient with a random valid mobile number
func (tf *TestFixtures) CreateTestPatient() (*models.Patient, error) {
	// exactly 9 random digits after the +989 prefix
	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	patient := &models.Patient{
		FirstName: "Sara",
		LastName:  "Karimi",
		Mobile:    "+989" + randomDigits,
		Allergies: []string{"penicillin"},
	}
	if err := tf.DB.DB.Create(patient).Error; err != nil {
		return nil, fmt.Errorf("failed to create test patient: %w", err)
	}
	return patient, nil
}

// CreateTestInventoryItem stores an item under the given code
func (tf *TestFixtures) CreateTestInventoryItem(code string, quantity int) (*models.InventoryItem, error) {
	item := &models.InventoryItem{
		Code:         code,
		Name:         "Nitrile gloves " + code,
		Category:     "consumables",
		Quantity:     quantity,
		Unit:         "box",
		ReorderLevel: 5,
		UnitPrice:    4.5,
	}
	if err := tf.DB.DB.Create(item).Error; err != nil {
		return nil, fmt.Errorf("failed to create test inventory item: %w", err)
	}
	return item, nil
}

// CreateTestAppointment books a scheduled appointment for the patient
func (tf *TestFixtures) CreateTestAppointment(patient *models.Patient, dentist string, at time.Time, minutes int) (*models.Appointment, error) {
	appt := &models.Appointment{
		PatientID:       patient.ID,
		DentistName:     dentist,
		Treatment:       "Check-up",
		ScheduledAt:     at.UTC(),
		DurationMinutes: minutes,
		Status:          models.AppointmentStatusScheduled,
	}
	if err := tf.DB.DB.Create(appt).Error; err != nil {
		return nil, fmt.Errorf("failed to create test appointment: %w", err)
	}
	return appt, nil
}
