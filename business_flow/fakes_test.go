package businessflow

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/amirphl/dentalcare/app/services"
	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errFakeDB = errors.New("fake db failure")

func passthroughTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func paginate[T any](rows []*T, limit, offset int) []*T {
	if offset >= len(rows) {
		return []*T{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// ---- inventory items ----

type fakeItemRepo struct {
	mu      sync.Mutex
	nextID  uint
	rows    map[uint]*models.InventoryItem
	saveErr error
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{rows: map[uint]*models.InventoryItem{}}
}

func (r *fakeItemRepo) sorted() []*models.InventoryItem {
	out := make([]*models.InventoryItem, 0, len(r.rows))
	for _, it := range r.rows {
		cp := *it
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (r *fakeItemRepo) ByID(ctx context.Context, id uint) (*models.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if it, ok := r.rows[id]; ok {
		cp := *it
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeItemRepo) ByFilter(ctx context.Context, filter models.InventoryItemFilter, orderBy string, limit, offset int) ([]*models.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.InventoryItem
	for _, it := range r.sorted() {
		if filter.Category != nil && it.Category != *filter.Category {
			continue
		}
		if filter.LowStock != nil && it.IsLowStock() != *filter.LowStock {
			continue
		}
		out = append(out, it)
	}
	return paginate(out, limit, offset), nil
}

func (r *fakeItemRepo) Save(ctx context.Context, entity *models.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	for _, it := range r.rows {
		if it.Code == entity.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	entity.ID = r.nextID
	if entity.UUID == uuid.Nil {
		entity.UUID = uuid.New()
	}
	cp := *entity
	r.rows[entity.ID] = &cp
	return nil
}

func (r *fakeItemRepo) Count(ctx context.Context, filter models.InventoryItemFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakeItemRepo) ByUUID(ctx context.Context, id string) (*models.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.rows {
		if it.UUID.String() == id {
			cp := *it
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeItemRepo) ByCode(ctx context.Context, code string) (*models.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.rows {
		if it.Code == code {
			cp := *it
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeItemRepo) Update(ctx context.Context, item *models.InventoryItem, omit ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.rows[item.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *item
	cp.Code = old.Code
	cp.UUID = old.UUID
	cp.Quantity = old.Quantity
	r.rows[item.ID] = &cp
	return nil
}

func (r *fakeItemRepo) AdjustQuantity(ctx context.Context, id uint, delta int) (*models.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	if it.Quantity+delta < 0 {
		cp := *it
		return &cp, repository.ErrInsufficientStock
	}
	it.Quantity += delta
	cp := *it
	return &cp, nil
}

func (r *fakeItemRepo) DeleteByID(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *fakeItemRepo) CountAll(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

// ---- inventory requests ----

type fakeRequestRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*models.InventoryRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{rows: map[uint]*models.InventoryRequest{}}
}

func (r *fakeRequestRepo) ByID(ctx context.Context, id uint) (*models.InventoryRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.rows[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeRequestRepo) ByFilter(ctx context.Context, filter models.InventoryRequestFilter, orderBy string, limit, offset int) ([]*models.InventoryRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.InventoryRequest
	for _, e := range r.rows {
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, limit, offset), nil
}

func (r *fakeRequestRepo) Save(ctx context.Context, entity *models.InventoryRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.rows {
		if e.Code == entity.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	entity.ID = r.nextID
	if entity.UUID == uuid.Nil {
		entity.UUID = uuid.New()
	}
	cp := *entity
	r.rows[entity.ID] = &cp
	return nil
}

func (r *fakeRequestRepo) Count(ctx context.Context, filter models.InventoryRequestFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakeRequestRepo) ByUUID(ctx context.Context, id string) (*models.InventoryRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.rows {
		if e.UUID.String() == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRequestRepo) ByCode(ctx context.Context, code string) (*models.InventoryRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.rows {
		if e.Code == code {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRequestRepo) UpdateStatus(ctx context.Context, id uint, from, to string, decidedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[id]
	if !ok || e.Status != from {
		return repository.ErrStatusChanged
	}
	e.Status = to
	e.DecidedAt = decidedAt
	return nil
}

func (r *fakeRequestRepo) DeleteByID(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *fakeRequestRepo) CountAll(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

// ---- patients ----

type fakePatientRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*models.Patient
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{rows: map[uint]*models.Patient{}}
}

func (r *fakePatientRepo) ByID(ctx context.Context, id uint) (*models.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.rows[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *fakePatientRepo) ByFilter(ctx context.Context, filter models.PatientFilter, orderBy string, limit, offset int) ([]*models.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Patient
	for _, p := range r.rows {
		if filter.Search != nil {
			q := strings.ToLower(*filter.Search)
			if !strings.Contains(strings.ToLower(p.FirstName+" "+p.LastName+" "+p.Mobile), q) {
				continue
			}
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastName < out[j].LastName })
	return paginate(out, limit, offset), nil
}

func (r *fakePatientRepo) Save(ctx context.Context, entity *models.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.Mobile == entity.Mobile {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	entity.ID = r.nextID
	if entity.UUID == uuid.Nil {
		entity.UUID = uuid.New()
	}
	cp := *entity
	r.rows[entity.ID] = &cp
	return nil
}

func (r *fakePatientRepo) Count(ctx context.Context, filter models.PatientFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakePatientRepo) ByUUID(ctx context.Context, id string) (*models.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.UUID.String() == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePatientRepo) ByMobile(ctx context.Context, mobile string) (*models.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.Mobile == mobile {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePatientRepo) Update(ctx context.Context, patient *models.Patient, omit ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[patient.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *patient
	r.rows[patient.ID] = &cp
	return nil
}

func (r *fakePatientRepo) DeleteByID(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

// ---- appointments ----

type fakeAppointmentRepo struct {
	mu       sync.Mutex
	nextID   uint
	rows     map[uint]*models.Appointment
	patients *fakePatientRepo
	locked   []string
}

func newFakeAppointmentRepo(patients *fakePatientRepo) *fakeAppointmentRepo {
	return &fakeAppointmentRepo{rows: map[uint]*models.Appointment{}, patients: patients}
}

func (r *fakeAppointmentRepo) withPatient(a *models.Appointment) *models.Appointment {
	cp := *a
	if r.patients != nil {
		cp.Patient, _ = r.patients.ByID(context.Background(), cp.PatientID)
	}
	return &cp
}

func (r *fakeAppointmentRepo) ByID(ctx context.Context, id uint) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.rows[id]; ok {
		return r.withPatient(a), nil
	}
	return nil, nil
}

func (r *fakeAppointmentRepo) ByFilter(ctx context.Context, filter models.AppointmentFilter, orderBy string, limit, offset int) ([]*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Appointment
	for _, a := range r.rows {
		if filter.PatientID != nil && a.PatientID != *filter.PatientID {
			continue
		}
		if filter.DentistName != nil && a.DentistName != *filter.DentistName {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.ScheduledAfter != nil && a.ScheduledAt.Before(*filter.ScheduledAfter) {
			continue
		}
		if filter.ScheduledBefore != nil && !a.ScheduledAt.Before(*filter.ScheduledBefore) {
			continue
		}
		if filter.ReminderPending != nil && (a.ReminderSentAt == nil) != *filter.ReminderPending {
			continue
		}
		out = append(out, r.withPatient(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return paginate(out, limit, offset), nil
}

func (r *fakeAppointmentRepo) Save(ctx context.Context, entity *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	entity.ID = r.nextID
	if entity.UUID == uuid.Nil {
		entity.UUID = uuid.New()
	}
	cp := *entity
	cp.Patient = nil
	r.rows[entity.ID] = &cp
	return nil
}

func (r *fakeAppointmentRepo) Count(ctx context.Context, filter models.AppointmentFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakeAppointmentRepo) ByUUID(ctx context.Context, id string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.UUID.String() == id {
			return r.withPatient(a), nil
		}
	}
	return nil, nil
}

func (r *fakeAppointmentRepo) LockDentistSchedule(ctx context.Context, dentistName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = append(r.locked, dentistName)
	return nil
}

func (r *fakeAppointmentRepo) ListOverlapping(ctx context.Context, dentistName string, start, end time.Time, excludeID uint) ([]*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Appointment
	for _, a := range r.rows {
		if a.ID == excludeID || a.DentistName != dentistName || a.Status != models.AppointmentStatusScheduled {
			continue
		}
		if a.Overlaps(start, end) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) Update(ctx context.Context, appointment *models.Appointment, omit ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[appointment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *appointment
	cp.Patient = nil
	r.rows[appointment.ID] = &cp
	return nil
}

func (r *fakeAppointmentRepo) DeleteByID(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

// ---- radiographs ----

type fakeRadiographRepo struct {
	mu      sync.Mutex
	nextID  uint
	rows    map[uint]*models.Radiograph
	saveErr error
}

func newFakeRadiographRepo() *fakeRadiographRepo {
	return &fakeRadiographRepo{rows: map[uint]*models.Radiograph{}}
}

func (r *fakeRadiographRepo) ByID(ctx context.Context, id uint) (*models.Radiograph, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rg, ok := r.rows[id]; ok {
		cp := *rg
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeRadiographRepo) ByFilter(ctx context.Context, filter models.RadiographFilter, orderBy string, limit, offset int) ([]*models.Radiograph, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Radiograph
	for _, rg := range r.rows {
		if filter.PatientID != nil && rg.PatientID != *filter.PatientID {
			continue
		}
		cp := *rg
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, limit, offset), nil
}

func (r *fakeRadiographRepo) Save(ctx context.Context, entity *models.Radiograph) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.nextID++
	entity.ID = r.nextID
	cp := *entity
	r.rows[entity.ID] = &cp
	return nil
}

func (r *fakeRadiographRepo) Count(ctx context.Context, filter models.RadiographFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakeRadiographRepo) ByUUID(ctx context.Context, id string) (*models.Radiograph, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rg := range r.rows {
		if rg.UUID.String() == id {
			cp := *rg
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRadiographRepo) ByPatientID(ctx context.Context, patientID uint, limit, offset int) ([]*models.Radiograph, error) {
	return r.ByFilter(ctx, models.RadiographFilter{PatientID: &patientID}, "", limit, offset)
}

func (r *fakeRadiographRepo) DeleteByID(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

// ---- feedback ----

type fakeFeedbackRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*models.Feedback
}

func newFakeFeedbackRepo() *fakeFeedbackRepo {
	return &fakeFeedbackRepo{rows: map[uint]*models.Feedback{}}
}

func (r *fakeFeedbackRepo) ByID(ctx context.Context, id uint) (*models.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fb, ok := r.rows[id]; ok {
		cp := *fb
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeFeedbackRepo) ByFilter(ctx context.Context, filter models.FeedbackFilter, orderBy string, limit, offset int) ([]*models.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Feedback
	for _, fb := range r.rows {
		if filter.MinRating != nil && fb.Rating < *filter.MinRating {
			continue
		}
		cp := *fb
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, limit, offset), nil
}

func (r *fakeFeedbackRepo) Save(ctx context.Context, entity *models.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	entity.ID = r.nextID
	if entity.UUID == uuid.Nil {
		entity.UUID = uuid.New()
	}
	cp := *entity
	r.rows[entity.ID] = &cp
	return nil
}

func (r *fakeFeedbackRepo) Count(ctx context.Context, filter models.FeedbackFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakeFeedbackRepo) ByUUID(ctx context.Context, id string) (*models.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, fb := range r.rows {
		if fb.UUID.String() == id {
			cp := *fb
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeFeedbackRepo) AverageRating(ctx context.Context, filter models.FeedbackFilter) (float64, error) {
	rows, _ := r.ByFilter(ctx, filter, "", 0, 0)
	if len(rows) == 0 {
		return 0, nil
	}
	sum := 0
	for _, fb := range rows {
		sum += fb.Rating
	}
	return float64(sum) / float64(len(rows)), nil
}

func (r *fakeFeedbackRepo) DeleteByID(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

// ---- inquiries ----

type fakeInquiryRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*models.Inquiry
}

func newFakeInquiryRepo() *fakeInquiryRepo {
	return &fakeInquiryRepo{rows: map[uint]*models.Inquiry{}}
}

func (r *fakeInquiryRepo) ByID(ctx context.Context, id uint) (*models.Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q, ok := r.rows[id]; ok {
		cp := *q
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeInquiryRepo) ByFilter(ctx context.Context, filter models.InquiryFilter, orderBy string, limit, offset int) ([]*models.Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Inquiry
	for _, q := range r.rows {
		if filter.Status != nil && q.Status != *filter.Status {
			continue
		}
		cp := *q
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, limit, offset), nil
}

func (r *fakeInquiryRepo) Save(ctx context.Context, entity *models.Inquiry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	entity.ID = r.nextID
	if entity.UUID == uuid.Nil {
		entity.UUID = uuid.New()
	}
	cp := *entity
	r.rows[entity.ID] = &cp
	return nil
}

func (r *fakeInquiryRepo) Count(ctx context.Context, filter models.InquiryFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakeInquiryRepo) ByUUID(ctx context.Context, id string) (*models.Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.rows {
		if q.UUID.String() == id {
			cp := *q
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeInquiryRepo) Answer(ctx context.Context, id uint, response string, answeredAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.rows[id]
	if !ok || q.Status != models.InquiryStatusOpen {
		return repository.ErrStatusChanged
	}
	q.Status = models.InquiryStatusAnswered
	q.Response = &response
	q.AnsweredAt = &answeredAt
	return nil
}

func (r *fakeInquiryRepo) DeleteByID(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

// ---- staff ----

type fakeStaffRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*models.Staff
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{rows: map[uint]*models.Staff{}}
}

func (r *fakeStaffRepo) ByID(ctx context.Context, id uint) (*models.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.rows[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeStaffRepo) ByFilter(ctx context.Context, filter models.StaffFilter, orderBy string, limit, offset int) ([]*models.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Staff
	for _, s := range r.rows {
		cp := *s
		out = append(out, &cp)
	}
	return paginate(out, limit, offset), nil
}

func (r *fakeStaffRepo) Save(ctx context.Context, entity *models.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.rows {
		if s.Username == entity.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	entity.ID = r.nextID
	if entity.UUID == uuid.Nil {
		entity.UUID = uuid.New()
	}
	cp := *entity
	r.rows[entity.ID] = &cp
	return nil
}

func (r *fakeStaffRepo) Count(ctx context.Context, filter models.StaffFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func (r *fakeStaffRepo) ByUUID(ctx context.Context, id string) (*models.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.rows {
		if s.UUID.String() == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeStaffRepo) ByUsername(ctx context.Context, username string) (*models.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.rows {
		if s.Username == username {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeStaffRepo) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.LastLoginAt = &at
	return nil
}

// ---- services ----

type failingCodeGen struct{ err error }

func (g failingCodeGen) NextCode(ctx context.Context, scope services.CodeScope, prefix string, opts services.CodeOptions) (string, error) {
	return "", g.err
}

// fixedCodeGen always returns the same code, simulating a counter that was reset behind our back
type fixedCodeGen struct{ code string }

func (g fixedCodeGen) NextCode(ctx context.Context, scope services.CodeScope, prefix string, opts services.CodeOptions) (string, error) {
	return g.code, nil
}

type sentSMS struct {
	mobile  string
	message string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentSMS
	err  error
}

func (n *fakeNotifier) SendSMS(ctx context.Context, mobile, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentSMS{mobile: mobile, message: message})
	return nil
}

type fakeCaptcha struct {
	angle float64
}

func (c *fakeCaptcha) GenerateRotate(ctx context.Context) (*services.RotateChallenge, error) {
	return &services.RotateChallenge{
		ID:                "challenge-1",
		MasterImageBase64: "master",
		ThumbImageBase64:  "thumb",
		ExpiresAt:         time.Now().Add(time.Minute),
	}, nil
}

func (c *fakeCaptcha) VerifyRotate(ctx context.Context, challengeID string, userAngle float64) bool {
	return challengeID == "challenge-1" && userAngle == c.angle
}
