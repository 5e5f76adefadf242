package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirphl/dentalcare/app/dto"
	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/repository"
	"github.com/amirphl/dentalcare/utils"
	"github.com/lib/pq"
)

// PatientFlow handles patient records
type PatientFlow interface {
	Create(ctx context.Context, req *dto.CreatePatientRequest, metadata *ClientMetadata) (*dto.PatientDTO, error)
	List(ctx context.Context, req *dto.ListPatientsRequest) (*dto.ListPatientsResponse, error)
	Get(ctx context.Context, patientUUID string) (*dto.PatientDTO, error)
	Update(ctx context.Context, patientUUID string, req *dto.UpdatePatientRequest, metadata *ClientMetadata) (*dto.PatientDTO, error)
	Delete(ctx context.Context, patientUUID string, metadata *ClientMetadata) error
}

type PatientFlowImpl struct {
	patientRepo repository.PatientRepository
}

func NewPatientFlow(patientRepo repository.PatientRepository) PatientFlow {
	return &PatientFlowImpl{patientRepo: patientRepo}
}

func (f *PatientFlowImpl) Create(ctx context.Context, req *dto.CreatePatientRequest, metadata *ClientMetadata) (*dto.PatientDTO, error) {
	patient := models.Patient{}
	if err := applyPatientRequest(&patient, req); err != nil {
		return nil, err
	}

	existing, err := f.patientRepo.ByMobile(ctx, patient.Mobile)
	if err != nil {
		return nil, NewBusinessError("PATIENT_LOOKUP_FAILED", "Failed to lookup patient", err)
	}
	if existing != nil {
		return nil, NewBusinessError("MOBILE_ALREADY_EXISTS", "A patient with this mobile already exists", ErrMobileAlreadyExists)
	}

	if err := f.patientRepo.Save(ctx, &patient); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, NewBusinessError("MOBILE_ALREADY_EXISTS", "A patient with this mobile already exists", ErrMobileAlreadyExists)
		}
		return nil, NewBusinessError("PATIENT_CREATE_FAILED", "Failed to create patient", err)
	}

	utils.Logger.WithFields(metadata.logFields()).WithField("patient_uuid", patient.UUID.String()).Info("patient registered")

	resp := ToPatientDTO(patient)
	return &resp, nil
}

func (f *PatientFlowImpl) List(ctx context.Context, req *dto.ListPatientsRequest) (*dto.ListPatientsResponse, error) {
	if req == nil {
		req = &dto.ListPatientsRequest{}
	}
	page, limit, offset := normalizePagination(req.Page, req.Limit)
	filter := models.PatientFilter{Search: utils.TrimPtr(req.Search)}

	patients, err := f.patientRepo.ByFilter(ctx, filter, "last_name ASC, first_name ASC", limit, offset)
	if err != nil {
		return nil, NewBusinessError("PATIENT_LIST_FAILED", "Failed to list patients", err)
	}
	total, err := f.patientRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("PATIENT_LIST_FAILED", "Failed to count patients", err)
	}

	out := make([]dto.PatientDTO, 0, len(patients))
	for _, p := range patients {
		out = append(out, ToPatientDTO(*p))
	}
	return &dto.ListPatientsResponse{
		Items:      out,
		Pagination: newPaginationInfo(total, page, limit),
	}, nil
}

func (f *PatientFlowImpl) Get(ctx context.Context, patientUUID string) (*dto.PatientDTO, error) {
	patient, err := getPatient(ctx, f.patientRepo, patientUUID)
	if err != nil {
		return nil, err
	}
	resp := ToPatientDTO(*patient)
	return &resp, nil
}

func (f *PatientFlowImpl) Update(ctx context.Context, patientUUID string, req *dto.UpdatePatientRequest, metadata *ClientMetadata) (*dto.PatientDTO, error) {
	patient, err := getPatient(ctx, f.patientRepo, patientUUID)
	if err != nil {
		return nil, err
	}
	previousMobile := patient.Mobile
	if err := applyPatientRequest(patient, req); err != nil {
		return nil, err
	}

	if patient.Mobile != previousMobile {
		other, err := f.patientRepo.ByMobile(ctx, patient.Mobile)
		if err != nil {
			return nil, NewBusinessError("PATIENT_LOOKUP_FAILED", "Failed to lookup patient", err)
		}
		if other != nil && other.ID != patient.ID {
			return nil, NewBusinessError("MOBILE_ALREADY_EXISTS", "A patient with this mobile already exists", ErrMobileAlreadyExists)
		}
	}

	patient.UpdatedAt = utils.UTCNow()
	if err := f.patientRepo.Update(ctx, patient, "uuid"); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, NewBusinessError("MOBILE_ALREADY_EXISTS", "A patient with this mobile already exists", ErrMobileAlreadyExists)
		}
		return nil, NewBusinessError("PATIENT_UPDATE_FAILED", "Failed to update patient", err)
	}

	utils.Logger.WithFields(metadata.logFields()).WithField("patient_uuid", patient.UUID.String()).Info("patient updated")

	resp := ToPatientDTO(*patient)
	return &resp, nil
}

// Delete removes the patient; appointments and radiograph rows cascade
func (f *PatientFlowImpl) Delete(ctx context.Context, patientUUID string, metadata *ClientMetadata) error {
	patient, err := getPatient(ctx, f.patientRepo, patientUUID)
	if err != nil {
		return err
	}
	if err := f.patientRepo.DeleteByID(ctx, patient.ID); err != nil {
		return NewBusinessError("PATIENT_DELETE_FAILED", "Failed to delete patient", err)
	}
	utils.Logger.WithFields(metadata.logFields()).WithField("patient_uuid", patient.UUID.String()).Info("patient deleted")
	return nil
}

func applyPatientRequest(p *models.Patient, req *dto.CreatePatientRequest) error {
	if req == nil {
		return NewBusinessError("PATIENT_VALIDATION_FAILED", "Request body is required", ErrValidationFailed)
	}
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return NewBusinessError("PATIENT_VALIDATION_FAILED", "date_of_birth must be YYYY-MM-DD", fmt.Errorf("%w: %w", ErrValidationFailed, err))
	}
	if dob != nil && dob.After(utils.UTCNow()) {
		return NewBusinessError("INVALID_DATE_OF_BIRTH", "Date of birth cannot be in the future", ErrInvalidDateOfBirth)
	}

	allergies := make(pq.StringArray, 0, len(req.Allergies))
	seen := make(map[string]bool, len(req.Allergies))
	for _, a := range req.Allergies {
		a = strings.TrimSpace(a)
		key := strings.ToLower(a)
		if a == "" || seen[key] {
			continue
		}
		seen[key] = true
		allergies = append(allergies, a)
	}

	p.FirstName = strings.TrimSpace(req.FirstName)
	p.LastName = strings.TrimSpace(req.LastName)
	p.Mobile = strings.TrimSpace(req.Mobile)
	p.Email = utils.TrimPtr(req.Email)
	p.DateOfBirth = dob
	p.Gender = utils.TrimPtr(req.Gender)
	p.Address = utils.TrimPtr(req.Address)
	p.MedicalNotes = utils.TrimPtr(req.MedicalNotes)
	p.Allergies = allergies
	return nil
}

func getPatient(ctx context.Context, repo repository.PatientRepository, patientUUID string) (*models.Patient, error) {
	if _, err := utils.ParseUUID(patientUUID); err != nil {
		return nil, NewBusinessError("INVALID_UUID", "Invalid patient UUID", fmt.Errorf("%w: %w", ErrInvalidUUID, err))
	}
	patient, err := repo.ByUUID(ctx, patientUUID)
	if err != nil {
		return nil, NewBusinessError("PATIENT_LOOKUP_FAILED", "Failed to lookup patient", err)
	}
	if patient == nil {
		return nil, NewBusinessError("PATIENT_NOT_FOUND", "Patient not found", ErrPatientNotFound)
	}
	return patient, nil
}
