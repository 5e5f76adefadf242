package businessflow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/amirphl/dentalcare/app/dto"
	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/repository"
	"github.com/amirphl/dentalcare/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RadiographFlow stores dental X-ray images on disk and serves previews
type RadiographFlow interface {
	Upload(ctx context.Context, req *dto.UploadRadiographRequest, metadata *ClientMetadata) (*dto.RadiographDTO, error)
	List(ctx context.Context, patientUUID string, page, limit int) ([]dto.RadiographDTO, error)
	Download(ctx context.Context, radiographUUID string) (*dto.RadiographFile, error)
	Preview(ctx context.Context, radiographUUID string) (*dto.RadiographFile, error)
	Delete(ctx context.Context, radiographUUID string, metadata *ClientMetadata) error
}

// RadiographStorageOptions mirrors config.StorageConfig
type RadiographStorageOptions struct {
	BaseDir         string
	MaxUploadBytes  int64
	ThumbnailMaxDim int
}

type RadiographFlowImpl struct {
	patientRepo    repository.PatientRepository
	radiographRepo repository.RadiographRepository
	opts           RadiographStorageOptions
}

func NewRadiographFlow(patientRepo repository.PatientRepository, radiographRepo repository.RadiographRepository, opts RadiographStorageOptions) RadiographFlow {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 * 1024 * 1024
	}
	if opts.ThumbnailMaxDim <= 0 {
		opts.ThumbnailMaxDim = 320
	}
	return &RadiographFlowImpl{
		patientRepo:    patientRepo,
		radiographRepo: radiographRepo,
		opts:           opts,
	}
}

var allowedRadiographExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

func (f *RadiographFlowImpl) Upload(ctx context.Context, req *dto.UploadRadiographRequest, metadata *ClientMetadata) (*dto.RadiographDTO, error) {
	if req == nil || req.File == nil {
		return nil, NewBusinessError("RADIOGRAPH_VALIDATION_FAILED", "file is required", ErrValidationFailed)
	}
	patient, err := getPatient(ctx, f.patientRepo, req.PatientUUID)
	if err != nil {
		return nil, err
	}

	if req.FileSize > f.opts.MaxUploadBytes {
		return nil, NewBusinessErrorf("FILE_TOO_LARGE", "file size exceeds %dMB", ErrFileTooLarge, f.opts.MaxUploadBytes/(1024*1024))
	}
	ext := strings.ToLower(filepath.Ext(req.OriginalFilename))
	if _, ok := allowedRadiographExts[ext]; !ok {
		return nil, NewBusinessError("INVALID_FILE_TYPE", "allowed file types: jpg, jpeg, png, webp", ErrInvalidFileType)
	}

	kind := strings.TrimSpace(req.Kind)
	if kind == "" {
		kind = models.RadiographKindOther
	}
	if !isRadiographKind(kind) {
		return nil, NewBusinessError("RADIOGRAPH_VALIDATION_FAILED", "unknown radiograph kind", ErrValidationFailed)
	}
	takenAt, err := parseDate(req.TakenAt)
	if err != nil {
		return nil, NewBusinessError("RADIOGRAPH_VALIDATION_FAILED", "taken_at must be YYYY-MM-DD", fmt.Errorf("%w: %w", ErrValidationFailed, err))
	}

	storedPath, size, mimeType, err := f.saveToDisk(req.File, ext)
	if err != nil {
		return nil, err
	}
	fullPath, _ := f.resolvePath(storedPath)

	width, height, err := readDimensions(fullPath)
	if err != nil {
		_ = os.Remove(fullPath)
		return nil, NewBusinessError("INVALID_FILE_TYPE", "file is not a readable image", fmt.Errorf("%w: %w", ErrInvalidFileType, err))
	}

	rg := models.Radiograph{
		UUID:             uuid.New(),
		PatientID:        patient.ID,
		Kind:             kind,
		OriginalFilename: filepath.Base(req.OriginalFilename),
		StoredPath:       storedPath,
		SizeBytes:        size,
		MimeType:         mimeType,
		Width:            width,
		Height:           height,
		TakenAt:          takenAt,
		CreatedAt:        utils.UTCNow(),
	}
	if err := f.radiographRepo.Save(ctx, &rg); err != nil {
		_ = os.Remove(fullPath)
		return nil, NewBusinessError("RADIOGRAPH_SAVE_FAILED", "Failed to save radiograph", err)
	}

	utils.Logger.WithFields(metadata.logFields()).WithFields(logrus.Fields{
		"radiograph_uuid": rg.UUID.String(),
		"patient_uuid":    patient.UUID.String(),
		"size_bytes":      size,
	}).Info("radiograph uploaded")

	resp := ToRadiographDTO(rg, patient.UUID.String())
	return &resp, nil
}

func (f *RadiographFlowImpl) List(ctx context.Context, patientUUID string, page, limit int) ([]dto.RadiographDTO, error) {
	patient, err := getPatient(ctx, f.patientRepo, patientUUID)
	if err != nil {
		return nil, err
	}
	_, limit, offset := normalizePagination(page, limit)
	rows, err := f.radiographRepo.ByPatientID(ctx, patient.ID, limit, offset)
	if err != nil {
		return nil, NewBusinessError("RADIOGRAPH_LIST_FAILED", "Failed to list radiographs", err)
	}
	out := make([]dto.RadiographDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, ToRadiographDTO(*r, patient.UUID.String()))
	}
	return out, nil
}

func (f *RadiographFlowImpl) Download(ctx context.Context, radiographUUID string) (*dto.RadiographFile, error) {
	rg, fullPath, err := f.getRadiograph(ctx, radiographUUID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, NewBusinessError("RADIOGRAPH_READ_FAILED", "Failed to read radiograph", err)
	}
	contentType := rg.MimeType
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(fullPath)))
	}
	return &dto.RadiographFile{
		Filename:    rg.OriginalFilename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (f *RadiographFlowImpl) Preview(ctx context.Context, radiographUUID string) (*dto.RadiographFile, error) {
	_, fullPath, err := f.getRadiograph(ctx, radiographUUID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, NewBusinessError("RADIOGRAPH_READ_FAILED", "Failed to read radiograph", err)
	}
	defer file.Close()

	data, err := renderThumbnail(file, f.opts.ThumbnailMaxDim)
	if err != nil {
		return nil, NewBusinessError("RADIOGRAPH_PREVIEW_FAILED", "Failed to render preview", err)
	}
	return &dto.RadiographFile{
		Filename:    "preview.jpg",
		ContentType: "image/jpeg",
		Data:        data,
	}, nil
}

func (f *RadiographFlowImpl) Delete(ctx context.Context, radiographUUID string, metadata *ClientMetadata) error {
	rg, fullPath, err := f.getRadiograph(ctx, radiographUUID)
	if err != nil {
		return err
	}
	if err := f.radiographRepo.DeleteByID(ctx, rg.ID); err != nil {
		return NewBusinessError("RADIOGRAPH_DELETE_FAILED", "Failed to delete radiograph", err)
	}
	log := utils.Logger.WithFields(metadata.logFields()).WithField("radiograph_uuid", rg.UUID.String())
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("radiograph row deleted but file remains on disk")
	}
	log.Info("radiograph deleted")
	return nil
}

func (f *RadiographFlowImpl) getRadiograph(ctx context.Context, radiographUUID string) (*models.Radiograph, string, error) {
	if _, err := utils.ParseUUID(radiographUUID); err != nil {
		return nil, "", NewBusinessError("INVALID_UUID", "Invalid radiograph UUID", fmt.Errorf("%w: %w", ErrInvalidUUID, err))
	}
	rg, err := f.radiographRepo.ByUUID(ctx, radiographUUID)
	if err != nil {
		return nil, "", NewBusinessError("RADIOGRAPH_LOOKUP_FAILED", "Failed to lookup radiograph", err)
	}
	if rg == nil {
		return nil, "", NewBusinessError("RADIOGRAPH_NOT_FOUND", "Radiograph not found", ErrRadiographNotFound)
	}
	fullPath, err := f.resolvePath(rg.StoredPath)
	if err != nil {
		return nil, "", err
	}
	return rg, fullPath, nil
}

// saveToDisk streams the upload into BaseDir/<yyyy-mm-dd>/<uuid><ext> and returns the
// path relative to BaseDir. The content is sniffed and must be an image.
func (f *RadiographFlowImpl) saveToDisk(reader io.Reader, ext string) (string, int64, string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(reader, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", 0, "", err
	}
	head = head[:n]

	detected := http.DetectContentType(head)
	if !strings.HasPrefix(detected, "image/") {
		return "", 0, "", NewBusinessError("INVALID_FILE_TYPE", "file content is not an image", ErrInvalidFileType)
	}

	dateDir := utils.UTCNow().Format("2006-01-02")
	if err := os.MkdirAll(filepath.Join(f.opts.BaseDir, dateDir), 0o755); err != nil {
		return "", 0, "", err
	}

	rel := filepath.Join(dateDir, uuid.New().String()+ext)
	fullPath := filepath.Join(f.opts.BaseDir, rel)
	dst, err := os.Create(fullPath)
	if err != nil {
		return "", 0, "", err
	}
	defer dst.Close()

	limited := io.LimitReader(io.MultiReader(bytes.NewReader(head), reader), f.opts.MaxUploadBytes+1)
	written, err := io.Copy(dst, limited)
	if err != nil {
		_ = os.Remove(fullPath)
		return "", 0, "", err
	}
	if written > f.opts.MaxUploadBytes {
		_ = os.Remove(fullPath)
		return "", 0, "", NewBusinessErrorf("FILE_TOO_LARGE", "file size exceeds %dMB", ErrFileTooLarge, f.opts.MaxUploadBytes/(1024*1024))
	}

	return filepath.ToSlash(rel), written, detected, nil
}

// resolvePath maps a stored relative path to a file under BaseDir, rejecting escapes
func (f *RadiographFlowImpl) resolvePath(stored string) (string, error) {
	if stored == "" {
		return "", NewBusinessError("INVALID_PATH", "path is empty", ErrInvalidFilePath)
	}
	cleaned := filepath.Clean(filepath.FromSlash(stored))
	if filepath.IsAbs(cleaned) {
		return "", NewBusinessError("INVALID_PATH", "absolute path not allowed", ErrInvalidFilePath)
	}
	full := filepath.Join(f.opts.BaseDir, cleaned)
	rel, err := filepath.Rel(f.opts.BaseDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", NewBusinessError("INVALID_PATH", "path is outside allowed directory", ErrInvalidFilePath)
	}
	return full, nil
}

func readDimensions(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()
	w, h, _, err := imageDimensions(file)
	return w, h, err
}

func isRadiographKind(kind string) bool {
	switch kind {
	case models.RadiographKindPeriapical,
		models.RadiographKindBitewing,
		models.RadiographKindPanoramic,
		models.RadiographKindOther:
		return true
	}
	return false
}
