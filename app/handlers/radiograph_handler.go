package handlers

import (
	"fmt"

	"github.com/amirphl/dentalcare/app/dto"
	businessflow "github.com/amirphl/dentalcare/business_flow"
	"github.com/amirphl/dentalcare/utils"
	"github.com/gofiber/fiber/v3"
)

type RadiographHandlerInterface interface {
	Upload(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Download(c fiber.Ctx) error
	Preview(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
}

type RadiographHandler struct {
	baseHandler
	flow businessflow.RadiographFlow
}

func NewRadiographHandler(flow businessflow.RadiographFlow) *RadiographHandler {
	return &RadiographHandler{
		baseHandler: newBaseHandler(),
		flow:        flow,
	}
}

// Upload stores an X-ray image for a patient
// @Summary Upload Radiograph
// @Tags Radiographs
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Patient UUID"
// @Param file formData file true "Image (jpg/png)"
// @Param kind formData string false "periapical|bitewing|panoramic|other"
// @Param taken_at formData string false "Date taken (YYYY-MM-DD)"
// @Success 201 {object} dto.APIResponse{data=dto.RadiographDTO}
// @Failure 400 {object} dto.APIResponse "Invalid file type"
// @Failure 413 {object} dto.APIResponse "File too large"
// @Router /api/v1/patients/{uuid}/radiographs [post]
func (h *RadiographHandler) Upload(c fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "File is required", "MISSING_FILE", err.Error())
	}
	file, err := fileHeader.Open()
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Cannot read uploaded file", "FILE_UPLOAD_FAILED", err.Error())
	}
	defer file.Close()

	req := &dto.UploadRadiographRequest{
		PatientUUID:      c.Params("uuid"),
		Kind:             c.FormValue("kind"),
		OriginalFilename: fileHeader.Filename,
		FileSize:         fileHeader.Size,
		File:             file,
	}
	if v := c.FormValue("taken_at"); v != "" {
		req.TakenAt = utils.ToPtr(v)
	}

	ctx, cancel := h.requestContext(c, "/api/v1/patients/:uuid/radiographs")
	defer cancel()

	rg, err := h.flow.Upload(ctx, req, h.metadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to upload radiograph", "UPLOAD_RADIOGRAPH_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Radiograph uploaded", rg)
}

// List
// @Summary List Patient Radiographs
// @Tags Radiographs
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Patient UUID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=[]dto.RadiographDTO}
// @Router /api/v1/patients/{uuid}/radiographs [get]
func (h *RadiographHandler) List(c fiber.Ctx) error {
	page, limit := pageQuery(c)

	ctx, cancel := h.requestContext(c, "/api/v1/patients/:uuid/radiographs")
	defer cancel()

	items, err := h.flow.List(ctx, c.Params("uuid"), page, limit)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to list radiographs", "LIST_RADIOGRAPHS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Radiographs retrieved", items)
}

// Download returns the original image
// @Summary Download Radiograph
// @Tags Radiographs
// @Produce octet-stream
// @Security BearerAuth
// @Param uuid path string true "Radiograph UUID"
// @Success 200 {file} file
// @Router /api/v1/radiographs/{uuid}/file [get]
func (h *RadiographHandler) Download(c fiber.Ctx) error {
	ctx, cancel := h.requestContext(c, "/api/v1/radiographs/:uuid/file")
	defer cancel()

	f, err := h.flow.Download(ctx, c.Params("uuid"))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to download radiograph", "DOWNLOAD_RADIOGRAPH_FAILED")
	}
	return h.sendFile(c, f, "attachment")
}

// Preview returns a downscaled JPEG of the image
// @Summary Preview Radiograph
// @Tags Radiographs
// @Produce jpeg
// @Security BearerAuth
// @Param uuid path string true "Radiograph UUID"
// @Success 200 {file} file
// @Router /api/v1/radiographs/{uuid}/preview [get]
func (h *RadiographHandler) Preview(c fiber.Ctx) error {
	ctx, cancel := h.requestContext(c, "/api/v1/radiographs/:uuid/preview")
	defer cancel()

	f, err := h.flow.Preview(ctx, c.Params("uuid"))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to render preview", "PREVIEW_RADIOGRAPH_FAILED")
	}
	return h.sendFile(c, f, "inline")
}

// Delete removes the record and its stored file
// @Summary Delete Radiograph
// @Tags Radiographs
// @Security BearerAuth
// @Param uuid path string true "Radiograph UUID"
// @Success 200 {object} dto.APIResponse
// @Router /api/v1/radiographs/{uuid} [delete]
func (h *RadiographHandler) Delete(c fiber.Ctx) error {
	ctx, cancel := h.requestContext(c, "/api/v1/radiographs/:uuid")
	defer cancel()

	if err := h.flow.Delete(ctx, c.Params("uuid"), h.metadata(c)); err != nil {
		return h.handleFlowError(c, err, "Failed to delete radiograph", "DELETE_RADIOGRAPH_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Radiograph deleted", nil)
}

func (h *RadiographHandler) sendFile(c fiber.Ctx, f *dto.RadiographFile, disposition string) error {
	c.Set(fiber.HeaderContentType, f.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`%s; filename="%s"`, disposition, f.Filename))
	return c.Status(fiber.StatusOK).Send(f.Data)
}
