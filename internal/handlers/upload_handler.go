package handlers

import (
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/labmoura/laudos/internal/dto"
	"github.com/labmoura/laudos/internal/services"
	"github.com/labmoura/laudos/internal/validate"
)

type UploadHandler struct {
	attachmentService *services.AttachmentService
}

func NewUploadHandler(attachmentService *services.AttachmentService) *UploadHandler {
	return &UploadHandler{attachmentService: attachmentService}
}

// Upload accepts a multipart "file" field and stores it until a report
// claims it.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return respondError(c, validate.Errors{"file": "is required"})
	}

	u, closeFile, err := openUpload(fh)
	if err != nil {
		return err
	}
	defer closeFile()

	att, err := h.attachmentService.Upload(c.UserContext(), u)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.UploadResponse{
		ID:          att.ID.String(),
		URL:         h.attachmentService.URL(att),
		Filename:    att.Filename,
		ContentType: att.ContentType,
		Size:        att.Size,
	})
}

func (h *UploadHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid upload id")
	}
	if err := h.attachmentService.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func openUpload(fh *multipart.FileHeader) (services.Upload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return services.Upload{}, nil, err
	}
	return services.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, func() { f.Close() }, nil
}
