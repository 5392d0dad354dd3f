package handlers

import (
	"path"

	"github.com/gofiber/fiber/v2"

	"github.com/labmoura/laudos/internal/services"
)

type FileHandler struct {
	attachmentService *services.AttachmentService
}

func NewFileHandler(attachmentService *services.AttachmentService) *FileHandler {
	return &FileHandler{attachmentService: attachmentService}
}

// Download serves /files/<key>, either streamed or as a redirect to a
// presigned object URL.
func (h *FileHandler) Download(c *fiber.Ctx) error {
	key := c.Params("*")

	redirect, body, err := h.attachmentService.Open(c.UserContext(), key)
	if err != nil {
		return respondError(c, err)
	}
	if redirect != "" {
		return c.Redirect(redirect, fiber.StatusFound)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+path.Base(key)+`"`)
	return c.SendStream(body)
}
