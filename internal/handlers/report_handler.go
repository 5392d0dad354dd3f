package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	"github.com/labmoura/laudos/internal/dto"
	"github.com/labmoura/laudos/internal/middleware"
	"github.com/labmoura/laudos/internal/models"
	"github.com/labmoura/laudos/internal/services"
	"github.com/labmoura/laudos/internal/validate"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetPublic is the anonymous validation lookup. A malformed id is reported
// the same way as an unknown one.
func (h *ReportHandler) GetPublic(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, services.ErrReportNotFound)
	}

	report, err := h.reportService.GetPublic(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// ListForClient serves a client's own reports, or any client's to an admin.
func (h *ReportHandler) ListForClient(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	email := validate.NormalizeEmail(c.Query("email"))
	if email == "" && actor.Role == models.RoleClient {
		email = actor.Email
	}
	if email == "" {
		return respondError(c, validate.Errors{"email": "is required"})
	}
	if !actor.IsAdmin() && email != validate.NormalizeEmail(actor.Email) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Clients may only list their own reports",
		})
	}

	reports, err := h.reportService.ListForClient(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.JSON(reports)
}

func (h *ReportHandler) List(c *fiber.Ctx) error {
	resp, err := h.reportService.List(c.UserContext(), services.ReportListParams{
		StartDate:    c.Query("startDate"),
		EndDate:      c.Query("endDate"),
		DateField:    c.Query("dateField"),
		Status:       c.Query("status"),
		AnalysisType: c.Query("analysisType"),
		Search:       c.Query("search"),
		Page:         c.QueryInt("page", 0),
		Limit:        c.QueryInt("limit", 0),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// Create accepts JSON, or a multipart form carrying the report fields plus
// the signed PDF in "file".
func (h *ReportHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	key := strings.TrimSpace(utils.CopyString(c.Get(HeaderIdempotencyKey)))

	var (
		report  *models.Report
		created bool
		err     error
	)
	if fh, ferr := c.FormFile("file"); ferr == nil {
		u, closeFile, oerr := openUpload(fh)
		if oerr != nil {
			return oerr
		}
		defer closeFile()
		report, created, err = h.reportService.CreateWithFile(c.UserContext(), &req, u, key)
	} else {
		report, created, err = h.reportService.Create(c.UserContext(), &req, key)
	}
	if err != nil {
		return respondError(c, err)
	}

	status := fiber.StatusCreated
	if !created {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(report)
}

// UpdateStatus takes the expected version from the body or from If-Match.
func (h *ReportHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid report id")
	}

	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Version == 0 {
		if v := c.Get(fiber.HeaderIfMatch); v != "" {
			n, err := strconv.Atoi(strings.Trim(strings.TrimPrefix(v, "W/"), `"`))
			if err != nil || n <= 0 {
				return respondError(c, validate.Errors{"version": "If-Match must carry the report version"})
			}
			req.Version = n
		}
	}

	report, err := h.reportService.UpdateStatus(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderETag, strconv.Quote(strconv.Itoa(report.Version)))
	return c.JSON(report)
}
