package dto

import "github.com/labmoura/laudos/internal/models"

// CreateReportRequest is accepted as JSON or as multipart form fields. Dates
// are YYYY-MM-DD.
type CreateReportRequest struct {
	Code                   string `json:"code" form:"code"`
	ClientID               string `json:"clientId" form:"clientId"`
	AnalysisType           string `json:"analysisType" form:"analysisType"`
	Description            string `json:"description" form:"description"`
	ResponsibleTechnician  string `json:"responsibleTechnician" form:"responsibleTechnician"`
	TechnicianRegistration string `json:"technicianRegistration" form:"technicianRegistration"`
	SampleDate             string `json:"sampleDate" form:"sampleDate"`
	IssueDate              string `json:"issueDate" form:"issueDate"`
	Status                 string `json:"status" form:"status"`
	SignedPDFURL           string `json:"signedPdfUrl,omitempty" form:"signedPdfUrl"`
	AttachmentID           string `json:"attachmentId,omitempty" form:"attachmentId"`
}

// UpdateStatusRequest changes a report status. Version 0 skips the
// concurrency check.
type UpdateStatusRequest struct {
	Status  string `json:"status"`
	Version int    `json:"version,omitempty"`
}

type ReportListResponse struct {
	Reports    []models.Report `json:"reports"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
}

type UploadResponse struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}
