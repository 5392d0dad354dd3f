package models

import (
	"time"

	"github.com/google/uuid"
)

type AnalysisType string

const (
	AnalysisWater         AnalysisType = "agua"
	AnalysisSoil          AnalysisType = "solo"
	AnalysisEnvironmental AnalysisType = "ambiental"
)

var AnalysisTypes = []AnalysisType{AnalysisWater, AnalysisSoil, AnalysisEnvironmental}

var analysisTypeLabels = map[AnalysisType]string{
	AnalysisWater:         "Análise de Água",
	AnalysisSoil:          "Análise de Solo",
	AnalysisEnvironmental: "Análise Ambiental",
}

func (t AnalysisType) Valid() bool {
	_, ok := analysisTypeLabels[t]
	return ok
}

func (t AnalysisType) Label() string {
	return analysisTypeLabels[t]
}

type ReportStatus string

const (
	StatusValid       ReportStatus = "valido"
	StatusSuperseded  ReportStatus = "substituido"
	StatusCancelled   ReportStatus = "cancelado"
	StatusUnderReview ReportStatus = "em_analise"
)

var ReportStatuses = []ReportStatus{StatusValid, StatusSuperseded, StatusCancelled, StatusUnderReview}

var reportStatusLabels = map[ReportStatus]string{
	StatusValid:       "Válido",
	StatusSuperseded:  "Substituído",
	StatusCancelled:   "Cancelado",
	StatusUnderReview: "Em Análise",
}

func (s ReportStatus) Valid() bool {
	_, ok := reportStatusLabels[s]
	return ok
}

func (s ReportStatus) Label() string {
	return reportStatusLabels[s]
}

// Terminal reports whether no further status change is allowed under the
// strict lifecycle.
func (s ReportStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusSuperseded
}

// CanTransition reports whether a report may move from one status to another.
// Without strict mode every status is reachable from every status.
func CanTransition(from, to ReportStatus, strict bool) bool {
	if !to.Valid() {
		return false
	}
	if !strict || from == to {
		return true
	}
	return !from.Terminal()
}

// Report is an issued laboratory analysis report (laudo).
type Report struct {
	ID                     uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code                   string       `gorm:"not null;size:100;index" json:"code"`
	ClientID               uuid.UUID    `gorm:"type:uuid;not null;index" json:"clientId"`
	AnalysisType           AnalysisType `gorm:"not null;size:20;index" json:"analysisType"`
	Description            string       `gorm:"type:text" json:"description"`
	ResponsibleTechnician  string       `gorm:"not null;size:255" json:"responsibleTechnician"`
	TechnicianRegistration string       `gorm:"not null;size:100" json:"technicianRegistration"`
	SampleDate             Date         `gorm:"not null;index" json:"sampleDate"`
	IssueDate              Date         `gorm:"not null;index" json:"issueDate"`
	Status                 ReportStatus `gorm:"not null;size:20;default:'em_analise';index" json:"status"`
	SignedPDFURL           string       `gorm:"column:signed_pdf_url;size:1024" json:"signedPdfUrl,omitempty"`
	Version                int          `gorm:"not null;default:1" json:"version"`
	IdempotencyKey         *string      `gorm:"size:128;uniqueIndex" json:"-"`
	CreatedAt              time.Time    `json:"createdAt"`
	UpdatedAt              time.Time    `json:"updatedAt"`
	Client                 *Client      `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}

func (Report) TableName() string {
	return "reports"
}

// PublicView strips the owning client down to what an anonymous validator
// may see.
func (r Report) PublicView() Report {
	if r.Client != nil {
		r.Client = &Client{ID: r.Client.ID, Name: r.Client.Name, Company: r.Client.Company}
	}
	return r
}
