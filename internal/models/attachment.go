package models

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is an uploaded signed PDF. ReportID stays nil until a report
// claims it; unclaimed uploads may be deleted.
type Attachment struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Key         string     `gorm:"not null;size:512;uniqueIndex" json:"-"`
	Filename    string     `gorm:"not null;size:255" json:"filename"`
	ContentType string     `gorm:"not null;size:100" json:"contentType"`
	Size        int64      `gorm:"not null" json:"size"`
	ReportID    *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"reportId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (Attachment) TableName() string {
	return "attachments"
}
