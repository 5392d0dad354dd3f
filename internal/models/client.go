package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is the recipient of reports. Email is the client login key.
type Client struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	Email     string    `gorm:"not null;size:255;uniqueIndex" json:"email,omitempty"`
	Document  string    `gorm:"size:32" json:"document,omitempty"`
	Phone     string    `gorm:"size:32" json:"phone,omitempty"`
	Company   string    `gorm:"size:255" json:"company,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Client) TableName() string {
	return "clients"
}
