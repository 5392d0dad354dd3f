package services

import "errors"

var (
	ErrReportNotFound     = errors.New("report not found")
	ErrClientNotFound     = errors.New("client not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrVersionConflict    = errors.New("report was changed by another request")
	ErrInvalidTransition  = errors.New("status change not allowed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrAttachmentClaimed  = errors.New("attachment already belongs to a report")
	ErrFileNotFound       = errors.New("file not found")
)
