package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/labmoura/laudos/internal/metrics"
	"github.com/labmoura/laudos/internal/models"
	"github.com/labmoura/laudos/internal/repository"
	"github.com/labmoura/laudos/internal/storage"
	"github.com/labmoura/laudos/internal/validate"
)

// Upload is a file received from an admin.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type AttachmentService struct {
	repo       repository.Repository
	files      storage.FileStore
	metrics    *metrics.Metrics
	maxBytes   int64
	publicBase string
	presignTTL time.Duration
}

func NewAttachmentService(repo repository.Repository, files storage.FileStore, m *metrics.Metrics, maxBytes int64, publicBase string, presignTTL time.Duration) *AttachmentService {
	return &AttachmentService{
		repo:       repo,
		files:      files,
		metrics:    m,
		maxBytes:   maxBytes,
		publicBase: publicBase,
		presignTTL: presignTTL,
	}
}

// URL is the signedPdfUrl a report gets when it claims att.
func (s *AttachmentService) URL(att *models.Attachment) string {
	return storage.PublicURL(s.publicBase, att.Key)
}

// Upload validates a PDF and stores it unclaimed.
func (s *AttachmentService) Upload(ctx context.Context, u Upload) (*models.Attachment, error) {
	att, err := s.upload(ctx, u)
	s.metrics.RecordMutation("upload_pdf", err)
	if err == nil {
		s.metrics.ObserveUpload(att.Size)
	}
	return att, err
}

func (s *AttachmentService) upload(ctx context.Context, u Upload) (*models.Attachment, error) {
	if u.Body == nil || u.Size == 0 {
		return nil, validate.Errors{"file": "is required"}
	}
	if s.maxBytes > 0 && u.Size > s.maxBytes {
		return nil, validate.Errors{"file": fmt.Sprintf("must be at most %d bytes", s.maxBytes)}
	}

	head := make([]byte, 5)
	n, err := io.ReadFull(u.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	if err := validate.PDF(u.Filename, u.ContentType, head); err != nil {
		return nil, validate.Errors{"file": err.Error()}
	}

	body := io.MultiReader(bytes.NewReader(head), u.Body)
	if seeker, ok := u.Body.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err == nil {
			body = u.Body
		}
	}

	key := storage.NewKey()
	if err := s.files.Put(ctx, key, body, u.Size, "application/pdf"); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	att := &models.Attachment{
		Key:         key,
		Filename:    u.Filename,
		ContentType: "application/pdf",
		Size:        u.Size,
	}
	if err := s.repo.CreateAttachment(ctx, att); err != nil {
		s.removeFile(ctx, key)
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}
	return att, nil
}

// Delete removes an upload that no report has claimed.
func (s *AttachmentService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.delete(ctx, id)
	s.metrics.RecordMutation("delete_upload", err)
	return err
}

func (s *AttachmentService) delete(ctx context.Context, id uuid.UUID) error {
	att, err := s.repo.FindAttachment(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAttachmentNotFound
		}
		return fmt.Errorf("failed to find attachment: %w", err)
	}

	if err := s.repo.DeleteAttachment(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrAttachmentNotFound
		case errors.Is(err, repository.ErrAlreadyClaimed):
			return ErrAttachmentClaimed
		}
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	s.removeFile(ctx, att.Key)
	return nil
}

func (s *AttachmentService) removeFile(ctx context.Context, key string) {
	if err := s.files.Delete(ctx, key); err != nil {
		slog.Error("failed to remove stored file", "key", key, "error", err)
	}
}

// Open resolves a download. When the store can presign, redirect is set and
// body is nil; otherwise the caller streams body and closes it.
func (s *AttachmentService) Open(ctx context.Context, key string) (redirect string, body io.ReadCloser, err error) {
	if _, err := storage.CleanKey(key); err != nil {
		return "", nil, ErrFileNotFound
	}

	if p, ok := s.files.(storage.Presigner); ok {
		url, err := p.PresignGet(ctx, key, s.presignTTL)
		if err != nil {
			return "", nil, err
		}
		return url, nil, nil
	}

	rc, err := s.files.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil, ErrFileNotFound
		}
		return "", nil, err
	}
	return "", rc, nil
}
