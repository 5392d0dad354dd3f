package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/labmoura/laudos/internal/dto"
	"github.com/labmoura/laudos/internal/metrics"
	"github.com/labmoura/laudos/internal/models"
	"github.com/labmoura/laudos/internal/repository"
	"github.com/labmoura/laudos/internal/validate"
)

type ClientService struct {
	repo    repository.Repository
	metrics *metrics.Metrics
}

func NewClientService(repo repository.Repository, m *metrics.Metrics) *ClientService {
	return &ClientService{repo: repo, metrics: m}
}

func (s *ClientService) Create(ctx context.Context, req *dto.CreateClientRequest) (*models.Client, error) {
	client, err := s.create(ctx, req)
	s.metrics.RecordMutation("create_client", err)
	return client, err
}

func (s *ClientService) create(ctx context.Context, req *dto.CreateClientRequest) (*models.Client, error) {
	errs := validate.Errors{}
	errs.Required("name", req.Name)
	errs.Required("email", req.Email)
	if strings.TrimSpace(req.Email) != "" && !validate.Email(req.Email) {
		errs.Add("email", "is not a valid email address")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	email := validate.NormalizeEmail(req.Email)
	if _, err := s.repo.FindClientByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	client := &models.Client{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Document: strings.TrimSpace(req.Document),
		Phone:    strings.TrimSpace(req.Phone),
		Company:  strings.TrimSpace(req.Company),
	}
	if err := s.repo.CreateClient(ctx, client); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

func (s *ClientService) List(ctx context.Context) ([]models.Client, error) {
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	if clients == nil {
		clients = []models.Client{}
	}
	return clients, nil
}
