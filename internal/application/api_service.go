package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/apidex-io/apidex/internal/domain/entity"
	repo "github.com/apidex-io/apidex/internal/domain/repository"
)

var validMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true, "DELETE": true,
}

var validStatuses = map[string]bool{
	entity.StatusActive: true, entity.StatusInactive: true, entity.StatusDeprecated: true,
}

// APIService manages a user's API catalog.
type APIService struct {
	Repo   repo.APIRepository
	Logger *logrus.Logger
}

func NewAPIService(r repo.APIRepository, logger *logrus.Logger) *APIService {
	return &APIService{Repo: r, Logger: logger}
}

// CreateAPIInput carries fields for a new catalog entry. Method defaults to
// GET and Status to active.
type CreateAPIInput struct {
	Name        string
	Description string
	Endpoint    string
	Method      string
	Status      string
}

func (s *APIService) Create(ctx context.Context, userID string, in CreateAPIInput) (*entity.APIEntry, error) {
	name := strings.TrimSpace(in.Name)
	endpoint := strings.TrimSpace(in.Endpoint)
	if name == "" || endpoint == "" {
		return nil, ErrMissingFields
	}

	method := strings.ToUpper(strings.TrimSpace(in.Method))
	if method == "" {
		method = "GET"
	}
	if !validMethods[method] {
		return nil, ErrInvalidMethod
	}

	status := strings.ToLower(strings.TrimSpace(in.Status))
	if status == "" {
		status = entity.StatusActive
	}
	if !validStatuses[status] {
		return nil, ErrInvalidStatus
	}

	a := &entity.APIEntry{
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Endpoint:    endpoint,
		Method:      method,
		Status:      status,
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *APIService) Get(ctx context.Context, userID, id string) (*entity.APIEntry, error) {
	a, err := s.Repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrAPINotFound
		}
		return nil, err
	}
	return a, nil
}

// List returns one page of the user's entries plus the total count and the
// number of pages at this limit.
func (s *APIService) List(ctx context.Context, userID string, page, limit int) ([]*entity.APIEntry, int, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	entries, total, err := s.Repo.ListByUser(ctx, userID, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, 0, err
	}
	pages := (total + limit - 1) / limit
	if pages == 0 {
		pages = 1
	}
	return entries, total, pages, nil
}

// UpdateAPIInput carries optional changes; empty strings mean "leave as is".
type UpdateAPIInput struct {
	Name        string
	Description string
	Endpoint    string
	Method      string
	Status      string
}

func (s *APIService) Update(ctx context.Context, userID, id string, in UpdateAPIInput) (*entity.APIEntry, error) {
	patch := repo.APIPatch{}

	if name := strings.TrimSpace(in.Name); name != "" {
		patch.Name = &name
	}
	if desc := strings.TrimSpace(in.Description); desc != "" {
		patch.Description = &desc
	}
	if endpoint := strings.TrimSpace(in.Endpoint); endpoint != "" {
		patch.Endpoint = &endpoint
	}
	if method := strings.ToUpper(strings.TrimSpace(in.Method)); method != "" {
		if !validMethods[method] {
			return nil, ErrInvalidMethod
		}
		patch.Method = &method
	}
	if status := strings.ToLower(strings.TrimSpace(in.Status)); status != "" {
		if !validStatuses[status] {
			return nil, ErrInvalidStatus
		}
		patch.Status = &status
	}

	if patch.Name == nil && patch.Description == nil && patch.Endpoint == nil &&
		patch.Method == nil && patch.Status == nil {
		return nil, ErrNoFieldsToUpdate
	}

	if err := s.Repo.UpdateFields(ctx, userID, id, patch); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrAPINotFound
		}
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

func (s *APIService) Delete(ctx context.Context, userID, id string) error {
	if err := s.Repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAPINotFound
		}
		return err
	}
	return nil
}
