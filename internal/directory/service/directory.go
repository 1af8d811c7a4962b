package service

import (
	"context"
	"errors"
	"strings"

	directoryerrors "vetslots/internal/directory/errors"
	"vetslots/internal/directory/repository"
	"vetslots/pkg/config"
	mongotx "vetslots/pkg/db/mongo"
	apperrors "vetslots/pkg/errors"
	"vetslots/pkg/model"
	"vetslots/pkg/sanitizer"
)

// Directory resolves the hospital and pet a booking refers to.
type Directory interface {
	Hospital(ctx context.Context, id string) (*model.Hospital, error)
	Pet(ctx context.Context, id string) (*model.Pet, error)
}

type directoryService struct {
	repo repository.DirectoryRepository
	cfg  *config.Config
}

func NewDirectoryService(repo repository.DirectoryRepository, cfg *config.Config) Directory {
	return &directoryService{
		repo: repo,
		cfg:  cfg,
	}
}

func (s *directoryService) Hospital(ctx context.Context, id string) (*model.Hospital, error) {
	id = sanitizer.NormalizeObjectID(id)
	hospital, err := s.repo.FindHospital(ctx, id)
	if err != nil {
		return nil, s.mapError("Hospital", id, err)
	}
	return hospital, nil
}

func (s *directoryService) Pet(ctx context.Context, id string) (*model.Pet, error) {
	id = sanitizer.NormalizeObjectID(id)
	pet, err := s.repo.FindPet(ctx, id)
	if err != nil {
		return nil, s.mapError("Pet", id, err)
	}
	return pet, nil
}

func (s *directoryService) mapError(resource, id string, err error) error {
	switch {
	case errors.Is(err, directoryerrors.ErrInvalidID):
		return apperrors.ValidationField(strings.ToLower(resource)+"_id", "invalid "+strings.ToLower(resource)+" ID format")
	case errors.Is(err, directoryerrors.ErrHospitalNotFound), errors.Is(err, directoryerrors.ErrPetNotFound):
		return apperrors.NotFoundWithID(resource, id)
	}
	s.cfg.Log.Error("Failed to read directory", "resource", resource, "id", id, "error", err)
	return mongotx.StoreError("Failed to read "+resource, err)
}
