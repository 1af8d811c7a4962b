package service

import (
	"context"
	"fmt"
	"testing"

	directoryerrors "vetslots/internal/directory/errors"
	"vetslots/pkg/config"
	apperrors "vetslots/pkg/errors"
	"vetslots/pkg/logger"
	"vetslots/pkg/model"
)

type mockDirectoryRepository struct {
	findHospitalFunc func(ctx context.Context, id string) (*model.Hospital, error)
	findPetFunc      func(ctx context.Context, id string) (*model.Pet, error)
}

func (m *mockDirectoryRepository) FindHospital(ctx context.Context, id string) (*model.Hospital, error) {
	return m.findHospitalFunc(ctx, id)
}

func (m *mockDirectoryRepository) FindPet(ctx context.Context, id string) (*model.Pet, error) {
	return m.findPetFunc(ctx, id)
}

func TestDirectory_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"invalid id", fmt.Errorf("%w: abc", directoryerrors.ErrInvalidID), apperrors.CodeValidation},
		{"missing hospital", fmt.Errorf("%w: abc", directoryerrors.ErrHospitalNotFound), apperrors.CodeNotFound},
		{"store failure", fmt.Errorf("boom"), apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockDirectoryRepository{
				findHospitalFunc: func(ctx context.Context, id string) (*model.Hospital, error) {
					return nil, tt.err
				},
			}
			dir := NewDirectoryService(repo, &config.Config{Log: logger.Discard()})

			_, err := dir.Hospital(context.Background(), "abc")
			if !apperrors.HasCode(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestDirectory_Pet(t *testing.T) {
	var received string
	repo := &mockDirectoryRepository{
		findPetFunc: func(ctx context.Context, id string) (*model.Pet, error) {
			received = id
			if id == "65f1a2b3c4d5e6f708192a3b" {
				return &model.Pet{ID: id, Name: "Rex", OwnerID: "owner-1"}, nil
			}
			return nil, directoryerrors.ErrPetNotFound
		},
	}
	dir := NewDirectoryService(repo, &config.Config{Log: logger.Discard()})

	pet, err := dir.Pet(context.Background(), "  65f1a2b3c4d5e6f708192a3b ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received != "65f1a2b3c4d5e6f708192a3b" {
		t.Errorf("id was not trimmed: %q", received)
	}
	if pet.Name != "Rex" || pet.OwnerID != "owner-1" {
		t.Errorf("unexpected pet %+v", pet)
	}

	_, err = dir.Pet(context.Background(), "65f1a2b3c4d5e6f708192a3c")
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
