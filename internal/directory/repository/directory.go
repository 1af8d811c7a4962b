package repository

import (
	"context"
	"errors"
	"fmt"

	directoryerrors "vetslots/internal/directory/errors"
	"vetslots/pkg/config"
	mongotx "vetslots/pkg/db/mongo"
	"vetslots/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	HospitalsCollection = "Hospitals"
	PetsCollection      = "Pets"
)

// DirectoryRepository reads the hospital and pet records owned by the rest of
// the practice system. It never writes.
type DirectoryRepository interface {
	FindHospital(ctx context.Context, id string) (*model.Hospital, error)
	FindPet(ctx context.Context, id string) (*model.Pet, error)
}

type mongoDirectoryRepository struct {
	cfg       *config.Config
	hospitals *mongo.Collection
	pets      *mongo.Collection
}

func NewMongoDirectoryRepository(cfg *config.Config) DirectoryRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoDirectoryRepository{
		cfg:       cfg,
		hospitals: db.Collection(HospitalsCollection),
		pets:      db.Collection(PetsCollection),
	}
}

func (r *mongoDirectoryRepository) FindHospital(ctx context.Context, id string) (*model.Hospital, error) {
	var hospital model.Hospital
	if err := r.findByID(ctx, r.hospitals, id, &hospital); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", directoryerrors.ErrHospitalNotFound, id)
		}
		return nil, err
	}
	return &hospital, nil
}

func (r *mongoDirectoryRepository) FindPet(ctx context.Context, id string) (*model.Pet, error) {
	var pet model.Pet
	if err := r.findByID(ctx, r.pets, id, &pet); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", directoryerrors.ErrPetNotFound, id)
		}
		return nil, err
	}
	return &pet, nil
}

func (r *mongoDirectoryRepository) findByID(ctx context.Context, collection *mongo.Collection, id string, out any) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", directoryerrors.ErrInvalidID, id)
	}

	err = collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(out)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("failed to find %s document: %w", collection.Name(), err)
	}
	return err
}
