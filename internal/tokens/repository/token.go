package repository

import (
	"context"
	"fmt"
	"time"

	tokenserrors "vetslots/internal/tokens/errors"
	"vetslots/pkg/config"
	mongotx "vetslots/pkg/db/mongo"
	"vetslots/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	AppointmentTokensCollection = "AppointmentTokens"
)

type TokenRepository interface {
	// Increment atomically adds one to the counter for key, creating it at 1
	// with the given expiry when it does not exist, and returns the new value.
	Increment(ctx context.Context, key model.TokenKey, expireAt, now time.Time) (int64, error)
}

type mongoTokenRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTokenRepository(cfg *config.Config) TokenRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTokenRepository{
		cfg:        cfg,
		collection: db.Collection(AppointmentTokensCollection),
	}
}

func (r *mongoTokenRepository) Increment(ctx context.Context, key model.TokenKey, expireAt, now time.Time) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": key}
	update := bson.M{
		"$inc": bson.M{"token_count": 1},
		"$setOnInsert": bson.M{
			"expire_at":  expireAt,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var token model.AppointmentToken
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&token); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, tokenserrors.ErrCounterRace
		}
		return 0, fmt.Errorf("failed to increment token counter: %w", err)
	}
	return token.TokenCount, nil
}
