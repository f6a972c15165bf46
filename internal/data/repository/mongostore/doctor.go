package mongostore

import (
	"context"
	"fmt"

	"doctors-portal/internal/data/entity"
	"doctors-portal/internal/data/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type doctorRepository struct {
	coll *mongo.Collection
	log  *zap.Logger
}

func (r *doctorRepository) Create(ctx context.Context, doctor *entity.Doctor) error {
	_, err := r.coll.InsertOne(ctx, doctorDoc{
		ID:        doctor.ID.String(),
		Name:      doctor.Name,
		Email:     doctor.Email,
		Specialty: doctor.Specialty,
		ImageURL:  doctor.ImageURL,
		CreatedAt: doctor.CreatedAt,
	})
	if err != nil {
		r.log.Error("Failed to create doctor", zap.Error(err), zap.String("email", doctor.Email))
		return fmt.Errorf("create doctor: %w", classifyMongoError(err))
	}
	return nil
}

func (r *doctorRepository) FindAll(ctx context.Context) ([]*entity.Doctor, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		r.log.Error("Failed to find doctors", zap.Error(err))
		return nil, fmt.Errorf("find doctors: %w", classifyMongoError(err))
	}

	var docs []doctorDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode doctors: %w", classifyMongoError(err))
	}

	out := make([]*entity.Doctor, len(docs))
	for i, d := range docs {
		out[i] = d.entity()
	}
	return out, nil
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		r.log.Error("Failed to delete doctor", zap.Error(err), zap.String("doctor_id", id.String()))
		return fmt.Errorf("delete doctor %s: %w", id.String(), classifyMongoError(err))
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
