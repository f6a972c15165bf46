package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doctors-portal/internal/data/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type treatmentRepository struct {
	coll *mongo.Collection
	log  *zap.Logger
}

func (r *treatmentRepository) FindAll(ctx context.Context) ([]*entity.TreatmentOption, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		r.log.Error("Failed to find treatments", zap.Error(err))
		return nil, fmt.Errorf("find treatments: %w", classifyMongoError(err))
	}
	return decodeTreatments(ctx, cur)
}

func (r *treatmentRepository) FindByName(ctx context.Context, name string) (*entity.TreatmentOption, error) {
	var doc treatmentDoc
	err := r.coll.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find treatment by name", zap.Error(err), zap.String("name", name))
		return nil, fmt.Errorf("find treatment %s: %w", name, classifyMongoError(err))
	}
	return doc.entity(), nil
}

func (r *treatmentRepository) FindNames(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetProjection(bson.M{"name": 1})

	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		r.log.Error("Failed to find treatment names", zap.Error(err))
		return nil, fmt.Errorf("find treatment names: %w", classifyMongoError(err))
	}

	var docs []struct {
		Name string `bson:"name"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode treatment names: %w", classifyMongoError(err))
	}

	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	return names, nil
}

// RemainingSlots joins bookings for the day onto each treatment and filters the slot
// template in the server. $filter keeps template order where $setDifference would not.
func (r *treatmentRepository) RemainingSlots(ctx context.Context, date time.Time) ([]*entity.TreatmentOption, error) {
	day := date.UTC().Format(dateLayout)

	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "name", Value: 1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: collectionBookings},
			{Key: "let", Value: bson.D{{Key: "name", Value: "$name"}}},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{{Key: "$expr", Value: bson.D{{Key: "$and", Value: bson.A{
					bson.D{{Key: "$eq", Value: bson.A{"$treatment", "$$name"}}},
					bson.D{{Key: "$eq", Value: bson.A{"$appointmentDate", day}}},
				}}}}}}},
				bson.D{{Key: "$project", Value: bson.D{{Key: "slot", Value: 1}}}},
			}},
			{Key: "as", Value: "booked"},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "name", Value: 1},
			{Key: "priceMinor", Value: 1},
			{Key: "createdAt", Value: 1},
			{Key: "slots", Value: bson.D{{Key: "$filter", Value: bson.D{
				{Key: "input", Value: "$slots"},
				{Key: "as", Value: "slot"},
				{Key: "cond", Value: bson.D{{Key: "$not", Value: bson.A{
					bson.D{{Key: "$in", Value: bson.A{"$$slot", "$booked.slot"}}},
				}}}},
			}}}},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		r.log.Error("Failed to aggregate remaining slots", zap.Error(err), zap.String("date", day))
		return nil, fmt.Errorf("aggregate remaining slots for %s: %w", day, classifyMongoError(err))
	}
	return decodeTreatments(ctx, cur)
}

func decodeTreatments(ctx context.Context, cur *mongo.Cursor) ([]*entity.TreatmentOption, error) {
	var docs []treatmentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode treatments: %w", classifyMongoError(err))
	}

	out := make([]*entity.TreatmentOption, len(docs))
	for i, d := range docs {
		out[i] = d.entity()
	}
	return out, nil
}
