package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doctors-portal/internal/data/entity"
	"doctors-portal/internal/data/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type bookingRepository struct {
	coll *mongo.Collection
	log  *zap.Logger
}

// InsertIfAbsent checks the patient rule first so a request that would break both rules
// reports the patient conflict; the unique indexes decide any race after that.
func (r *bookingRepository) InsertIfAbsent(ctx context.Context, booking *entity.Booking) error {
	doc := toBookingDoc(booking)

	err := r.coll.FindOne(ctx, bson.M{
		"treatment":       doc.Treatment,
		"appointmentDate": doc.AppointmentDate,
		"email":           doc.Email,
	}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == nil {
		return repository.ErrPatientAlreadyBooked
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		r.log.Error("Failed to check existing patient booking", zap.Error(err), zap.String("email", doc.Email))
		return fmt.Errorf("check patient booking: %w", classifyMongoError(err))
	}

	_, err = r.coll.InsertOne(ctx, doc)
	if index, ok := duplicateIndex(err); ok {
		if index == indexBookingPatient {
			return repository.ErrPatientAlreadyBooked
		}
		return repository.ErrSlotTaken
	}
	if err != nil {
		r.log.Error("Failed to insert booking",
			zap.Error(err),
			zap.String("treatment", doc.Treatment),
			zap.String("date", doc.AppointmentDate),
		)
		return fmt.Errorf("insert booking: %w", classifyMongoError(err))
	}
	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	var doc bookingDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID", zap.Error(err), zap.String("booking_id", id.String()))
		return nil, fmt.Errorf("find booking %s: %w", id.String(), classifyMongoError(err))
	}
	return doc.entity(), nil
}

func (r *bookingRepository) FindActive(ctx context.Context, filter repository.BookingFilter) ([]*entity.Booking, error) {
	query := bson.M{}
	if filter.Email != "" {
		query["email"] = filter.Email
	}
	if filter.Treatment != "" {
		query["treatment"] = filter.Treatment
	}
	if filter.Date != nil {
		query["appointmentDate"] = filter.Date.UTC().Format(dateLayout)
	}

	opts := options.Find().SetSort(bson.D{{Key: "appointmentDate", Value: 1}, {Key: "createdAt", Value: 1}})
	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		r.log.Error("Failed to find bookings", zap.Error(err))
		return nil, fmt.Errorf("find bookings: %w", classifyMongoError(err))
	}

	var docs []bookingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", classifyMongoError(err))
	}

	out := make([]*entity.Booking, len(docs))
	for i, d := range docs {
		out[i] = d.entity()
	}
	return out, nil
}

func (r *bookingRepository) UpdatePaidStatus(ctx context.Context, id uuid.UUID, transactionID string) error {
	return markPaid(ctx, r.coll, id, transactionID, time.Now())
}

// markPaid flips paid only while it is still false. A booking already paid under the
// same reference is left as is.
func markPaid(ctx context.Context, coll *mongo.Collection, id uuid.UUID, transactionID string, now time.Time) error {
	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": id.String(), "paid": false},
		bson.M{"$set": bson.M{"paid": true, "transactionId": transactionID, "updatedAt": now}},
	)
	if err != nil {
		return fmt.Errorf("mark booking %s paid: %w", id.String(), classifyMongoError(err))
	}
	if res.MatchedCount == 1 {
		return nil
	}

	var doc bookingDoc
	err = coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reload booking %s: %w", id.String(), classifyMongoError(err))
	}
	if doc.entity().SettledWith(transactionID) {
		return nil
	}
	return repository.ErrAlreadySettled
}
