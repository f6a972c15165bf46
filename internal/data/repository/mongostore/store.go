// Package mongostore implements the repository contracts on MongoDB.
// Settlement uses multi-document transactions and needs a replica set.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"doctors-portal/internal/data/entity"
	"doctors-portal/internal/data/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	collectionTreatments = "treatments"
	collectionBookings   = "bookings"
	collectionPayments   = "payments"
	collectionUsers      = "users"
	collectionDoctors    = "doctors"

	indexTreatmentName  = "uq_treatments_name"
	indexBookingSlot    = "uq_bookings_slot"
	indexBookingPatient = "uq_bookings_patient"
	indexBookingEmail   = "idx_bookings_email"
	indexPaymentBooking = "uq_payments_booking"
	indexUserEmail      = "users_email_key"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
}

func New(client *mongo.Client, db *mongo.Database, log *zap.Logger) *Store {
	return &Store{
		client: client,
		db:     db,
		log:    log.With(zap.String("repository", "mongo")),
	}
}

func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		Treatment: &treatmentRepository{coll: s.db.Collection(collectionTreatments), log: s.log.With(zap.String("collection", collectionTreatments))},
		Booking:   &bookingRepository{coll: s.db.Collection(collectionBookings), log: s.log.With(zap.String("collection", collectionBookings))},
		Payment: &paymentRepository{
			client:   s.client,
			payments: s.db.Collection(collectionPayments),
			bookings: s.db.Collection(collectionBookings),
			log:      s.log.With(zap.String("collection", collectionPayments)),
		},
		User:   &userRepository{coll: s.db.Collection(collectionUsers), log: s.log.With(zap.String("collection", collectionUsers))},
		Doctor: &doctorRepository{coll: s.db.Collection(collectionDoctors), log: s.log.With(zap.String("collection", collectionDoctors))},
	}
}

// Migrate creates the unique indexes admission and settlement rely on, then seeds the
// catalog when the treatments collection is empty.
func (s *Store) Migrate(ctx context.Context, catalog []*entity.TreatmentOption) error {
	indexes := map[string][]mongo.IndexModel{
		collectionTreatments: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetName(indexTreatmentName)},
		},
		collectionBookings: {
			{
				Keys:    bson.D{{Key: "treatment", Value: 1}, {Key: "appointmentDate", Value: 1}, {Key: "slot", Value: 1}},
				Options: options.Index().SetUnique(true).SetName(indexBookingSlot),
			},
			{
				Keys:    bson.D{{Key: "treatment", Value: 1}, {Key: "appointmentDate", Value: 1}, {Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName(indexBookingPatient),
			},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName(indexBookingEmail)},
		},
		collectionPayments: {
			{Keys: bson.D{{Key: "bookingId", Value: 1}}, Options: options.Index().SetUnique(true).SetName(indexPaymentBooking)},
		},
		collectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName(indexUserEmail)},
		},
	}

	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			s.log.Error("Failed to create indexes", zap.Error(err), zap.String("collection", name))
			return fmt.Errorf("create indexes on %s: %w", name, classifyMongoError(err))
		}
	}

	treatments := s.db.Collection(collectionTreatments)
	count, err := treatments.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("count treatments: %w", classifyMongoError(err))
	}
	if count > 0 || len(catalog) == 0 {
		return nil
	}

	docs := make([]any, len(catalog))
	for i, t := range catalog {
		docs[i] = toTreatmentDoc(t)
	}
	if _, err := treatments.InsertMany(ctx, docs); err != nil && !mongo.IsDuplicateKeyError(err) {
		s.log.Error("Failed to seed treatments", zap.Error(err))
		return fmt.Errorf("seed treatments: %w", classifyMongoError(err))
	}

	s.log.Info("Treatment catalog seeded", zap.Int("count", len(catalog)))
	return nil
}

// classifyMongoError wraps network, timeout and transient transaction failures with
// repository.ErrUnavailable.
func classifyMongoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err) {
		return repository.Unavailable(err)
	}

	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && serverErr.HasErrorLabel("TransientTransactionError") {
		return repository.Unavailable(err)
	}
	return err
}

// duplicateIndex reports which unique index a write collided with.
func duplicateIndex(err error) (string, bool) {
	if !mongo.IsDuplicateKeyError(err) {
		return "", false
	}
	msg := err.Error()
	for _, name := range []string{indexBookingPatient, indexBookingSlot, indexPaymentBooking, indexUserEmail, indexTreatmentName} {
		if strings.Contains(msg, name) {
			return name, true
		}
	}
	return "", true
}
