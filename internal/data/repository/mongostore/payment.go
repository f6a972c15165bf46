package mongostore

import (
	"context"
	"errors"
	"fmt"

	"doctors-portal/internal/data/entity"
	"doctors-portal/internal/data/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type paymentRepository struct {
	client   *mongo.Client
	payments *mongo.Collection
	bookings *mongo.Collection
	log      *zap.Logger
}

// Settle inserts the payment and flips the booking in one session transaction.
func (r *paymentRepository) Settle(ctx context.Context, payment *entity.Payment) (*repository.SettleResult, error) {
	session, err := r.client.StartSession()
	if err != nil {
		r.log.Error("Failed to start session", zap.Error(err))
		return nil, fmt.Errorf("start session: %w", classifyMongoError(err))
	}
	defer session.EndSession(ctx)

	out, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		var booking bookingDoc
		err := r.bookings.FindOne(sc, bson.M{"_id": payment.BookingID.String()}).Decode(&booking)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		if err != nil {
			return nil, err
		}

		if booking.Paid {
			if !booking.entity().SettledWith(payment.TransactionID) {
				return nil, repository.ErrAlreadySettled
			}
			var existing paymentDoc
			if err := r.payments.FindOne(sc, bson.M{"bookingId": booking.ID}).Decode(&existing); err != nil {
				return nil, err
			}
			return &repository.SettleResult{Payment: existing.entity(), Replayed: true}, nil
		}

		_, err = r.payments.InsertOne(sc, toPaymentDoc(payment))
		if index, ok := duplicateIndex(err); ok && index == indexPaymentBooking {
			return nil, repository.ErrAlreadySettled
		}
		if err != nil {
			return nil, err
		}

		if err := markPaid(sc, r.bookings, payment.BookingID, payment.TransactionID, payment.CreatedAt); err != nil {
			return nil, err
		}
		return &repository.SettleResult{Payment: payment}, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrAlreadySettled) {
			return nil, err
		}
		r.log.Error("Failed to settle booking", zap.Error(err), zap.String("booking_id", payment.BookingID.String()))
		return nil, fmt.Errorf("settle booking %s: %w", payment.BookingID.String(), classifyMongoError(err))
	}

	return out.(*repository.SettleResult), nil
}

func (r *paymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	var doc paymentDoc
	err := r.payments.FindOne(ctx, bson.M{"bookingId": bookingID.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by booking ID", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, fmt.Errorf("find payment for booking %s: %w", bookingID.String(), classifyMongoError(err))
	}
	return doc.entity(), nil
}
