package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doctors-portal/internal/data/entity"
	"doctors-portal/internal/data/repository"
	"doctors-portal/internal/dto/request"
	"doctors-portal/internal/dto/response"
	"doctors-portal/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentService interface {
	CreateChargeIntent(ctx context.Context, email string, req *request.ChargeIntentRequest) (*response.ChargeIntentResponse, error)
	RecordPayment(ctx context.Context, email string, req *request.RecordPaymentRequest) (*response.PaymentResponse, error)
}

type paymentService struct {
	treatments repository.TreatmentRepository
	bookings   repository.BookingRepository
	payments   repository.PaymentRepository
	gateway    PaymentGateway
	publisher  EventPublisher
	currency   string
	log        *zap.Logger
}

func NewPaymentService(repo *repository.Repository, gateway PaymentGateway, publisher EventPublisher, currency string, log *zap.Logger) PaymentService {
	return &paymentService{
		treatments: repo.Treatment,
		bookings:   repo.Booking,
		payments:   repo.Payment,
		gateway:    gateway,
		publisher:  publisher,
		currency:   currency,
		log:        log.With(zap.String("service", "payment")),
	}
}

// loadPricedBooking resolves the caller's booking and the catalog price that is the only
// accepted charge amount for it.
func (s *paymentService) loadPricedBooking(ctx context.Context, email, bookingID string) (*entity.Booking, int64, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, 0, &ValidationError{Field: "booking_id", Message: "invalid booking ID"}
	}

	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to find booking", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, 0, storageError("find booking", err)
	}
	if booking == nil {
		return nil, 0, &NotFoundError{Resource: "booking", ID: bookingID}
	}
	if booking.Email != email {
		s.log.Warn("Payment for another patient's booking",
			zap.String("booking_id", bookingID),
			zap.String("email", email),
		)
		return nil, 0, &ForbiddenError{Message: "booking belongs to another patient"}
	}

	treatment, err := s.treatments.FindByName(ctx, booking.Treatment)
	if err != nil {
		s.log.Error("Failed to find treatment", zap.Error(err), zap.String("treatment", booking.Treatment))
		return nil, 0, storageError("find treatment", err)
	}
	if treatment == nil {
		return nil, 0, &NotFoundError{Resource: "treatment", ID: booking.Treatment}
	}

	return booking, treatment.PriceMinor, nil
}

func (s *paymentService) CreateChargeIntent(ctx context.Context, email string, req *request.ChargeIntentRequest) (*response.ChargeIntentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	booking, price, err := s.loadPricedBooking(ctx, email, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Paid {
		ref := ""
		if booking.TransactionID != nil {
			ref = *booking.TransactionID
		}
		return nil, &AlreadySettledError{BookingID: req.BookingID, TransactionID: ref}
	}
	if s.gateway == nil {
		return nil, &GatewayError{Err: errors.New("payment provider is not configured")}
	}

	secret, err := s.gateway.CreateIntent(ctx, price, s.currency)
	if err != nil {
		s.log.Error("Failed to create charge intent",
			zap.Error(err),
			zap.String("booking_id", req.BookingID),
			zap.Int64("amount_minor", price),
		)
		return nil, &GatewayError{Err: err}
	}

	s.log.Info("Charge intent created",
		zap.String("booking_id", req.BookingID),
		zap.Int64("amount_minor", price),
		zap.String("currency", s.currency),
	)

	return &response.ChargeIntentResponse{
		ClientSecret: secret,
		AmountMinor:  price,
		Currency:     s.currency,
	}, nil
}

// RecordPayment settles a booking exactly once. Replaying the same transaction reference
// returns the original confirmation; a different reference on a settled booking is rejected.
func (s *paymentService) RecordPayment(ctx context.Context, email string, req *request.RecordPaymentRequest) (*response.PaymentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Record payment validation failed", zap.Any("errors", errs))
		return nil, &ValidationError{Fields: errs}
	}

	booking, price, err := s.loadPricedBooking(ctx, email, req.BookingID)
	if err != nil {
		return nil, err
	}
	// A replay of the settling transaction is confirmed even if the price has moved since.
	if !booking.SettledWith(req.TransactionID) && req.AmountMinor != price {
		s.log.Warn("Payment amount does not match catalog price",
			zap.String("booking_id", req.BookingID),
			zap.Int64("amount_minor", req.AmountMinor),
			zap.Int64("price_minor", price),
		)
		return nil, &ValidationError{
			Field:   "amount_minor",
			Message: fmt.Sprintf("amount %d does not match price %d", req.AmountMinor, price),
		}
	}

	payment := &entity.Payment{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		BookingID:     booking.ID,
		Email:         booking.Email,
		AmountMinor:   price,
		Currency:      s.currency,
		TransactionID: req.TransactionID,
	}

	result, err := s.payments.Settle(ctx, payment)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, &NotFoundError{Resource: "booking", ID: req.BookingID}
	case errors.Is(err, repository.ErrAlreadySettled):
		existing := s.settledReference(ctx, booking.ID)
		s.log.Warn("Booking already settled by another transaction",
			zap.String("booking_id", req.BookingID),
			zap.String("transaction_id", req.TransactionID),
			zap.String("existing_transaction_id", existing),
		)
		return nil, &AlreadySettledError{BookingID: req.BookingID, TransactionID: existing}
	case err != nil:
		s.log.Error("Failed to settle booking", zap.Error(err), zap.String("booking_id", req.BookingID))
		return nil, storageError("settle booking", err)
	}

	if result.Replayed {
		s.log.Info("Payment replay acknowledged",
			zap.String("booking_id", req.BookingID),
			zap.String("transaction_id", req.TransactionID),
		)
		resp := response.PaymentToResponse(result.Payment, true)
		return &resp, nil
	}

	publish(ctx, s.publisher, s.log, EventBookingSettled, BookingSettledEvent{
		BookingID:     booking.ID.String(),
		PaymentID:     result.Payment.ID.String(),
		TransactionID: result.Payment.TransactionID,
		AmountMinor:   result.Payment.AmountMinor,
		Currency:      result.Payment.Currency,
		OccurredAt:    result.Payment.CreatedAt,
	})

	s.log.Info("Booking settled",
		zap.String("booking_id", req.BookingID),
		zap.String("payment_id", result.Payment.ID.String()),
		zap.Int64("amount_minor", result.Payment.AmountMinor),
	)

	resp := response.PaymentToResponse(result.Payment, false)
	return &resp, nil
}

func (s *paymentService) settledReference(ctx context.Context, bookingID uuid.UUID) string {
	p, err := s.payments.FindByBookingID(ctx, bookingID)
	if err != nil || p == nil {
		return ""
	}
	return p.TransactionID
}
