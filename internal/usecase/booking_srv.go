package usecase

import (
	"context"
	"errors"
	"time"

	"doctors-portal/internal/data/entity"
	"doctors-portal/internal/data/repository"
	"doctors-portal/internal/dto/request"
	"doctors-portal/internal/dto/response"
	"doctors-portal/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	SubmitBooking(ctx context.Context, email string, req *request.SubmitBookingRequest) (*response.BookingResponse, error)
	GetUserBookings(ctx context.Context, email string) ([]response.BookingResponse, error)
	GetBookingByID(ctx context.Context, email, bookingID string) (*response.BookingResponse, error)
}

type bookingService struct {
	treatments   repository.TreatmentRepository
	bookings     repository.BookingRepository
	availability AvailabilityService
	publisher    EventPublisher
	log          *zap.Logger
}

func NewBookingService(
	treatments repository.TreatmentRepository,
	bookings repository.BookingRepository,
	availability AvailabilityService,
	publisher EventPublisher,
	log *zap.Logger,
) BookingService {
	return &bookingService{
		treatments:   treatments,
		bookings:     bookings,
		availability: availability,
		publisher:    publisher,
		log:          log.With(zap.String("service", "booking")),
	}
}

// SubmitBooking validates the treatment and slot against the catalog, then hands the
// conflict rules to the ledger's atomic insert.
func (s *bookingService) SubmitBooking(ctx context.Context, email string, req *request.SubmitBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Submit booking validation failed", zap.Any("errors", errs))
		return nil, &ValidationError{Fields: errs}
	}
	if email == "" {
		return nil, &ValidationError{Field: "email", Message: "patient email is required"}
	}

	date, err := utils.ParseDate(req.AppointmentDate)
	if err != nil {
		return nil, &ValidationError{Field: "appointment_date", Message: err.Error()}
	}

	treatment, err := s.treatments.FindByName(ctx, req.Treatment)
	if err != nil {
		s.log.Error("Failed to find treatment", zap.Error(err), zap.String("treatment", req.Treatment))
		return nil, storageError("find treatment", err)
	}
	if treatment == nil {
		s.log.Warn("Booking for unknown treatment", zap.String("treatment", req.Treatment))
		return nil, &ValidationError{Field: "treatment", Message: "unknown treatment " + req.Treatment}
	}
	if !treatment.HasSlot(req.Slot) {
		s.log.Warn("Booking for slot outside template",
			zap.String("treatment", req.Treatment),
			zap.String("slot", req.Slot),
		)
		return nil, &ValidationError{Field: "slot", Message: "slot " + req.Slot + " is not offered for " + req.Treatment}
	}

	now := time.Now()
	booking := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Email:           email,
		Treatment:       treatment.Name,
		AppointmentDate: date,
		Slot:            req.Slot,
	}

	err = s.bookings.InsertIfAbsent(ctx, booking)
	switch {
	case errors.Is(err, repository.ErrPatientAlreadyBooked):
		s.log.Warn("Duplicate patient booking rejected",
			zap.String("email", email),
			zap.String("treatment", treatment.Name),
			zap.String("date", req.AppointmentDate),
		)
		return nil, &ConflictError{Kind: DuplicatePatientBooking, Treatment: treatment.Name, Date: date, Slot: req.Slot}
	case errors.Is(err, repository.ErrSlotTaken):
		s.log.Warn("Slot already taken",
			zap.String("treatment", treatment.Name),
			zap.String("date", req.AppointmentDate),
			zap.String("slot", req.Slot),
		)
		return nil, &ConflictError{Kind: SlotAlreadyTaken, Treatment: treatment.Name, Date: date, Slot: req.Slot}
	case err != nil:
		s.log.Error("Failed to insert booking", zap.Error(err), zap.String("email", email))
		return nil, storageError("insert booking", err)
	}

	s.availability.Invalidate(ctx, date)
	publish(ctx, s.publisher, s.log, EventBookingAdmitted, BookingAdmittedEvent{
		BookingID:       booking.ID.String(),
		Email:           booking.Email,
		Treatment:       booking.Treatment,
		AppointmentDate: req.AppointmentDate,
		Slot:            booking.Slot,
		OccurredAt:      now,
	})

	s.log.Info("Booking admitted",
		zap.String("booking_id", booking.ID.String()),
		zap.String("treatment", booking.Treatment),
		zap.String("date", req.AppointmentDate),
		zap.String("slot", booking.Slot),
	)

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) GetUserBookings(ctx context.Context, email string) ([]response.BookingResponse, error) {
	bookings, err := s.bookings.FindActive(ctx, repository.BookingFilter{Email: email})
	if err != nil {
		s.log.Error("Failed to get user bookings", zap.Error(err), zap.String("email", email))
		return nil, storageError("get user bookings", err)
	}

	out := make([]response.BookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = response.BookingToResponse(b)
	}
	return out, nil
}

func (s *bookingService) GetBookingByID(ctx context.Context, email, bookingID string) (*response.BookingResponse, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, &ValidationError{Field: "id", Message: "invalid booking ID"}
	}

	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to find booking", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, storageError("find booking", err)
	}
	if booking == nil {
		return nil, &NotFoundError{Resource: "booking", ID: bookingID}
	}
	if booking.Email != email {
		return nil, &ForbiddenError{Message: "booking belongs to another patient"}
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}
