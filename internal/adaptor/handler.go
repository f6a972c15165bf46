package adaptor

import (
	"errors"
	"net/http"

	"doctors-portal/internal/usecase"
	"doctors-portal/pkg/utils"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type Handler struct {
	Availability *AvailabilityHandler
	Booking      *BookingHandler
	Payment      *PaymentHandler
	Auth         *AuthHandler
	User         *UserHandler
	Doctor       *DoctorHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Availability: NewAvailabilityHandler(service.Availability, log),
		Booking:      NewBookingHandler(service.Booking, log),
		Payment:      NewPaymentHandler(service.Payment, log),
		Auth:         NewAuthHandler(service.Auth, log),
		User:         NewUserHandler(service.User, log),
		Doctor:       NewDoctorHandler(service.Doctor, log),
	}
}

func decodeJSON(r *http.Request, dest any) error {
	return json.NewDecoder(r.Body).Decode(dest)
}

// handleServiceError maps usecase errors onto HTTP responses.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var (
		validationErr  *usecase.ValidationError
		conflictErr    *usecase.ConflictError
		notFoundErr    *usecase.NotFoundError
		settledErr     *usecase.AlreadySettledError
		forbiddenErr   *usecase.ForbiddenError
		unavailableErr *usecase.StorageUnavailableError
		gatewayErr     *usecase.GatewayError
	)

	switch {
	case errors.As(err, &validationErr):
		log.Warn(operation+" validation failed", zap.Error(err))
		details := validationErr.Fields
		if len(details) == 0 {
			details = map[string]string{validationErr.Field: validationErr.Message}
		}
		utils.ResponseBadRequest(w, "Validation failed", details)

	case errors.As(err, &conflictErr):
		log.Warn(operation+" rejected", zap.Error(err), zap.String("kind", string(conflictErr.Kind)))
		utils.ResponseConflict(w, conflictErr.Error(), map[string]string{
			"kind":             string(conflictErr.Kind),
			"appointment_date": utils.FormatDate(conflictErr.Date),
		})

	case errors.As(err, &notFoundErr):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, notFoundErr.Error())

	case errors.As(err, &settledErr):
		log.Warn(operation+" failed - already settled", zap.Error(err))
		utils.ResponseConflict(w, settledErr.Error(), map[string]string{
			"kind":           "already_settled",
			"transaction_id": settledErr.TransactionID,
		})

	case errors.As(err, &forbiddenErr):
		log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, forbiddenErr.Error())

	case errors.As(err, &unavailableErr):
		log.Error(operation+" failed - storage unavailable", zap.Error(err))
		utils.ResponseServiceUnavailable(w, "Service temporarily unavailable, please retry")

	case errors.As(err, &gatewayErr):
		log.Error(operation+" failed - payment provider", zap.Error(err))
		utils.ResponseBadGateway(w, "Payment provider error")

	default:
		log.Error(operation+" failed", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
