package adaptor

import (
	"net/http"
	"time"

	"doctors-portal/internal/usecase"
	"doctors-portal/pkg/utils"

	"go.uber.org/zap"
)

type AvailabilityHandler struct {
	service usecase.AvailabilityService
	log     *zap.Logger
}

func NewAvailabilityHandler(service usecase.AvailabilityService, log *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log.With(zap.String("handler", "availability")),
	}
}

// GetAppointmentOptions handles GET /api/appointment-options?date=YYYY-MM-DD
func (h *AvailabilityHandler) GetAppointmentOptions(w http.ResponseWriter, r *http.Request) {
	h.appointmentOptions(w, r, usecase.StrategyFilter)
}

// GetAppointmentOptionsV2 handles GET /api/v2/appointment-options?date=YYYY-MM-DD
func (h *AvailabilityHandler) GetAppointmentOptionsV2(w http.ResponseWriter, r *http.Request) {
	h.appointmentOptions(w, r, usecase.StrategyAggregate)
}

func (h *AvailabilityHandler) appointmentOptions(w http.ResponseWriter, r *http.Request, strategy usecase.Strategy) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = utils.FormatDate(time.Now().UTC())
	}

	options, err := h.service.AvailableSlots(r.Context(), date, strategy)
	if err != nil {
		handleServiceError(w, h.log, err, "get appointment options")
		return
	}

	utils.ResponseSuccess(w, "success", options)
}

// GetSpecialties handles GET /api/appointment-specialties
func (h *AvailabilityHandler) GetSpecialties(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.TreatmentNames(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "get specialties")
		return
	}

	utils.ResponseSuccess(w, "success", names)
}
