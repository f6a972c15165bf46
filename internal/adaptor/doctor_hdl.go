package adaptor

import (
	"net/http"

	"doctors-portal/internal/dto/request"
	"doctors-portal/internal/usecase"
	"doctors-portal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type DoctorHandler struct {
	service usecase.DoctorService
	log     *zap.Logger
}

func NewDoctorHandler(service usecase.DoctorService, log *zap.Logger) *DoctorHandler {
	return &DoctorHandler{
		service: service,
		log:     log.With(zap.String("handler", "doctor")),
	}
}

// CreateDoctor handles POST /api/doctors (admin only)
func (h *DoctorHandler) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	var req request.CreateDoctorRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	doctor, err := h.service.CreateDoctor(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create doctor")
		return
	}

	utils.ResponseCreated(w, "success", doctor)
}

// GetAllDoctors handles GET /api/doctors (admin only)
func (h *DoctorHandler) GetAllDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.service.GetAllDoctors(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "get all doctors")
		return
	}

	utils.ResponseSuccess(w, "success", doctors)
}

// DeleteDoctor handles DELETE /api/doctors/{id} (admin only)
func (h *DoctorHandler) DeleteDoctor(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteDoctor(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.log, err, "delete doctor")
		return
	}

	utils.ResponseSuccess(w, "doctor deleted", nil)
}
