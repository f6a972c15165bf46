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

type DoctorService interface {
	CreateDoctor(ctx context.Context, req *request.CreateDoctorRequest) (*response.DoctorResponse, error)
	GetAllDoctors(ctx context.Context) ([]response.DoctorResponse, error)
	DeleteDoctor(ctx context.Context, doctorID string) error
}

type doctorService struct {
	doctorRepo repository.DoctorRepository
	log        *zap.Logger
}

func NewDoctorService(doctorRepo repository.DoctorRepository, log *zap.Logger) DoctorService {
	return &doctorService{
		doctorRepo: doctorRepo,
		log:        log.With(zap.String("service", "doctor")),
	}
}

func (s *doctorService) CreateDoctor(ctx context.Context, req *request.CreateDoctorRequest) (*response.DoctorResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	doctor := &entity.Doctor{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		Name:      req.Name,
		Email:     req.Email,
		Specialty: req.Specialty,
		ImageURL:  req.ImageURL,
	}

	if err := s.doctorRepo.Create(ctx, doctor); err != nil {
		s.log.Error("Failed to create doctor", zap.Error(err), zap.String("email", req.Email))
		return nil, storageError("create doctor", err)
	}

	s.log.Info("Doctor created", zap.String("doctor_id", doctor.ID.String()))

	resp := response.DoctorToResponse(doctor)
	return &resp, nil
}

func (s *doctorService) GetAllDoctors(ctx context.Context) ([]response.DoctorResponse, error) {
	doctors, err := s.doctorRepo.FindAll(ctx)
	if err != nil {
		s.log.Error("Failed to get doctors", zap.Error(err))
		return nil, storageError("list doctors", err)
	}

	out := make([]response.DoctorResponse, len(doctors))
	for i, d := range doctors {
		out[i] = response.DoctorToResponse(d)
	}
	return out, nil
}

func (s *doctorService) DeleteDoctor(ctx context.Context, doctorID string) error {
	id, err := uuid.Parse(doctorID)
	if err != nil {
		return &ValidationError{Field: "id", Message: "invalid doctor ID"}
	}

	err = s.doctorRepo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: "doctor", ID: doctorID}
	}
	if err != nil {
		s.log.Error("Failed to delete doctor", zap.Error(err), zap.String("doctor_id", doctorID))
		return storageError("delete doctor", err)
	}

	s.log.Info("Doctor deleted", zap.String("doctor_id", doctorID))
	return nil
}
