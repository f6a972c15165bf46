package repository

import (
	"context"
	"fmt"

	"doctors-portal/internal/data/entity"
	"doctors-portal/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type doctorRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewDoctorRepository(db database.PgxIface, log *zap.Logger) DoctorRepository {
	return &doctorRepository{
		db:  db,
		log: log.With(zap.String("repository", "doctor")),
	}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *entity.Doctor) error {
	query := `
		INSERT INTO doctors (id, name, email, specialty, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		doctor.ID,
		doctor.Name,
		doctor.Email,
		doctor.Specialty,
		doctor.ImageURL,
		doctor.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create doctor",
			zap.Error(err),
			zap.String("name", doctor.Name),
			zap.String("specialty", doctor.Specialty),
		)
		return fmt.Errorf("create doctor %s: %w", doctor.Name, classifyPgError(err))
	}

	return nil
}

func (r *doctorRepository) FindAll(ctx context.Context) ([]*entity.Doctor, error) {
	query := `
		SELECT id, name, email, specialty, image_url, created_at
		FROM doctors
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to find doctors", zap.Error(err))
		return nil, fmt.Errorf("find doctors: %w", classifyPgError(err))
	}
	defer rows.Close()

	doctors := make([]*entity.Doctor, 0)
	for rows.Next() {
		var d entity.Doctor
		err := rows.Scan(
			&d.ID,
			&d.Name,
			&d.Email,
			&d.Specialty,
			&d.ImageURL,
			&d.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan doctor row", zap.Error(err))
			return nil, fmt.Errorf("scan doctor row: %w", err)
		}
		doctors = append(doctors, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate doctors: %w", classifyPgError(err))
	}
	return doctors, nil
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete doctor",
			zap.Error(err),
			zap.String("doctor_id", id.String()),
		)
		return fmt.Errorf("delete doctor %s: %w", id.String(), classifyPgError(err))
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	r.log.Info("Doctor deleted", zap.String("doctor_id", id.String()))
	return nil
}
