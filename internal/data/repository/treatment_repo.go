package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doctors-portal/internal/data/entity"
	"doctors-portal/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type treatmentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTreatmentRepository(db database.PgxIface, log *zap.Logger) TreatmentRepository {
	return &treatmentRepository{
		db:  db,
		log: log.With(zap.String("repository", "treatment")),
	}
}

func (r *treatmentRepository) FindAll(ctx context.Context) ([]*entity.TreatmentOption, error) {
	query := `
		SELECT id, name, price_minor, slots, created_at
		FROM treatments
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to find treatments", zap.Error(err))
		return nil, fmt.Errorf("find treatments: %w", classifyPgError(err))
	}
	defer rows.Close()

	return r.scanTreatments(rows)
}

func (r *treatmentRepository) FindByName(ctx context.Context, name string) (*entity.TreatmentOption, error) {
	query := `
		SELECT id, name, price_minor, slots, created_at
		FROM treatments
		WHERE name = $1
	`

	t, err := scanTreatment(r.db.QueryRow(ctx, query, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find treatment by name",
			zap.Error(err),
			zap.String("treatment", name),
		)
		return nil, fmt.Errorf("find treatment %s: %w", name, classifyPgError(err))
	}

	return t, nil
}

func (r *treatmentRepository) FindNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT name FROM treatments ORDER BY name`)
	if err != nil {
		r.log.Error("Failed to find treatment names", zap.Error(err))
		return nil, fmt.Errorf("find treatment names: %w", classifyPgError(err))
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			r.log.Error("Failed to scan treatment name", zap.Error(err))
			return nil, fmt.Errorf("scan treatment name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate treatment names: %w", classifyPgError(err))
	}
	return names, nil
}

// RemainingSlots keeps template order through WITH ORDINALITY.
func (r *treatmentRepository) RemainingSlots(ctx context.Context, date time.Time) ([]*entity.TreatmentOption, error) {
	query := `
		SELECT t.id, t.name, t.price_minor,
		       ARRAY(
		           SELECT s.slot
		           FROM unnest(t.slots) WITH ORDINALITY AS s(slot, pos)
		           WHERE NOT EXISTS (
		               SELECT 1 FROM bookings b
		               WHERE b.treatment = t.name
		                 AND b.appointment_date = $1
		                 AND b.slot = s.slot
		           )
		           ORDER BY s.pos
		       ) AS slots,
		       t.created_at
		FROM treatments t
		ORDER BY t.name
	`

	rows, err := r.db.Query(ctx, query, date)
	if err != nil {
		r.log.Error("Failed to aggregate remaining slots",
			zap.Error(err),
			zap.Time("date", date),
		)
		return nil, fmt.Errorf("aggregate remaining slots: %w", classifyPgError(err))
	}
	defer rows.Close()

	return r.scanTreatments(rows)
}

func (r *treatmentRepository) scanTreatments(rows pgx.Rows) ([]*entity.TreatmentOption, error) {
	treatments := make([]*entity.TreatmentOption, 0)
	for rows.Next() {
		t, err := scanTreatment(rows)
		if err != nil {
			r.log.Error("Failed to scan treatment row", zap.Error(err))
			return nil, fmt.Errorf("scan treatment row: %w", err)
		}
		treatments = append(treatments, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate treatments: %w", classifyPgError(err))
	}
	return treatments, nil
}

func scanTreatment(row rowScanner) (*entity.TreatmentOption, error) {
	var t entity.TreatmentOption
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.PriceMinor,
		&t.Slots,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if t.Slots == nil {
		t.Slots = []string{}
	}
	return &t, nil
}
