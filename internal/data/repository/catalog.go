package repository

import (
	"time"

	"doctors-portal/internal/data/entity"

	"github.com/google/uuid"
)

// DefaultCatalog mirrors migrations/003_seed_treatments.sql for the non-SQL backends.
func DefaultCatalog() []*entity.TreatmentOption {
	morning := []string{
		"08.00 AM - 08.30 AM", "08.30 AM - 09.00 AM", "09.00 AM - 09.30 AM", "09.30 AM - 10.00 AM",
		"10.00 AM - 10.30 AM", "10.30 AM - 11.00 AM", "11.00 AM - 11.30 AM", "11.30 AM - 12.00 AM",
	}
	now := time.Now().UTC()

	option := func(id, name string, slots []string) *entity.TreatmentOption {
		return &entity.TreatmentOption{
			BaseSimple: entity.BaseSimple{ID: uuid.MustParse(id), CreatedAt: now},
			Name:       name,
			PriceMinor: 9900,
			Slots:      append([]string(nil), slots...),
		}
	}

	return []*entity.TreatmentOption{
		option("3f1c2a4e-8a0b-4c39-9b1e-0d6f5a7b1c01", "Teeth Orthodontics", morning),
		option("3f1c2a4e-8a0b-4c39-9b1e-0d6f5a7b1c02", "Cosmetic Dentistry", morning[:6]),
		option("3f1c2a4e-8a0b-4c39-9b1e-0d6f5a7b1c03", "Teeth Cleaning", morning[:4]),
		option("3f1c2a4e-8a0b-4c39-9b1e-0d6f5a7b1c04", "Cavity Protection", morning[4:]),
		option("3f1c2a4e-8a0b-4c39-9b1e-0d6f5a7b1c05", "Pediatric Dental", morning[:3]),
		option("3f1c2a4e-8a0b-4c39-9b1e-0d6f5a7b1c06", "Oral Surgery", []string{
			"02.00 PM - 02.30 PM", "02.30 PM - 03.00 PM", "03.00 PM - 03.30 PM", "03.30 PM - 04.00 PM",
		}),
	}
}
