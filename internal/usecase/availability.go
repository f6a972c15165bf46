package usecase

import (
	"time"

	"doctors-portal/internal/data/entity"
	"doctors-portal/pkg/utils"
)

// ComputeAvailability removes from each treatment's template every slot held by a booking
// for that treatment on date. Labels are compared by value and template order is kept.
// Bookings on other dates are ignored. Inputs are not modified.
func ComputeAvailability(date time.Time, catalog []*entity.TreatmentOption, bookings []*entity.Booking) []*entity.TreatmentOption {
	day := utils.FormatDate(utils.TruncateDate(date))

	taken := make(map[string]map[string]struct{})
	for _, b := range bookings {
		if utils.FormatDate(utils.TruncateDate(b.AppointmentDate)) != day {
			continue
		}
		slots, ok := taken[b.Treatment]
		if !ok {
			slots = make(map[string]struct{})
			taken[b.Treatment] = slots
		}
		slots[b.Slot] = struct{}{}
	}

	out := make([]*entity.TreatmentOption, len(catalog))
	for i, t := range catalog {
		open := make([]string, 0, len(t.Slots))
		for _, slot := range t.Slots {
			if _, held := taken[t.Name][slot]; !held {
				open = append(open, slot)
			}
		}
		c := *t
		c.Slots = open
		out[i] = &c
	}
	return out
}
