package entity

// TreatmentOption is a bookable service with a fixed daily slot template.
// Name is the identity bookings refer to.
type TreatmentOption struct {
	BaseSimple
	Name       string   `db:"name"`
	PriceMinor int64    `db:"price_minor"` // cents
	Slots      []string `db:"slots"`
}

// HasSlot reports whether slot is part of the treatment's template.
func (t *TreatmentOption) HasSlot(slot string) bool {
	for _, s := range t.Slots {
		if s == slot {
			return true
		}
	}
	return false
}
