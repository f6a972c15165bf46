package mongostore

import (
	"time"

	"doctors-portal/internal/data/entity"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

type treatmentDoc struct {
	ID         string    `bson:"_id"`
	Name       string    `bson:"name"`
	PriceMinor int64     `bson:"priceMinor"`
	Slots      []string  `bson:"slots"`
	CreatedAt  time.Time `bson:"createdAt"`
}

func toTreatmentDoc(t *entity.TreatmentOption) treatmentDoc {
	return treatmentDoc{
		ID:         t.ID.String(),
		Name:       t.Name,
		PriceMinor: t.PriceMinor,
		Slots:      t.Slots,
		CreatedAt:  t.CreatedAt,
	}
}

func (d treatmentDoc) entity() *entity.TreatmentOption {
	slots := d.Slots
	if slots == nil {
		slots = []string{}
	}
	return &entity.TreatmentOption{
		BaseSimple: entity.BaseSimple{ID: parseID(d.ID), CreatedAt: d.CreatedAt},
		Name:       d.Name,
		PriceMinor: d.PriceMinor,
		Slots:      slots,
	}
}

// bookingDoc stores the appointment date as a calendar-day string so the unique
// indexes compare days, not instants.
type bookingDoc struct {
	ID              string    `bson:"_id"`
	Email           string    `bson:"email"`
	Treatment       string    `bson:"treatment"`
	AppointmentDate string    `bson:"appointmentDate"`
	Slot            string    `bson:"slot"`
	Paid            bool      `bson:"paid"`
	TransactionID   *string   `bson:"transactionId,omitempty"`
	CreatedAt       time.Time `bson:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt"`
}

func toBookingDoc(b *entity.Booking) bookingDoc {
	return bookingDoc{
		ID:              b.ID.String(),
		Email:           b.Email,
		Treatment:       b.Treatment,
		AppointmentDate: b.AppointmentDate.UTC().Format(dateLayout),
		Slot:            b.Slot,
		Paid:            b.Paid,
		TransactionID:   b.TransactionID,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func (d bookingDoc) entity() *entity.Booking {
	date, _ := time.Parse(dateLayout, d.AppointmentDate)
	return &entity.Booking{
		Base:            entity.Base{ID: parseID(d.ID), CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
		Email:           d.Email,
		Treatment:       d.Treatment,
		AppointmentDate: date,
		Slot:            d.Slot,
		Paid:            d.Paid,
		TransactionID:   d.TransactionID,
	}
}

type paymentDoc struct {
	ID            string    `bson:"_id"`
	BookingID     string    `bson:"bookingId"`
	Email         string    `bson:"email"`
	AmountMinor   int64     `bson:"amountMinor"`
	Currency      string    `bson:"currency"`
	TransactionID string    `bson:"transactionId"`
	CreatedAt     time.Time `bson:"createdAt"`
}

func toPaymentDoc(p *entity.Payment) paymentDoc {
	return paymentDoc{
		ID:            p.ID.String(),
		BookingID:     p.BookingID.String(),
		Email:         p.Email,
		AmountMinor:   p.AmountMinor,
		Currency:      p.Currency,
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt,
	}
}

func (d paymentDoc) entity() *entity.Payment {
	return &entity.Payment{
		BaseSimple:    entity.BaseSimple{ID: parseID(d.ID), CreatedAt: d.CreatedAt},
		BookingID:     parseID(d.BookingID),
		Email:         d.Email,
		AmountMinor:   d.AmountMinor,
		Currency:      d.Currency,
		TransactionID: d.TransactionID,
	}
}

type userDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (d userDoc) entity() *entity.User {
	return &entity.User{
		Base:  entity.Base{ID: parseID(d.ID), CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
		Name:  d.Name,
		Email: d.Email,
		Role:  entity.UserRole(d.Role),
	}
}

type doctorDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Specialty string    `bson:"specialty"`
	ImageURL  *string   `bson:"imageUrl,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (d doctorDoc) entity() *entity.Doctor {
	return &entity.Doctor{
		BaseSimple: entity.BaseSimple{ID: parseID(d.ID), CreatedAt: d.CreatedAt},
		Name:       d.Name,
		Email:      d.Email,
		Specialty:  d.Specialty,
		ImageURL:   d.ImageURL,
	}
}

func parseID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}
