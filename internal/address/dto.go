package address

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opticamarket/marketplace-backend/pkg/db/models"
)

// CreateInput carries a new delivery address for the authenticated buyer.
type CreateInput struct {
	Recipient  string  `json:"recipient" validate:"required,max=120"`
	Street     string  `json:"street" validate:"required,max=200"`
	Number     string  `json:"number" validate:"required,max=20"`
	Complement *string `json:"complement,omitempty" validate:"omitempty,max=120"`
	District   string  `json:"district" validate:"required,max=120"`
	City       string  `json:"city" validate:"required,max=120"`
	State      string  `json:"state" validate:"required,state_code"`
	PostalCode string  `json:"postal_code" validate:"required,postal_code"`
	Country    string  `json:"country,omitempty" validate:"omitempty,len=2"`
	IsDefault  bool    `json:"is_default"`
}

func (in CreateInput) toModel(userID uuid.UUID) *models.Address {
	country := strings.ToUpper(strings.TrimSpace(in.Country))
	if country == "" {
		country = "BR"
	}
	return &models.Address{
		UserID:     userID,
		Recipient:  strings.TrimSpace(in.Recipient),
		Street:     strings.TrimSpace(in.Street),
		Number:     strings.TrimSpace(in.Number),
		Complement: in.Complement,
		District:   strings.TrimSpace(in.District),
		City:       strings.TrimSpace(in.City),
		State:      strings.ToUpper(strings.TrimSpace(in.State)),
		PostalCode: NormalizePostalCode(in.PostalCode),
		Country:    country,
		IsDefault:  in.IsDefault,
	}
}

// NormalizePostalCode strips everything but digits, so "01001-000" becomes "01001000".
func NormalizePostalCode(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AddressDTO is the transport shape of a saved address.
type AddressDTO struct {
	ID         uuid.UUID `json:"id"`
	Recipient  string    `json:"recipient"`
	Street     string    `json:"street"`
	Number     string    `json:"number"`
	Complement *string   `json:"complement,omitempty"`
	District   string    `json:"district"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
}

func FromModel(a *models.Address) *AddressDTO {
	if a == nil {
		return nil
	}
	return &AddressDTO{
		ID:         a.ID,
		Recipient:  a.Recipient,
		Street:     a.Street,
		Number:     a.Number,
		Complement: a.Complement,
		District:   a.District,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		IsDefault:  a.IsDefault,
		CreatedAt:  a.CreatedAt,
	}
}

func FromModels(rows []models.Address) []AddressDTO {
	out := make([]AddressDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
