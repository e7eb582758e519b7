// internal/model/customer.go
package model

import "time"

const (
	PhoneKindMobile   = "MOBILE"
	PhoneKindLandline = "LANDLINE"
	PhoneKindWork     = "WORK"
)

type CustomerType struct {
	Code        string `db:"code" json:"code"`
	Description string `db:"description" json:"description"`
}

type Phone struct {
	ID         int64  `db:"id" json:"id"`
	Number     string `db:"number" json:"number"`
	Kind       string `db:"kind" json:"kind"`
	IsPrimary  bool   `db:"is_primary" json:"isPrimary"`
	CustomerID int64  `db:"customer_id" json:"-"`
}

type Customer struct {
	ID               int64         `db:"id" json:"id"`
	NationalID       string        `db:"national_id" json:"nationalId"`
	GivenName        string        `db:"given_name" json:"name"`
	FamilyName       string        `db:"family_name" json:"lastName"`
	Age              *int          `db:"age" json:"age,omitempty"`
	Email            string        `db:"email" json:"email"`
	CustomerTypeCode string        `db:"customer_type_code" json:"typeCode"`
	Type             *CustomerType `json:"customerType,omitempty"`
	Phones           []Phone       `json:"phones"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updatedAt"`
}

// PhoneNumbers flattens the owned collection to its numbers.
func (c *Customer) PhoneNumbers() []string {
	out := make([]string, 0, len(c.Phones))
	for _, p := range c.Phones {
		out = append(out, p.Number)
	}
	return out
}

// CustomerInput is a write candidate. Phones distinguishes nil (leave the
// collection alone) from an empty slice (clear it).
type CustomerInput struct {
	NationalID       string    `json:"nationalId" validate:"required,max=12"`
	GivenName        string    `json:"name" validate:"required,max=50"`
	FamilyName       string    `json:"lastName" validate:"required,max=50"`
	Age              *int      `json:"age" validate:"omitempty,min=0,max=150"`
	Email            string    `json:"email" validate:"required,email,max=100"`
	CustomerTypeCode string    `json:"typeCode" validate:"required,max=10"`
	Phones           *[]string `json:"phones" validate:"-"`
}

type CustomerTypeInput struct {
	Code        string `json:"code" validate:"required,max=10"`
	Description string `json:"description" validate:"required,max=100"`
}
