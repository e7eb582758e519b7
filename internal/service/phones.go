package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/unclebandit/customer-directory/internal/errors"
	"github.com/unclebandit/customer-directory/internal/model"
	"github.com/unclebandit/customer-directory/internal/repository"
)

const phoneRules = "required,max=15,phonechars"

// PhoneManager owns the phone collection of a customer. Updates replace the
// whole collection: delete every owned row, then insert the new numbers.
type PhoneManager struct {
	validate *validator.Validate
}

func NewPhoneManager(v *validator.Validate) *PhoneManager {
	if v == nil {
		v = NewValidator()
	}
	return &PhoneManager{validate: v}
}

// Validate checks every number before anything is persisted, so one bad
// entry rejects the whole list.
func (m *PhoneManager) Validate(numbers *[]string) error {
	if numbers == nil {
		return nil
	}
	fields := map[string]string{}
	for i, n := range *numbers {
		field := fmt.Sprintf("phones[%d]", i)
		if err := m.validate.Var(n, phoneRules); err != nil {
			verr := toValidationErr(err, field)
			if ae, ok := verr.(*appErrors.Error); ok {
				fields[field] = ae.Fields[field]
				continue
			}
			return verr
		}
	}
	if len(fields) > 0 {
		return appErrors.NewValidation(fields)
	}
	return nil
}

func newPhone(customerID int64, number string) model.Phone {
	return model.Phone{
		CustomerID: customerID,
		Number:     number,
		Kind:       model.PhoneKindMobile,
		IsPrimary:  false,
	}
}

// Attach creates phone rows for a freshly created customer.
func (m *PhoneManager) Attach(ctx context.Context, s repository.Stores, customerID int64, numbers []string) ([]model.Phone, error) {
	phones := make([]model.Phone, 0, len(numbers))
	for _, n := range numbers {
		p := newPhone(customerID, n)
		if err := s.Phones.Create(ctx, &p); err != nil {
			return nil, err
		}
		phones = append(phones, p)
	}
	return phones, nil
}

// Replace swaps the customer's collection for numbers. nil leaves the current
// rows untouched and returns them; an empty slice clears them.
func (m *PhoneManager) Replace(ctx context.Context, s repository.Stores, customerID int64, numbers *[]string) ([]model.Phone, error) {
	if numbers == nil {
		return s.Phones.ListByCustomer(ctx, customerID)
	}
	if _, err := s.Phones.DeleteByCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return m.Attach(ctx, s, customerID, *numbers)
}

// Load hydrates the phones of every customer in one query.
func (m *PhoneManager) Load(ctx context.Context, s repository.Stores, customers []model.Customer) error {
	if len(customers) == 0 {
		return nil
	}
	ids := make([]int64, len(customers))
	for i, c := range customers {
		ids[i] = c.ID
	}
	byCustomer, err := s.Phones.ListByCustomers(ctx, ids)
	if err != nil {
		return err
	}
	for i := range customers {
		if phones, ok := byCustomer[customers[i].ID]; ok {
			customers[i].Phones = phones
		} else {
			customers[i].Phones = []model.Phone{}
		}
	}
	return nil
}
