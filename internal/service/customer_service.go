package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/customer-directory/internal/errors"
	"github.com/unclebandit/customer-directory/internal/model"
	"github.com/unclebandit/customer-directory/internal/repository"
)

// CustomerServiceInterface is what the HTTP layer needs from customer writes and lookups.
type CustomerServiceInterface interface {
	Create(ctx context.Context, in model.CustomerInput) (*model.Customer, error)
	Update(ctx context.Context, id int64, in model.CustomerInput) (*model.Customer, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*model.Customer, error)
	GetByNationalID(ctx context.Context, nationalID string) (*model.Customer, error)
	GetByEmail(ctx context.Context, email string) (*model.Customer, error)
	ListAll(ctx context.Context) ([]model.Customer, error)
	ListByType(ctx context.Context, code string) ([]model.Customer, error)
}

// CustomerService applies the integrity rules around customer writes: field
// validation, nationalId and email uniqueness, type existence and the phone
// collection, all inside one transaction per operation.
type CustomerService struct {
	base
	phones *PhoneManager
}

func NewCustomerService(store repository.TxRunner, opts ...Option) *CustomerService {
	b := newBase(store, opts)
	return &CustomerService{base: b, phones: NewPhoneManager(b.validate)}
}

// validateInput reports every field problem at once, phones included.
func (s *CustomerService) validateInput(in model.CustomerInput) error {
	fields := map[string]string{}
	if err := s.validate.Struct(in); err != nil {
		var ae *appErrors.Error
		if !errors.As(toValidationErr(err, ""), &ae) {
			return err
		}
		for k, v := range ae.Fields {
			fields[k] = v
		}
	}
	if err := s.phones.Validate(in.Phones); err != nil {
		var ae *appErrors.Error
		if !errors.As(err, &ae) {
			return err
		}
		for k, v := range ae.Fields {
			fields[k] = v
		}
	}
	if len(fields) > 0 {
		return appErrors.NewValidation(fields)
	}
	return nil
}

// checkUnique enforces the natural keys in a fixed order: nationalId, then
// email. excludeID skips the customer being updated.
func (s *CustomerService) checkUnique(ctx context.Context, st repository.Stores, in model.CustomerInput, excludeID int64) error {
	taken, err := st.Customers.ExistsByNationalID(ctx, in.NationalID, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return appErrors.NewDuplicateKey("customer", "nationalId", in.NationalID)
	}
	taken, err = st.Customers.ExistsByEmail(ctx, in.Email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return appErrors.NewDuplicateKey("customer", "email", in.Email)
	}
	return nil
}

func (s *CustomerService) Create(ctx context.Context, in model.CustomerInput) (*model.Customer, error) {
	in = normalizeCustomerInput(in)
	if err := s.validateInput(in); err != nil {
		s.metrics.ObserveCustomerWrite("create", err)
		return nil, err
	}

	var created *model.Customer
	err := s.store.RunInTx(ctx, func(st repository.Stores) error {
		if err := s.checkUnique(ctx, st, in, 0); err != nil {
			return err
		}
		t, err := st.Types.GetByCode(ctx, in.CustomerTypeCode)
		if err != nil {
			return err
		}

		c := &model.Customer{
			NationalID:       in.NationalID,
			GivenName:        in.GivenName,
			FamilyName:       in.FamilyName,
			Age:              in.Age,
			Email:            in.Email,
			CustomerTypeCode: t.Code,
		}
		if err := st.Customers.Create(ctx, c); err != nil {
			return err
		}

		var numbers []string
		if in.Phones != nil {
			numbers = *in.Phones
		}
		phones, err := s.phones.Attach(ctx, st, c.ID, numbers)
		if err != nil {
			return err
		}
		c.Type = t
		c.Phones = phones
		created = c
		return nil
	})
	s.metrics.ObserveCustomerWrite("create", err)
	if err != nil {
		s.logger.Debug("customer create rejected", zap.String("nationalId", in.NationalID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("customer created", zap.Int64("id", created.ID), zap.String("type", created.CustomerTypeCode))
	s.publish(model.EventCustomerCreated, created)
	return created, nil
}

func (s *CustomerService) Update(ctx context.Context, id int64, in model.CustomerInput) (*model.Customer, error) {
	in = normalizeCustomerInput(in)
	if err := s.validateInput(in); err != nil {
		s.metrics.ObserveCustomerWrite("update", err)
		return nil, err
	}

	var updated *model.Customer
	err := s.store.RunInTx(ctx, func(st repository.Stores) error {
		existing, err := st.Customers.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.checkUnique(ctx, st, in, id); err != nil {
			return err
		}
		t, err := st.Types.GetByCode(ctx, in.CustomerTypeCode)
		if err != nil {
			return err
		}

		existing.NationalID = in.NationalID
		existing.GivenName = in.GivenName
		existing.FamilyName = in.FamilyName
		existing.Age = in.Age
		existing.Email = in.Email
		existing.CustomerTypeCode = t.Code
		if err := st.Customers.Update(ctx, existing); err != nil {
			return err
		}

		phones, err := s.phones.Replace(ctx, st, id, in.Phones)
		if err != nil {
			return err
		}
		existing.Type = t
		existing.Phones = phones
		updated = existing
		return nil
	})
	s.metrics.ObserveCustomerWrite("update", err)
	if err != nil {
		s.logger.Debug("customer update rejected", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("customer updated", zap.Int64("id", id))
	s.publish(model.EventCustomerUpdated, updated)
	return updated, nil
}

// Delete removes the customer and every phone it owns.
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	var deleted *model.Customer
	err := s.store.RunInTx(ctx, func(st repository.Stores) error {
		c, err := st.Customers.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if _, err := st.Phones.DeleteByCustomer(ctx, id); err != nil {
			return err
		}
		if err := st.Customers.Delete(ctx, id); err != nil {
			return err
		}
		deleted = c
		return nil
	})
	s.metrics.ObserveCustomerWrite("delete", err)
	if err != nil {
		return err
	}

	s.logger.Info("customer deleted", zap.Int64("id", id))
	s.publish(model.EventCustomerDeleted, deleted)
	return nil
}

func (s *CustomerService) getOne(ctx context.Context, lookup func(st repository.Stores) (*model.Customer, error)) (*model.Customer, error) {
	var found *model.Customer
	err := s.store.RunReadOnly(ctx, func(st repository.Stores) error {
		c, err := lookup(st)
		if err != nil {
			return err
		}
		phones, err := st.Phones.ListByCustomer(ctx, c.ID)
		if err != nil {
			return err
		}
		c.Phones = phones
		found = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (s *CustomerService) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	return s.getOne(ctx, func(st repository.Stores) (*model.Customer, error) {
		return st.Customers.GetByID(ctx, id)
	})
}

func (s *CustomerService) GetByNationalID(ctx context.Context, nationalID string) (*model.Customer, error) {
	return s.getOne(ctx, func(st repository.Stores) (*model.Customer, error) {
		return st.Customers.GetByNationalID(ctx, nationalID)
	})
}

func (s *CustomerService) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	return s.getOne(ctx, func(st repository.Stores) (*model.Customer, error) {
		return st.Customers.GetByEmail(ctx, email)
	})
}

func (s *CustomerService) list(ctx context.Context, fetch func(st repository.Stores) ([]model.Customer, error)) ([]model.Customer, error) {
	var out []model.Customer
	err := s.store.RunReadOnly(ctx, func(st repository.Stores) error {
		customers, err := fetch(st)
		if err != nil {
			return err
		}
		if err := s.phones.Load(ctx, st, customers); err != nil {
			return err
		}
		out = customers
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Customer{}
	}
	return out, nil
}

func (s *CustomerService) ListAll(ctx context.Context) ([]model.Customer, error) {
	return s.list(ctx, func(st repository.Stores) ([]model.Customer, error) {
		return st.Customers.ListAll(ctx)
	})
}

// ListByType returns an empty list for a code nobody uses, known or not.
func (s *CustomerService) ListByType(ctx context.Context, code string) ([]model.Customer, error) {
	return s.list(ctx, func(st repository.Stores) ([]model.Customer, error) {
		return st.Customers.ListByType(ctx, code)
	})
}

// publish runs after commit. A lost event never fails the write.
func (s *CustomerService) publish(t model.EventType, c *model.Customer) {
	if s.events == nil || c == nil {
		return
	}
	evt := model.NewCustomerEvent(t, c, s.now())
	if err := s.events.Publish(s.topic, evt); err != nil {
		s.logger.Warn("failed to publish customer event",
			zap.String("type", string(t)), zap.Int64("customerId", c.ID), zap.Error(err))
	}
}
