package service

import (
	"context"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/customer-directory/internal/errors"
	"github.com/unclebandit/customer-directory/internal/model"
	"github.com/unclebandit/customer-directory/internal/repository"
)

type CustomerTypeServiceInterface interface {
	List(ctx context.Context) ([]model.CustomerType, error)
	Get(ctx context.Context, code string) (*model.CustomerType, error)
	Create(ctx context.Context, in model.CustomerTypeInput) (*model.CustomerType, error)
	Update(ctx context.Context, code string, in model.CustomerTypeInput) (*model.CustomerType, error)
	Delete(ctx context.Context, code string) error
}

// CustomerTypeService manages the catalog of customer classifications.
type CustomerTypeService struct {
	base
}

func NewCustomerTypeService(store repository.TxRunner, opts ...Option) *CustomerTypeService {
	return &CustomerTypeService{base: newBase(store, opts)}
}

func (s *CustomerTypeService) List(ctx context.Context) ([]model.CustomerType, error) {
	var out []model.CustomerType
	err := s.store.RunReadOnly(ctx, func(st repository.Stores) error {
		types, err := st.Types.ListAll(ctx)
		out = types
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.CustomerType{}
	}
	return out, nil
}

func (s *CustomerTypeService) Get(ctx context.Context, code string) (*model.CustomerType, error) {
	var out *model.CustomerType
	err := s.store.RunReadOnly(ctx, func(st repository.Stores) error {
		t, err := st.Types.GetByCode(ctx, code)
		out = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CustomerTypeService) Create(ctx context.Context, in model.CustomerTypeInput) (*model.CustomerType, error) {
	in = normalizeCustomerTypeInput(in)
	if err := s.validate.Struct(in); err != nil {
		err = toValidationErr(err, "")
		s.metrics.ObserveCatalogWrite("create", err)
		return nil, err
	}

	t := &model.CustomerType{Code: in.Code, Description: in.Description}
	err := s.store.RunInTx(ctx, func(st repository.Stores) error {
		exists, err := st.Types.Exists(ctx, t.Code)
		if err != nil {
			return err
		}
		if exists {
			return appErrors.NewDuplicateKey("customer type", "code", t.Code)
		}
		return st.Types.Create(ctx, t)
	})
	s.metrics.ObserveCatalogWrite("create", err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("customer type created", zap.String("code", t.Code))
	return t, nil
}

// Update changes the description only. The code is the identity; a differing
// code in the body is ignored, and an unknown path code of any length is
// not found.
func (s *CustomerTypeService) Update(ctx context.Context, code string, in model.CustomerTypeInput) (*model.CustomerType, error) {
	in = normalizeCustomerTypeInput(in)
	in.Code = code
	if err := s.validate.StructPartial(in, "Description"); err != nil {
		err = toValidationErr(err, "")
		s.metrics.ObserveCatalogWrite("update", err)
		return nil, err
	}

	var out *model.CustomerType
	err := s.store.RunInTx(ctx, func(st repository.Stores) error {
		t, err := st.Types.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		t.Description = in.Description
		if err := st.Types.Update(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	s.metrics.ObserveCatalogWrite("update", err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("customer type updated", zap.String("code", code))
	return out, nil
}

// Delete refuses while any customer still references the code.
func (s *CustomerTypeService) Delete(ctx context.Context, code string) error {
	err := s.store.RunInTx(ctx, func(st repository.Stores) error {
		if _, err := st.Types.GetByCode(ctx, code); err != nil {
			return err
		}
		n, err := st.Customers.CountByType(ctx, code)
		if err != nil {
			return err
		}
		if n > 0 {
			return appErrors.NewReferentialViolation("customer type", code, nil)
		}
		return st.Types.Delete(ctx, code)
	})
	s.metrics.ObserveCatalogWrite("delete", err)
	if err != nil {
		return err
	}
	s.logger.Info("customer type deleted", zap.String("code", code))
	return nil
}
