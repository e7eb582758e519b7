package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/customer-directory/internal/errors"
	"github.com/unclebandit/customer-directory/internal/model"
	"github.com/unclebandit/customer-directory/internal/repository"
)

type SearchServiceInterface interface {
	Search(ctx context.Context, f model.CustomerFilter, p model.PageRequest) (model.Page, error)
}

// SearchService runs filtered, sorted, paginated customer queries. Filtering,
// counting and paging happen in the store.
type SearchService struct {
	base
	phones      *PhoneManager
	maxPageSize int
}

func NewSearchService(store repository.TxRunner, maxPageSize int, opts ...Option) *SearchService {
	b := newBase(store, opts)
	return &SearchService{base: b, phones: NewPhoneManager(b.validate), maxPageSize: maxPageSize}
}

// normalizeFilter turns blank predicates into absent ones so they match
// everything instead of matching the empty string.
func normalizeFilter(f model.CustomerFilter) model.CustomerFilter {
	clean := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		if t == "" {
			return nil
		}
		return &t
	}
	return model.CustomerFilter{
		GivenName:  clean(f.GivenName),
		FamilyName: clean(f.FamilyName),
		Email:      clean(f.Email),
		TypeCode:   clean(f.TypeCode),
	}
}

func (s *SearchService) Search(ctx context.Context, f model.CustomerFilter, p model.PageRequest) (model.Page, error) {
	fields := map[string]string{}
	if p.Page < 0 {
		fields["page"] = "must be >= 0"
	}
	if p.Size <= 0 {
		fields["size"] = "must be > 0"
	}
	if p.Sort.Field == "" {
		p.Sort.Field = model.SortByID
	}
	if !p.Sort.Field.Valid() {
		fields["sortBy"] = fmt.Sprintf("unknown sort field %q", p.Sort.Field)
	}
	if len(fields) > 0 {
		return model.Page{}, appErrors.NewValidation(fields)
	}
	if s.maxPageSize > 0 && p.Size > s.maxPageSize {
		p.Size = s.maxPageSize
	}
	f = normalizeFilter(f)

	start := time.Now()
	var (
		content []model.Customer
		total   int
	)
	err := s.store.RunReadOnly(ctx, func(st repository.Stores) error {
		var err error
		content, total, err = st.Customers.Search(ctx, f, p)
		if err != nil {
			return err
		}
		return s.phones.Load(ctx, st, content)
	})
	s.metrics.ObserveSearch(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("customer search failed", zap.Error(err))
		return model.Page{}, err
	}
	return model.NewPage(content, total, p), nil
}
