package service_test

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/customer-directory/internal/errors"
	"github.com/unclebandit/customer-directory/internal/model"
	"github.com/unclebandit/customer-directory/internal/repository"
	"github.com/unclebandit/customer-directory/internal/service"
)

func str(s string) *string { return &s }

func seedCustomers(t *testing.T, store repository.TxRunner, n int) {
	t.Helper()
	ctx := context.Background()
	types := service.NewCustomerTypeService(store)
	for _, code := range []string{"VIP", "REG"} {
		_, err := types.Create(ctx, model.CustomerTypeInput{Code: code, Description: code + " customer"})
		require.NoError(t, err)
	}
	svc := service.NewCustomerService(store)
	for i := 0; i < n; i++ {
		code := "REG"
		if i%5 == 0 {
			code = "VIP"
		}
		_, err := svc.Create(ctx, model.CustomerInput{
			NationalID:       fmt.Sprintf("%d-K", i),
			GivenName:        fmt.Sprintf("Person%02d", i),
			FamilyName:       "Soto",
			Age:              intPtr(20 + i),
			Email:            fmt.Sprintf("p%02d@x.com", i),
			CustomerTypeCode: code,
			Phones:           phones(fmt.Sprintf("555%02d", i)),
		})
		require.NoError(t, err)
	}
}

func TestSearchPaginatesOverFullSet(t *testing.T) {
	store := repository.NewMemoryStore()
	seedCustomers(t, store, 25)
	svc := service.NewSearchService(store, 100)

	page, err := svc.Search(context.Background(), model.CustomerFilter{}, model.PageRequest{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.Len(t, page.Content, 10)
	assert.Equal(t, 25, page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 0, page.PageNumber)
	assert.Equal(t, 10, page.PageSize)
	assert.Len(t, page.Content[0].Phones, 1)

	last, err := svc.Search(context.Background(), model.CustomerFilter{}, model.PageRequest{Page: 2, Size: 10})
	require.NoError(t, err)
	assert.Len(t, last.Content, 5)

	beyond, err := svc.Search(context.Background(), model.CustomerFilter{}, model.PageRequest{Page: 7, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond.Content)
	assert.NotNil(t, beyond.Content)
	assert.Equal(t, 25, beyond.TotalElements)
}

func TestSearchGivenNameIsCaseInsensitiveSubstring(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	_, err := service.NewCustomerTypeService(store).Create(ctx, model.CustomerTypeInput{Code: "VIP", Description: "VIP customer"})
	require.NoError(t, err)
	customers := service.NewCustomerService(store)
	_, err = customers.Create(ctx, juan())
	require.NoError(t, err)
	joaquina := juan()
	joaquina.NationalID, joaquina.GivenName, joaquina.Email = "2-2", "Joaquina", "joaquina@x.com"
	_, err = customers.Create(ctx, joaquina)
	require.NoError(t, err)

	svc := service.NewSearchService(store, 100)
	req := model.PageRequest{Page: 0, Size: 10}

	lower, err := svc.Search(ctx, model.CustomerFilter{GivenName: str("jua")}, req)
	require.NoError(t, err)
	upper, err := svc.Search(ctx, model.CustomerFilter{GivenName: str("JUA")}, req)
	require.NoError(t, err)

	require.Len(t, lower.Content, 1)
	assert.Equal(t, "Juan", lower.Content[0].GivenName)
	assert.Equal(t, lower.Content, upper.Content)
}

func TestSearchConjunctiveFilters(t *testing.T) {
	store := repository.NewMemoryStore()
	seedCustomers(t, store, 25)
	svc := service.NewSearchService(store, 100)

	page, err := svc.Search(context.Background(), model.CustomerFilter{
		FamilyName: str("soTO"),
		TypeCode:   str("VIP"),
	}, model.PageRequest{Page: 0, Size: 50})
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalElements)
	for _, c := range page.Content {
		assert.Equal(t, "VIP", c.CustomerTypeCode)
	}

	// type code is exact, not a substring
	page, err = svc.Search(context.Background(), model.CustomerFilter{TypeCode: str("VI")}, model.PageRequest{Page: 0, Size: 50})
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalElements)
}

func TestSearchBlankFilterMatchesEverything(t *testing.T) {
	store := repository.NewMemoryStore()
	seedCustomers(t, store, 4)
	svc := service.NewSearchService(store, 100)

	page, err := svc.Search(context.Background(), model.CustomerFilter{Email: str("  ")}, model.PageRequest{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, page.TotalElements)
}

func TestSearchSortsDescending(t *testing.T) {
	store := repository.NewMemoryStore()
	seedCustomers(t, store, 6)
	svc := service.NewSearchService(store, 100)

	page, err := svc.Search(context.Background(), model.CustomerFilter{}, model.PageRequest{
		Page: 0, Size: 3, Sort: model.Sort{Field: model.SortByAge, Desc: true},
	})
	require.NoError(t, err)
	require.Len(t, page.Content, 3)
	assert.Equal(t, 25, *page.Content[0].Age)
	assert.Equal(t, 23, *page.Content[2].Age)
}

func TestSearchRejectsBadPaging(t *testing.T) {
	svc := service.NewSearchService(repository.NewMemoryStore(), 100)

	_, err := svc.Search(context.Background(), model.CustomerFilter{}, model.PageRequest{Page: -1, Size: 0})
	var ae *appErrors.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, appErrors.KindValidation, ae.Kind)
	assert.Contains(t, ae.Fields, "page")
	assert.Contains(t, ae.Fields, "size")
}

func TestSearchBoundaryInputs(t *testing.T) {
	store := repository.NewMemoryStore()
	seedCustomers(t, store, 3)
	svc := service.NewSearchService(store, 100)

	tests := []struct {
		name      string
		req       model.PageRequest
		wantLen   int
		wantField string
	}{
		{name: "zero sort defaults to id", req: model.PageRequest{Page: 0, Size: 10}, wantLen: 3},
		{name: "page past the end", req: model.PageRequest{Page: 5, Size: 10, Sort: model.Sort{Field: model.SortByID}}, wantLen: 0},
		{name: "page index overflows offset", req: model.PageRequest{Page: 1 << 62, Size: 3, Sort: model.Sort{Field: model.SortByID}}, wantLen: 0},
		{name: "max page index", req: model.PageRequest{Page: math.MaxInt, Size: math.MaxInt}, wantLen: 0},
		{name: "unknown sort field", req: model.PageRequest{Page: 0, Size: 10, Sort: model.Sort{Field: "bogus"}}, wantField: "sortBy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.Search(context.Background(), model.CustomerFilter{}, tt.req)
			if tt.wantField != "" {
				var ae *appErrors.Error
				require.ErrorAs(t, err, &ae)
				assert.Equal(t, appErrors.KindValidation, ae.Kind)
				assert.Contains(t, ae.Fields, tt.wantField)
				return
			}
			require.NoError(t, err)
			assert.Len(t, page.Content, tt.wantLen)
			assert.NotNil(t, page.Content)
			assert.Equal(t, 3, page.TotalElements)
			assert.Equal(t, tt.req.Page, page.PageNumber)
		})
	}
}

func TestSearchZeroSortOrdersByID(t *testing.T) {
	store := repository.NewMemoryStore()
	seedCustomers(t, store, 4)
	svc := service.NewSearchService(store, 100)

	page, err := svc.Search(context.Background(), model.CustomerFilter{}, model.PageRequest{Page: 0, Size: 10})
	require.NoError(t, err)
	require.Len(t, page.Content, 4)
	for i := 1; i < len(page.Content); i++ {
		assert.Less(t, page.Content[i-1].ID, page.Content[i].ID)
	}
}

func TestSearchClampsPageSize(t *testing.T) {
	store := repository.NewMemoryStore()
	seedCustomers(t, store, 6)
	svc := service.NewSearchService(store, 5)

	page, err := svc.Search(context.Background(), model.CustomerFilter{}, model.PageRequest{Page: 0, Size: 500})
	require.NoError(t, err)
	assert.Len(t, page.Content, 5)
	assert.Equal(t, 5, page.PageSize)
	assert.Equal(t, 2, page.TotalPages)
}
