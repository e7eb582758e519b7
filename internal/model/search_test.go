package model_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/customer-directory/internal/model"
)

func TestParseSort(t *testing.T) {
	s, err := model.ParseSort("", "")
	require.NoError(t, err)
	assert.Equal(t, model.Sort{Field: model.SortByID}, s)

	s, err = model.ParseSort("lastName", "DESC")
	require.NoError(t, err)
	assert.Equal(t, model.Sort{Field: model.SortByFamilyName, Desc: true}, s)

	s, err = model.ParseSort("Email", "Asc")
	require.NoError(t, err)
	assert.Equal(t, model.Sort{Field: model.SortByEmail}, s)

	_, err = model.ParseSort("password", "asc")
	assert.Error(t, err)

	_, err = model.ParseSort("id", "sideways")
	assert.Error(t, err)
}

func TestNewPage(t *testing.T) {
	req := model.PageRequest{Page: 0, Size: 10}

	p := model.NewPage(make([]model.Customer, 10), 25, req)
	assert.Equal(t, 25, p.TotalElements)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 10, p.PageSize)

	empty := model.NewPage(nil, 0, req)
	assert.NotNil(t, empty.Content)
	assert.Equal(t, 0, empty.TotalPages)

	exact := model.NewPage(nil, 20, req)
	assert.Equal(t, 2, exact.TotalPages)
}

func TestPageRequestOffsetSaturates(t *testing.T) {
	assert.Equal(t, 0, model.PageRequest{Page: 0, Size: 10}.Offset())
	assert.Equal(t, 20, model.PageRequest{Page: 2, Size: 10}.Offset())
	assert.Equal(t, math.MaxInt, model.PageRequest{Page: 1 << 62, Size: 3}.Offset())
	assert.Equal(t, math.MaxInt, model.PageRequest{Page: math.MaxInt, Size: math.MaxInt}.Offset())
}

func TestSortFieldValid(t *testing.T) {
	assert.True(t, model.SortByAge.Valid())
	assert.True(t, model.SortByTypeCode.Valid())
	assert.False(t, model.SortField("").Valid())
	assert.False(t, model.SortField("phone").Valid())
}
