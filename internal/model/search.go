package model

import (
	"fmt"
	"math"
	"strings"
)

// CustomerFilter holds optional search predicates. A nil field matches everything.
type CustomerFilter struct {
	GivenName  *string
	FamilyName *string
	Email      *string
	TypeCode   *string
}

type SortField string

const (
	SortByID         SortField = "id"
	SortByNationalID SortField = "nationalId"
	SortByGivenName  SortField = "givenName"
	SortByFamilyName SortField = "familyName"
	SortByAge        SortField = "age"
	SortByEmail      SortField = "email"
	SortByTypeCode   SortField = "customerTypeCode"
)

var sortAliases = map[string]SortField{
	"id":               SortByID,
	"nationalid":       SortByNationalID,
	"name":             SortByGivenName,
	"givenname":        SortByGivenName,
	"lastname":         SortByFamilyName,
	"familyname":       SortByFamilyName,
	"age":              SortByAge,
	"email":            SortByEmail,
	"typecode":         SortByTypeCode,
	"customertypecode": SortByTypeCode,
}

// Valid reports whether f is a sortable customer field.
func (f SortField) Valid() bool {
	switch f {
	case SortByID, SortByNationalID, SortByGivenName, SortByFamilyName, SortByAge, SortByEmail, SortByTypeCode:
		return true
	}
	return false
}

type Sort struct {
	Field SortField
	Desc  bool
}

// ParseSort resolves the caller's sort field and direction tokens. Empty
// tokens default to id ascending.
func ParseSort(field, dir string) (Sort, error) {
	s := Sort{Field: SortByID}
	if f := strings.TrimSpace(field); f != "" {
		resolved, ok := sortAliases[strings.ToLower(f)]
		if !ok {
			return Sort{}, fmt.Errorf("unknown sort field %q", f)
		}
		s.Field = resolved
	}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
	case "desc":
		s.Desc = true
	default:
		return Sort{}, fmt.Errorf("unknown sort direction %q", dir)
	}
	return s, nil
}

type PageRequest struct {
	Page int
	Size int
	Sort Sort
}

// Offset is the number of rows before the page. It saturates at math.MaxInt
// so a huge page index reads as past the end instead of wrapping negative.
func (p PageRequest) Offset() int {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	if p.Page > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Page * p.Size
}

type Page struct {
	Content       []Customer `json:"content"`
	TotalElements int        `json:"totalElements"`
	TotalPages    int        `json:"totalPages"`
	PageNumber    int        `json:"pageNumber"`
	PageSize      int        `json:"pageSize"`
}

// NewPage derives the page count from the full filtered total.
func NewPage(content []Customer, total int, req PageRequest) Page {
	if content == nil {
		content = []Customer{}
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = (total + req.Size - 1) / req.Size
	}
	return Page{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		PageNumber:    req.Page,
		PageSize:      req.Size,
	}
}
