package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		target   error
		expected bool
	}{
		{
			name:     "Same sentinel",
			err:      ErrEmptyCart,
			target:   ErrEmptyCart,
			expected: true,
		},
		{
			name:     "Dynamic message matches by code",
			err:      NewDomainError(ErrCodeInsufficientStock, "Not enough stock for Mouse. Available: 3, requested: 5"),
			target:   ErrInsufficientStock,
			expected: true,
		},
		{
			name:     "Wrapped error matches",
			err:      fmt.Errorf("checkout: %w", ErrOutOfStock),
			target:   ErrOutOfStock,
			expected: true,
		},
		{
			name:     "Different code does not match",
			err:      ErrOutOfStock,
			target:   ErrInsufficientStock,
			expected: false,
		},
		{
			name:     "Plain error does not match",
			err:      errors.New("boom"),
			target:   ErrProductNotFound,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, errors.Is(tt.err, tt.target))
		})
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError(map[string]string{
		"street": "too short",
		"city":   "too short",
	})

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "validation failed: city, street", err.Message)
	assert.Len(t, err.Fields, 2)
}

func TestProduct_ClearInvalidSpecialPrice(t *testing.T) {
	tests := []struct {
		name        string
		special     decimal.NullDecimal
		expectClear bool
	}{
		{"No special price", decimal.NullDecimal{}, false},
		{"Special below price", decimal.NewNullDecimal(decimal.RequireFromString("80.00")), false},
		{"Special equal to price", decimal.NewNullDecimal(decimal.RequireFromString("100.00")), true},
		{"Special above price", decimal.NewNullDecimal(decimal.RequireFromString("120.00")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Product{
				Price:              decimal.RequireFromString("100.00"),
				SpecialPrice:       tt.special,
				SpecialPriceActive: true,
			}

			cleared := p.ClearInvalidSpecialPrice()

			assert.Equal(t, tt.expectClear, cleared)
			if tt.expectClear {
				assert.False(t, p.SpecialPrice.Valid)
				assert.False(t, p.SpecialPriceActive)
			} else {
				assert.True(t, p.SpecialPriceActive)
			}
		})
	}
}

func TestProductUpdateRequest_Apply(t *testing.T) {
	name := "Wireless Mouse"
	price := decimal.RequireFromString("59.90")
	p := Product{Name: "Mouse", Description: "A mouse", Price: decimal.RequireFromString("49.90"), QuantityInStock: 4}

	req := ProductUpdateRequest{Name: &name, Price: &price}
	require.NoError(t, req.Validate())
	req.Apply(&p)

	assert.Equal(t, "Wireless Mouse", p.Name)
	assert.True(t, p.Price.Equal(price))
	assert.Equal(t, "A mouse", p.Description)
	assert.Equal(t, 4, p.QuantityInStock)
}

func TestAddressRequest_Validate(t *testing.T) {
	valid := AddressRequest{
		Street:       "Rua das Flores",
		BuildingName: "Edificio Aurora",
		City:         "Recife",
		State:        "PE",
		Country:      "BR",
		CEP:          "50000-000",
	}
	require.NoError(t, valid.Validate())

	invalid := valid
	invalid.City = "Rio"
	invalid.CEP = "123"

	err := invalid.Validate()
	require.Error(t, err)

	var domainErr *DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, ErrCodeValidationFailed, domainErr.Code)
	assert.Contains(t, domainErr.Fields, "city")
	assert.Contains(t, domainErr.Fields, "cep")
	assert.NotContains(t, domainErr.Fields, "street")
}

func TestPageRequest_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		in       PageRequest
		expected PageRequest
	}{
		{
			name:     "Defaults applied",
			in:       PageRequest{PageNumber: -1},
			expected: PageRequest{PageNumber: 0, PageSize: DefaultPageSize, SortBy: "id", SortOrder: "ASC"},
		},
		{
			name:     "Allowed sort column kept",
			in:       PageRequest{PageSize: 10, SortBy: "PRICE", SortOrder: "desc"},
			expected: PageRequest{PageNumber: 0, PageSize: 10, SortBy: "price", SortOrder: "DESC"},
		},
		{
			name:     "Unknown sort column replaced",
			in:       PageRequest{PageSize: 500, SortBy: "1; DROP TABLE products"},
			expected: PageRequest{PageNumber: 0, PageSize: MaxPageSize, SortBy: "id", SortOrder: "ASC"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.in.Normalize("id", "name", "price"))
		})
	}
}

func TestPageRequest_TotalPages(t *testing.T) {
	p := PageRequest{PageNumber: 1, PageSize: 10}

	assert.Equal(t, 3, p.TotalPages(21))
	assert.False(t, p.IsLast(21))
	assert.True(t, p.IsLast(20))
	assert.Equal(t, 10, p.Offset())
}

func TestPageRequest_OffsetIsZeroBased(t *testing.T) {
	for page, expected := range []int{0, 10, 20} {
		assert.Equal(t, expected, PageRequest{PageNumber: page, PageSize: 10}.Offset())
	}
}
