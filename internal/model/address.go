package model

import (
	"fmt"
	"strings"
)

// Address is a shipping address owned by a user.
type Address struct {
	ID           int64  `json:"addressId" db:"id"`
	UserID       int64  `json:"userId" db:"user_id"`
	Street       string `json:"street" db:"street"`
	BuildingName string `json:"buildingName" db:"building_name"`
	City         string `json:"city" db:"city"`
	State        string `json:"state" db:"state"`
	Country      string `json:"country" db:"country"`
	CEP          string `json:"cep" db:"cep"`
}

// AddressRequest is the payload for creating or replacing an address.
type AddressRequest struct {
	Street       string `json:"street"`
	BuildingName string `json:"buildingName"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country"`
	CEP          string `json:"cep"`
}

var addressMinLengths = []struct {
	field string
	min   int
	get   func(*AddressRequest) string
}{
	{"street", 5, func(r *AddressRequest) string { return r.Street }},
	{"buildingName", 5, func(r *AddressRequest) string { return r.BuildingName }},
	{"city", 4, func(r *AddressRequest) string { return r.City }},
	{"state", 2, func(r *AddressRequest) string { return r.State }},
	{"country", 2, func(r *AddressRequest) string { return r.Country }},
	{"cep", 5, func(r *AddressRequest) string { return r.CEP }},
}

// Validate checks each field against its minimum length.
func (r *AddressRequest) Validate() error {
	fields := map[string]string{}
	for _, rule := range addressMinLengths {
		value := strings.TrimSpace(rule.get(r))
		if len([]rune(value)) < rule.min {
			fields[rule.field] = fmt.Sprintf("%s must contain at least %d characters", rule.field, rule.min)
		}
	}
	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	return nil
}

// ApplyTo copies the request onto an address.
func (r *AddressRequest) ApplyTo(a *Address) {
	a.Street = strings.TrimSpace(r.Street)
	a.BuildingName = strings.TrimSpace(r.BuildingName)
	a.City = strings.TrimSpace(r.City)
	a.State = strings.TrimSpace(r.State)
	a.Country = strings.TrimSpace(r.Country)
	a.CEP = strings.TrimSpace(r.CEP)
}
