package model

import "strings"

// Category groups products in the catalogue.
type Category struct {
	ID   int64  `json:"categoryId" db:"id"`
	Name string `json:"categoryName" db:"name"`
}

// CategoryRequest is the payload for creating or renaming a category.
type CategoryRequest struct {
	Name string `json:"categoryName"`
}

// Validate checks the category name.
func (r *CategoryRequest) Validate() error {
	if len([]rune(strings.TrimSpace(r.Name))) < 3 {
		return NewValidationError(map[string]string{
			"categoryName": "category name must contain at least 3 characters",
		})
	}
	return nil
}

// CategoryPage is a page of categories.
type CategoryPage struct {
	Content       []Category `json:"content"`
	PageNumber    int        `json:"pageNumber"`
	PageSize      int        `json:"pageSize"`
	TotalElements int64      `json:"totalElements"`
	TotalPages    int        `json:"totalPages"`
	LastPage      bool       `json:"lastPage"`
}
