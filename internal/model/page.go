package model

import "strings"

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// PageRequest describes a paged, sorted listing.
type PageRequest struct {
	PageNumber int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// Normalize clamps paging values and restricts sorting to the allowed
// columns. The first allowed column is the default.
func (p PageRequest) Normalize(allowed ...string) PageRequest {
	if p.PageNumber < 0 {
		p.PageNumber = 0
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}

	sortBy := ""
	for _, col := range allowed {
		if strings.EqualFold(col, p.SortBy) {
			sortBy = col
			break
		}
	}
	if sortBy == "" && len(allowed) > 0 {
		sortBy = allowed[0]
	}
	p.SortBy = sortBy

	if strings.EqualFold(p.SortOrder, "desc") {
		p.SortOrder = "DESC"
	} else {
		p.SortOrder = "ASC"
	}
	return p
}

// Offset returns the row offset for the page.
func (p PageRequest) Offset() int {
	return p.PageNumber * p.PageSize
}

// TotalPages returns how many pages total rows span.
func (p PageRequest) TotalPages(total int64) int {
	if p.PageSize <= 0 {
		return 0
	}
	return int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
}

// IsLast reports whether this page is the final one.
func (p PageRequest) IsLast(total int64) bool {
	return p.PageNumber+1 >= p.TotalPages(total)
}

// Sortable columns per listing. The first entry is the default.
var (
	ProductSortFields  = []string{"id", "name", "price", "created_at"}
	CategorySortFields = []string{"id", "name"}
)
