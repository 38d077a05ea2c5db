package models

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Pagination is a normalised page request.
type Pagination struct {
	Page  int
	Limit int
}

// NewPagination applies defaults to non-positive values and caps the limit.
func NewPagination(page, limit int) Pagination {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Pagination{Page: page, Limit: limit}
}

// Skip is the number of items preceding the requested page.
func (p Pagination) Skip() int {
	return (p.Page - 1) * p.Limit
}

// Page is the paginated list envelope returned by list endpoints.
type Page[T any] struct {
	Docs        []T   `json:"docs"`
	TotalDocs   int64 `json:"totalDocs"`
	Limit       int   `json:"limit"`
	Page        int   `json:"page"`
	TotalPages  int   `json:"totalPages"`
	HasPrevPage bool  `json:"hasPrevPage"`
	HasNextPage bool  `json:"hasNextPage"`
	PrevPage    *int  `json:"prevPage"`
	NextPage    *int  `json:"nextPage"`
}

func NewPage[T any](docs []T, total int64, p Pagination) *Page[T] {
	if docs == nil {
		docs = []T{}
	}
	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	page := &Page[T]{
		Docs:        docs,
		TotalDocs:   total,
		Limit:       p.Limit,
		Page:        p.Page,
		TotalPages:  totalPages,
		HasPrevPage: p.Page > 1,
		HasNextPage: p.Page < totalPages,
	}
	if page.HasPrevPage {
		prev := p.Page - 1
		page.PrevPage = &prev
	}
	if page.HasNextPage {
		next := p.Page + 1
		page.NextPage = &next
	}
	return page
}
