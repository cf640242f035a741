// Package pagination implements skip/limit windowing shared by every listing
// endpoint.
package pagination

const (
	// DefaultLimit is applied when the caller does not request a page size.
	DefaultLimit = 10
	// MaxLimit caps the page size a caller may request.
	MaxLimit = 100
)

// Page is a normalized pagination request.
type Page struct {
	Number int
	Limit  int
}

// NewPage normalizes raw page/limit values: the page number is at least 1 and
// the limit is clamped to [1, MaxLimit], defaulting to DefaultLimit when the
// caller supplies zero or a negative value.
func NewPage(number, limit int) Page {
	if number < 1 {
		number = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Number: number, Limit: limit}
}

// Offset returns the number of records to skip before the page begins.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// Meta describes the window a Paginated result was cut from.
type Meta struct {
	Count      int `json:"count"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Paginated wraps one page of items together with windowing metadata.
type Paginated[T any] struct {
	Meta  Meta `json:"meta"`
	Items []T  `json:"items"`
}

// NewPaginated assembles a result page. TotalPages is the ceiling of
// count/limit and is zero when the collection is empty. Items is never nil so
// out-of-range pages serialize as an empty list rather than null.
func NewPaginated[T any](items []T, count int, page Page) Paginated[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if count > 0 {
		totalPages = (count + page.Limit - 1) / page.Limit
	}
	return Paginated[T]{
		Meta: Meta{
			Count:      count,
			Page:       page.Number,
			Limit:      page.Limit,
			TotalPages: totalPages,
		},
		Items: items,
	}
}
