package financials

import (
	"net/url"
	"strconv"
)

const DefaultPageSize = 10

// Filter narrows a ledger listing. Zero values are left out of the query.
type Filter struct {
	Page   int
	Size   int
	Month  string
	Year   int
	Search string
	// EntityID filters player deposits by player and member deposits by
	// member. Other ledgers ignore it.
	EntityID int
}

func (f Filter) values(entityParam string) url.Values {
	q := url.Values{}
	page, size := f.Page, f.Size
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	if f.Month != "" {
		q.Set("month", f.Month)
	}
	if f.Year > 0 {
		q.Set("year", strconv.Itoa(f.Year))
	}
	if entityParam != "" && f.EntityID > 0 {
		q.Set(entityParam, strconv.Itoa(f.EntityID))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	return q
}
