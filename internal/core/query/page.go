package query

import "math"

// Page is a 1-based page request with a bounded limit.
type Page struct {
	Number int
	Limit  int
}

// NewPage clamps number and limit. Values below 1 fall back to page 1 and
// defaultLimit; limits above maxLimit are capped. Page numbers whose offset
// would overflow an int are capped to the last representable page.
func NewPage(number, limit, defaultLimit, maxLimit int) Page {
	if number < 1 {
		number = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	if limit < 1 {
		limit = 1
	}
	if last := math.MaxInt / limit; number > last {
		number = last
	}
	return Page{Number: number, Limit: limit}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// TotalPages returns ceil(total/limit).
func (p Page) TotalPages(total int64) int {
	if p.Limit <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}
