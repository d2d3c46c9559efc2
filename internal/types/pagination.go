package types

// Pagination is the envelope metadata returned with every catalog list
// response. HasMore reflects offset+limit against the store-level total, which
// may overcount relative to the visibly filtered set when post-fetch filters
// are applied.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// NewPagination builds pagination metadata from a store-level total.
func NewPagination(total, limit, offset int) Pagination {
	return Pagination{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	}
}
