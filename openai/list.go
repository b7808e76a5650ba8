package openai

import (
	"net/url"
	"strconv"
)

// ListResponse is a page of objects returned by list endpoints
type ListResponse[T any] struct {
	Object  string `json:"object"`
	Data    []T    `json:"data"`
	FirstID string `json:"first_id,omitempty"`
	LastID  string `json:"last_id,omitempty"`
	HasMore bool   `json:"has_more"`
}

// List sort orders
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ListSearchParameters are the cursor parameters accepted by list endpoints.
// Zero fields are left to the server default.
type ListSearchParameters struct {
	Limit  int
	Order  string
	After  string
	Before string
}

// Values encodes the parameters as a query string
func (p ListSearchParameters) Values() url.Values {
	v := url.Values{}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Order != "" {
		v.Set("order", p.Order)
	}
	if p.After != "" {
		v.Set("after", p.After)
	}
	if p.Before != "" {
		v.Set("before", p.Before)
	}
	return v
}

// DeleteResult is returned by delete endpoints
type DeleteResult struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}
