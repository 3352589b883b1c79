package model

import (
	"net/url"
	"sort"
	"strconv"
)

// Pagination keys shared by the search wire format and raw criteria maps.
const (
	PageKey    = "page"
	PerPageKey = "per_page"
)

// FilterQuery is a normalized search request. Criteria never contains an
// empty value and always has at least one entry.
type FilterQuery struct {
	Criteria map[string]string `json:"criteria"`
	Page     int               `json:"page"`
	PerPage  int               `json:"per_page"`
}

// Keys returns the criteria keys in sorted order.
func (q FilterQuery) Keys() []string {
	keys := make([]string, 0, len(q.Criteria))
	for k := range q.Criteria {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values encodes the query the way the backend search endpoint expects it.
func (q FilterQuery) Values() url.Values {
	v := url.Values{}
	for k, val := range q.Criteria {
		v.Set(k, val)
	}
	v.Set(PageKey, strconv.Itoa(q.Page))
	v.Set(PerPageKey, strconv.Itoa(q.PerPage))
	return v
}
