package octopus

import (
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// SortOrder is the ordering of consumption results.
type SortOrder string

const (
	OldestFirst SortOrder = "period"
	NewestFirst SortOrder = "-period"
)

// ParseSortOrder parses the API representation of a sort order.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(s); o {
	case OldestFirst, NewestFirst:
		return o, nil
	}
	return "", errors.Wrapf(ErrInvalidField, "sort order %q", s)
}

// Aggregate is the bucket size consumption is grouped by.
type Aggregate string

const (
	Hour    Aggregate = "hour"
	Day     Aggregate = "day"
	Week    Aggregate = "week"
	Month   Aggregate = "month"
	Quarter Aggregate = "quarter"
)

// ParseAggregate parses the API representation of an aggregate.
func ParseAggregate(s string) (Aggregate, error) {
	switch a := Aggregate(s); a {
	case Hour, Day, Week, Month, Quarter:
		return a, nil
	}
	return "", errors.Wrapf(ErrInvalidField, "aggregate %q", s)
}

const (
	paramPeriodFrom = "period_from"
	paramPeriodTo   = "period_to"
	paramOrder      = "order"
	paramGroupBy    = "group_by"
)

// PageReference identifies a page of results so it can be requested again.
//
// Recognised parameters are decoded into typed fields; all other parameters,
// page and page_size included, are kept verbatim in Params.
type PageReference struct {
	PeriodFrom *time.Time
	PeriodTo   *time.Time
	Order      SortOrder
	Aggregate  Aggregate
	Params     url.Values
}

// Query returns the query parameters that request the referenced page.
func (p *PageReference) Query() url.Values {
	q := url.Values{}
	for k, v := range p.Params {
		q[k] = append([]string(nil), v...)
	}
	if p.PeriodFrom != nil {
		q.Set(paramPeriodFrom, FormatTimestamp(*p.PeriodFrom))
	}
	if p.PeriodTo != nil {
		q.Set(paramPeriodTo, FormatTimestamp(*p.PeriodTo))
	}
	if p.Order != "" {
		q.Set(paramOrder, string(p.Order))
	}
	if p.Aggregate != "" {
		q.Set(paramGroupBy, string(p.Aggregate))
	}
	return q
}

// pageReferenceFromURL builds a PageReference from the query string of a
// next/previous link. It returns nil when there is no link or the link has
// no query parameters.
func pageReferenceFromURL(link *string) (*PageReference, error) {
	if link == nil || *link == "" {
		return nil, nil
	}
	u, err := url.Parse(*link)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidField, "page link %q: %v", *link, err)
	}
	values := u.Query()
	if len(values) == 0 {
		return nil, nil
	}

	ref := &PageReference{Params: url.Values{}}
	for k, v := range values {
		switch k {
		case paramPeriodFrom:
			if ref.PeriodFrom, err = parseOptionalTimestamp(&v[0]); err != nil {
				return nil, err
			}
		case paramPeriodTo:
			if ref.PeriodTo, err = parseOptionalTimestamp(&v[0]); err != nil {
				return nil, err
			}
		case paramOrder:
			if ref.Order, err = ParseSortOrder(v[0]); err != nil {
				return nil, err
			}
		case paramGroupBy:
			if ref.Aggregate, err = ParseAggregate(v[0]); err != nil {
				return nil, err
			}
		default:
			ref.Params[k] = v
		}
	}
	return ref, nil
}
