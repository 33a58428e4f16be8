// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Filter is an equality filter on a single column.
type Filter struct {
	Column string
	Value  any
}

// Order is a single ordering term.
type Order struct {
	Column    string
	Ascending bool
}

// Query is a read-only select against one table.
type Query struct {
	Table   string
	Filters []Filter
	Orders  []Order
	Limit   int // 0 = no limit
	Offset  int
}

// From starts a query on table.
func From(table string) Query {
	return Query{Table: table}
}

// Eq adds an equality filter. A nil value matches SQL NULL.
func (q Query) Eq(column string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Column: column, Value: value})
	return q
}

// OrderBy adds an ordering term.
func (q Query) OrderBy(column string, ascending bool) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Column: column, Ascending: ascending})
	return q
}

// WithLimit bounds the number of returned rows.
func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

// WithOffset skips the first n rows, for paging.
func (q Query) WithOffset(n int) Query {
	q.Offset = n
	return q
}

// Validate rejects queries the content service cannot express.
func (q Query) Validate() error {
	if q.Table == "" {
		return &QueryError{Message: "missing table"}
	}
	if q.Limit < 0 {
		return &QueryError{Table: q.Table, Message: "negative limit"}
	}
	if q.Offset < 0 {
		return &QueryError{Table: q.Table, Message: "negative offset"}
	}
	for _, f := range q.Filters {
		if f.Column == "" {
			return &QueryError{Table: q.Table, Message: "filter without column"}
		}
	}
	for _, o := range q.Orders {
		if o.Column == "" {
			return &QueryError{Table: q.Table, Message: "order without column"}
		}
	}
	return nil
}

// Values encodes the query as REST query parameters
// (select=*&col=eq.v&order=col.asc&limit=n&offset=m). Nil filter values
// are encoded as col=is.null.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("select", "*")
	for _, f := range q.Filters {
		if f.Value == nil {
			v.Add(f.Column, "is.null")
			continue
		}
		v.Add(f.Column, "eq."+FormatValue(f.Value))
	}
	if len(q.Orders) > 0 {
		terms := make([]string, 0, len(q.Orders))
		for _, o := range q.Orders {
			dir := "desc"
			if o.Ascending {
				dir = "asc"
			}
			terms = append(terms, o.Column+"."+dir)
		}
		v.Set("order", strings.Join(terms, ","))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

// String returns the encoded query, used in logs.
func (q Query) String() string {
	return q.Table + "?" + q.Values().Encode()
}

// FormatValue renders a filter value the way the REST interface expects it.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
