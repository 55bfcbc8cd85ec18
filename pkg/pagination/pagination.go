// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination turns ?page=&limit= into LIMIT/OFFSET arguments and
// builds the meta block of list responses.
//
// Pages are 1-indexed. Values that are missing, malformed or out of range
// fall back to the defaults instead of failing the request.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a clamped page request.
type Params struct {
	Page  int
	Limit int
}

// Meta is the pagination block of a list response.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// FromRequest reads "page" and "limit" from the query string.
func FromRequest(r *http.Request) Params {
	query := r.URL.Query()
	return Params{
		Page:  atoiOr(query.Get("page"), DefaultPage),
		Limit: atoiOr(query.Get("limit"), DefaultLimit),
	}.Clamp()
}

// Clamp replaces out-of-range values with the defaults. Services clamp again
// so that direct callers get the same bounds as HTTP callers.
func (p Params) Clamp() Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		p.Limit = DefaultLimit
	}
	return p
}

// Offset is the SQL OFFSET of the page.
func (p Params) Offset() int {
	return max(p.Page-1, 0) * p.Limit
}

// Meta describes this page of a result set holding total rows.
func (p Params) Meta(total int) Meta {
	return NewMeta(p.Page, p.Limit, total)
}

// NewMeta builds a [Meta], rounding the page count up.
func NewMeta(page, limit, total int) Meta {
	meta := Meta{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		meta.TotalPages = (total + limit - 1) / limit
	}
	return meta
}

func atoiOr(raw string, fallback int) int {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return fallback
}
