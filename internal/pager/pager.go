package pager

import (
	"context"

	"go-itam/internal/common/errs"
	"go-itam/internal/common/models"
	"go-itam/internal/query"
)

const (
	DefaultPerPage    = 25
	DefaultMaxPerPage = 100
)

type Params struct {
	Page       int
	PerPage    int
	MaxPerPage int
	// MaxTotal rejects result sets larger than this before any row is read.
	// Zero disables the ceiling.
	MaxTotal int64
}

// Normalize clamps page to >= 1 and per_page to [1, MaxPerPage].
func (p Params) Normalize() Params {
	if p.MaxPerPage <= 0 {
		p.MaxPerPage = DefaultMaxPerPage
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > p.MaxPerPage {
		p.PerPage = p.MaxPerPage
	}
	return p
}

type Page struct {
	Rows []map[string]any
	models.PageMeta
}

// Paginate counts the matching rows once and fetches at most one page of
// them. A page beyond the last one yields no rows without touching the source.
func Paginate(ctx context.Context, src query.DataSource, q query.Query, params Params) (Page, error) {
	params = params.Normalize()

	total, err := src.Count(ctx, q)
	if err != nil {
		return Page{}, err
	}
	if params.MaxTotal > 0 && total > params.MaxTotal {
		return Page{}, errs.TooManyResultsError{Count: total, Limit: params.MaxTotal}
	}

	meta := Meta(total, params.Page, params.PerPage, 0)
	page := Page{Rows: []map[string]any{}, PageMeta: meta}
	if params.Page > meta.LastPage || total == 0 {
		return page, nil
	}

	offset := (params.Page - 1) * params.PerPage
	rows, err := src.Fetch(ctx, q, offset, params.PerPage)
	if err != nil {
		return Page{}, err
	}
	if rows != nil {
		page.Rows = rows
	}
	page.PageMeta = Meta(total, params.Page, params.PerPage, len(rows))
	return page, nil
}

// Meta derives pagination metadata for a slice of n rows.
func Meta(total int64, page, perPage, n int) models.PageMeta {
	last := int((total + int64(perPage) - 1) / int64(perPage))
	if last < 1 {
		last = 1
	}

	meta := models.PageMeta{
		Total:       total,
		PerPage:     perPage,
		CurrentPage: page,
		LastPage:    last,
	}
	if n > 0 {
		from := int64(page-1)*int64(perPage) + 1
		to := from + int64(n) - 1
		meta.From = &from
		meta.To = &to
	}
	return meta
}
