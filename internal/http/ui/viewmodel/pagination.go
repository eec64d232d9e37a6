package viewmodel

import (
	"net/url"
	"strconv"
)

// Pagination contains pagination metadata for list views.
type Pagination struct {
	Page       int
	PageSize   int
	TotalPages int
	TotalCount int
	StartIndex int
	EndIndex   int
	HasPrev    bool
	HasNext    bool
	PrevURL    string
	NextURL    string
}

// PageInput describes one page of a list for NewPagination.
type PageInput struct {
	Page       int
	PageSize   int
	TotalPages int
	TotalCount int
	Shown      int
}

// NewPagination builds pagination links for basePath, keeping the filters in query
// and replacing page.
func NewPagination(basePath string, query url.Values, in PageInput) Pagination {
	p := Pagination{
		Page:       in.Page,
		PageSize:   in.PageSize,
		TotalPages: in.TotalPages,
		TotalCount: in.TotalCount,
		HasPrev:    in.Page > 1,
		HasNext:    in.Page < in.TotalPages,
	}
	if in.Shown > 0 {
		p.StartIndex = (in.Page-1)*in.PageSize + 1
		p.EndIndex = p.StartIndex + in.Shown - 1
	}
	if p.HasPrev {
		p.PrevURL = pageURL(basePath, query, in.Page-1)
	}
	if p.HasNext {
		p.NextURL = pageURL(basePath, query, in.Page+1)
	}
	return p
}

func pageURL(basePath string, query url.Values, page int) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = append([]string(nil), v...)
	}
	q.Set("page", strconv.Itoa(page))
	q.Del("notice")
	q.Del("error")
	return basePath + "?" + q.Encode()
}
