package viewmodel

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination_MiddlePage(t *testing.T) {
	q := url.Values{"role": {"admin"}, "page": {"2"}, "notice": {"User disabled"}}
	p := NewPagination("/admin/users", q, PageInput{Page: 2, PageSize: 50, TotalPages: 3, TotalCount: 120, Shown: 50})

	assert.Equal(t, 51, p.StartIndex)
	assert.Equal(t, 100, p.EndIndex)
	assert.True(t, p.HasPrev)
	assert.True(t, p.HasNext)
	assert.Equal(t, "/admin/users?page=1&role=admin", p.PrevURL)
	assert.Equal(t, "/admin/users?page=3&role=admin", p.NextURL)

	// The caller's values are untouched.
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "User disabled", q.Get("notice"))
}

func TestNewPagination_Edges(t *testing.T) {
	last := NewPagination("/admin/users", nil, PageInput{Page: 3, PageSize: 50, TotalPages: 3, TotalCount: 120, Shown: 20})
	assert.Equal(t, 101, last.StartIndex)
	assert.Equal(t, 120, last.EndIndex)
	assert.False(t, last.HasNext)
	assert.Empty(t, last.NextURL)

	empty := NewPagination("/admin/users", nil, PageInput{Page: 1, PageSize: 50, TotalPages: 0})
	assert.Zero(t, empty.StartIndex)
	assert.Zero(t, empty.EndIndex)
	assert.False(t, empty.HasPrev)
	assert.False(t, empty.HasNext)
}

func TestLayoutData(t *testing.T) {
	page := struct{ Layout }{Layout: Layout{Title: "Users"}}
	var lp LayoutProvider = &page.Layout
	assert.Equal(t, "Users", lp.LayoutData().Title)
}
