package utils

import (
	"net/url"
	"strconv"

	"github.com/yukikurage/taskboard-api/internal/constants"
)

// Page selects one window of an ordered listing. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

// FirstPage is the window used when a listing request carries no paging.
var FirstPage = Page{Number: 1, Size: constants.DefaultPageSize}

// ParsePage reads the page and limit query parameters. Unparseable or out of
// range values fall back to FirstPage's.
func ParsePage(query url.Values) Page {
	p := FirstPage
	if n, err := strconv.Atoi(query.Get("page")); err == nil && n >= 1 {
		p.Number = n
	}
	if n, err := strconv.Atoi(query.Get("limit")); err == nil && n >= constants.MinPageSize && n <= constants.MaxPageSize {
		p.Size = n
	}
	return p
}

// Normalize clamps a page built from untrusted input into a valid window.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < constants.MinPageSize || p.Size > constants.MaxPageSize {
		p.Size = constants.DefaultPageSize
	}
	return p
}

// Offset is the number of rows before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Count returns how many pages of this size hold total rows.
func (p Page) Count(total int64) int {
	if p.Size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}
