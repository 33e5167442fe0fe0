package shared

// Pagination holds normalised paging parameters for a listing.
type Pagination struct {
	Page    int
	PerPage int
}

// NewPagination clamps page to at least 1 and perPage into (0, maxPerPage].
// A non-positive perPage falls back to defaultPerPage.
func NewPagination(page, perPage, defaultPerPage, maxPerPage int) Pagination {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}
	if page <= 0 {
		page = 1
	}
	return Pagination{Page: page, PerPage: perPage}
}

// Offset returns the number of rows preceding the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}
