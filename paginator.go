package presskit

// Paginator holds pagination metadata for one page of a query: the total
// number of pages, the current, next, and previous pages, the page size, and
// whether more pages exist in either direction.
type Paginator struct {
	TotalPages  int
	CurrentPage int
	NextPage    int
	PrevPage    int
	PageSize    int
	TotalPosts  int
	HasNext     bool
	HasPrev     bool
	Visible     bool // True by default, but can be set to false in the view. E.g. on the home page.
}

// NewPaginator returns a Paginator for the given total match count, current
// page, and page size.
func NewPaginator(total, currentPage, pageSize int) Paginator {
	if pageSize < 1 {
		pageSize = 1
	}

	if currentPage < 1 {
		currentPage = 1
	}

	totalPages := (total + pageSize - 1) / pageSize
	nextPage := currentPage + 1
	prevPage := currentPage - 1
	hasNext := currentPage < totalPages
	hasPrev := currentPage > 1

	if nextPage > totalPages {
		nextPage = totalPages
	}

	if prevPage < 1 {
		prevPage = 1
	}

	return Paginator{
		TotalPages:  totalPages,
		CurrentPage: currentPage,
		NextPage:    nextPage,
		PrevPage:    prevPage,
		PageSize:    pageSize,
		TotalPosts:  total,
		HasNext:     hasNext,
		HasPrev:     hasPrev,
		Visible:     true,
	}
}
