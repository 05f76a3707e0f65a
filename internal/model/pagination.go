package model

// PaginationMetadata describes one page of a list query.
// It is derived per request and never stored.
type PaginationMetadata struct {
	TotalItemCount int `json:"totalItemCount"`
	TotalPageCount int `json:"totalPageCount"`
	PageSize       int `json:"pageSize"`
	CurrentPage    int `json:"currentPage"`
}

// NewPaginationMetadata computes the page count as ceil(totalItemCount / pageSize).
// A non-positive pageSize yields zero pages.
func NewPaginationMetadata(totalItemCount, pageSize, currentPage int) PaginationMetadata {
	pages := 0
	if pageSize > 0 {
		pages = (totalItemCount + pageSize - 1) / pageSize
	}
	return PaginationMetadata{
		TotalItemCount: totalItemCount,
		TotalPageCount: pages,
		PageSize:       pageSize,
		CurrentPage:    currentPage,
	}
}
