package models

// Paginator is the metadata envelope accompanying every list response.
type Paginator struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewPaginator normalises page/size before building the envelope.
func NewPaginator(page, size, total int) *Paginator {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return &Paginator{Total: total, Page: page, PageSize: size}
}
