// Package news pages the scored headline list.
package news

import "PriceBoard/internal/domain/models"

const (
	// DefaultPerPage is how many headlines one page shows.
	DefaultPerPage = 5
	// MaxButtons caps the page buttons shown at once.
	MaxButtons = 5
)

// Page is one page of headlines with its pagination controls.
type Page struct {
	Items       []models.NewsItem `json:"items"`
	Page        int               `json:"page"`
	PerPage     int               `json:"per_page"`
	TotalPages  int               `json:"total_pages"`
	TotalItems  int               `json:"total_items"`
	PageNumbers []int             `json:"page_numbers"`
	HasPrev     bool              `json:"has_prev"`
	PrevPage    int               `json:"prev_page,omitempty"`
	HasNext     bool              `json:"has_next"`
	NextPage    int               `json:"next_page,omitempty"`
}

// TotalPages is ceil(n/perPage).
func TotalPages(n, perPage int) int {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return (n + perPage - 1) / perPage
}

// Paginate returns page (1-based, clamped into range) of items.
func Paginate(items []models.NewsItem, page, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	total := TotalPages(len(items), perPage)
	if page > total {
		page = total
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	out := make([]models.NewsItem, end-start)
	copy(out, items[start:end])

	p := Page{
		Items:       out,
		Page:        page,
		PerPage:     perPage,
		TotalPages:  total,
		TotalItems:  len(items),
		PageNumbers: PageNumbers(page, total),
	}
	if n := len(p.PageNumbers); n > 0 {
		if first := p.PageNumbers[0]; first > 1 {
			p.HasPrev, p.PrevPage = true, first-1
		}
		if last := p.PageNumbers[n-1]; last < total {
			p.HasNext, p.NextPage = true, last+1
		}
	}
	return p
}

// PageNumbers returns at most MaxButtons page numbers around current.
func PageNumbers(current, total int) []int {
	start := current - 2
	if start < 1 {
		start = 1
	}
	end := start + MaxButtons - 1
	if end > total {
		end = total
	}
	if end-start < MaxButtons-1 {
		start = end - MaxButtons + 1
		if start < 1 {
			start = 1
		}
	}
	pages := make([]int, 0, MaxButtons)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}
