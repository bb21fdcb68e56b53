package pagination

// MaxPageSize bounds PageSize for offset pagination.
const MaxPageSize = 100

// Params selects one page of an ordered result set. Page is 1-based.
type Params struct {
	Page     int `json:"page" validate:"min=1"`
	PageSize int `json:"page_size" validate:"min=1,max=100"`
}

// Page is one window of results.
type Page[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    int  `json:"total"`
	HasMore  bool `json:"has_more"`
}

// Slice cuts the requested window out of an already-ordered slice.
// A page past the end yields an empty, non-nil Items.
func Slice[T any](all []T, p Params) Page[T] {
	out := Page[T]{Items: []T{}, Page: p.Page, PageSize: p.PageSize, Total: len(all)}
	if p.Page < 1 || p.PageSize < 1 {
		return out
	}
	// compare page indexes so huge Page values cannot overflow the offset
	pages := (len(all) + p.PageSize - 1) / p.PageSize
	if p.Page-1 >= pages {
		return out
	}
	start := (p.Page - 1) * p.PageSize
	end := start + p.PageSize
	if end > len(all) {
		end = len(all)
	}
	out.Items = append(out.Items, all[start:end]...)
	out.HasMore = end < len(all)
	return out
}
