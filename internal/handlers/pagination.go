package handlers

// PageSize is the number of rows per page on every list screen.
const PageSize = 10

type Page[T any] struct {
	Data       []T `json:"data"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// paginate slices rows for the requested page. The page is clamped to
// [1, totalPages] and an empty list still has one page.
func paginate[T any](rows []T, page int) Page[T] {
	total := len(rows)
	totalPages := (total + PageSize - 1) / PageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * PageSize
	end := start + PageSize
	if end > total {
		end = total
	}

	data := make([]T, 0, end-start)
	data = append(data, rows[start:end]...)

	return Page[T]{
		Data:       data,
		Page:       page,
		PageSize:   PageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
