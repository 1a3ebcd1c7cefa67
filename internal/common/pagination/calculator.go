package pagination

// Offset returns the row offset of a 1-based page.
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// TotalPages returns the number of pages for total items, at least 1.
func TotalPages(total int64, limit int) int {
	if total == 0 || limit <= 0 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
