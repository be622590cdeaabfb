package service

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePage clamps the requested page/size and returns the offset to
// query with. Pages are zero-based.
func normalizePage(page, size int) (offset, limit, normPage, normSize int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page * size, size, page, size
}

func totalPages(total int64, size int) int {
	if size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
