package repository

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pageBounds normalises page and size and returns the row offset.
func pageBounds(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size, (page - 1) * size
}
