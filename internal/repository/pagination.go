package repository

// Page is a limit/offset window passed to List.
type Page struct {
	Limit  int
	Offset int
}

// PageResult carries one window of items plus the size of the whole collection.
type PageResult[T any] struct {
	Items []T
	Total int
}
