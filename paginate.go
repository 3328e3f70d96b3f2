package gofeed

import "github.com/aloks98/gofeed/store"

// PageWindow returns the store window for a 1-based page. Pages below 1 are treated as 1.
func PageWindow(page, perPage int) store.Window {
	if page < 1 {
		page = 1
	}
	return store.Window{Offset: (page - 1) * perPage, Limit: perPage}
}
