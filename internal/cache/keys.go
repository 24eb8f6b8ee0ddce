package cache

import (
	"net/url"
	"strconv"
)

// Key prefixes shared by the API and worker processes.
const (
	prefixCart    = "cart:"
	prefixCatalog = "catalog:"
)

// KeyCart returns the key holding a session cart snapshot.
func KeyCart(session string) string {
	return prefixCart + "session:" + session
}

// KeyCartLock returns the lock key guarding a session cart.
func KeyCartLock(session string) string {
	return prefixCart + "lock:" + session
}

// KeyCatalogVersion returns the counter bumped whenever catalog data changes.
func KeyCatalogVersion() string {
	return prefixCatalog + "version"
}

// KeyProductList returns the key for a cached product page at a catalog
// version. filter is any stable encoding of the listing filters.
func KeyProductList(version int64, filter string, page, limit int) string {
	return prefixCatalog + "v" + strconv.FormatInt(version, 10) +
		":products:" + url.QueryEscape(filter) +
		":" + strconv.Itoa(page) + ":" + strconv.Itoa(limit)
}

// KeyProduct returns the key for a cached product at a catalog version.
func KeyProduct(version int64, id string) string {
	return prefixCatalog + "v" + strconv.FormatInt(version, 10) + ":product:" + id
}

// KeyCategories returns the key for the cached category list at a catalog version.
func KeyCategories(version int64) string {
	return prefixCatalog + "v" + strconv.FormatInt(version, 10) + ":categories"
}
