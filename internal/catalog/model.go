package catalog

import (
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is the public product payload.
type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	Images         []string        `json:"images"`
	CategoryID     string          `json:"categoryId"`
	CategoryName   string          `json:"categoryName"`
	Stock          int             `json:"stock"`
	OutOfStock     bool            `json:"outOfStock"`
	Specifications []string        `json:"specifications"`
	Materials      string          `json:"materials"`
	Occasion       string          `json:"occasion"`
	Rating         decimal.Decimal `json:"rating"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Category is the public category payload.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SortDefault is the sort value meaning newest first.
const SortDefault = "default"

// ListParams captures filters for product listing. MinPrice and MaxPrice are
// normalised decimal strings; Sort is empty for newest first.
type ListParams struct {
	Category string
	Search   string
	MinPrice string
	MaxPrice string
	Sort     string
	Page     int
	Limit    int
}

// cacheFilter encodes every filter that changes the result set, in a stable
// order, for use in cache keys.
func (p ListParams) cacheFilter() string {
	v := url.Values{}
	for _, kv := range [][2]string{
		{"category", p.Category},
		{"q", strings.ToLower(p.Search)},
		{"minPrice", p.MinPrice},
		{"maxPrice", p.MaxPrice},
		{"sort", p.Sort},
	} {
		if kv[1] != "" {
			v.Set(kv[0], kv[1])
		}
	}
	return v.Encode()
}

// ProductPage is one page of products plus the total match count.
type ProductPage struct {
	Items []Product `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

// ProductInput is the admin create/update payload.
type ProductInput struct {
	Name           string   `json:"name" validate:"required"`
	Price          string   `json:"price" validate:"required"`
	Description    string   `json:"description"`
	CategoryID     string   `json:"categoryId" validate:"required,uuid"`
	Stock          int      `json:"stock" validate:"gte=0"`
	OutOfStock     bool     `json:"outOfStock"`
	Specifications []string `json:"specifications"`
	Materials      string   `json:"materials"`
	Occasion       string   `json:"occasion"`
}

// CategoryInput is the admin category payload.
type CategoryInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}
