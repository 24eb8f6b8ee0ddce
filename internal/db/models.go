package db

import "time"

type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Product prices travel as decimal strings to keep NUMERIC exact.
type Product struct {
	ID             string
	Name           string
	Description    string
	Price          string
	Images         []string
	CategoryID     string
	CategoryName   string
	Stock          int32
	OutOfStock     bool
	Specifications []string
	Materials      string
	Occasion       string
	Rating         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Settings struct {
	DeliveryCharges     string
	FreeDeliveryMinimum string
	ContactPhone        string
	ContactEmail        string
	SiteTitle           string
	SiteDescription     string
	UpdatedAt           time.Time
}

type Order struct {
	ID              string
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	CustomerAddress string
	OrderItems      []byte
	Subtotal        int64
	DeliveryCharges int64
	TotalAmount     int64
	Message         string
	CreatedAt       time.Time
}
