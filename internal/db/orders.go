package db

import (
	"context"
	"time"
)

type CreateOrderParams struct {
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	CustomerAddress string
	OrderItems      []byte
	Subtotal        int64
	DeliveryCharges int64
	TotalAmount     int64
	Message         string
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (string, time.Time, error) {
	var (
		id      string
		created time.Time
	)
	err := q.db.QueryRow(ctx, `INSERT INTO orders
		(customer_name, customer_phone, customer_email, customer_address, order_items,
		 subtotal, delivery_charges, total_amount, message)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9)
		RETURNING id::text, created_at`,
		arg.CustomerName, arg.CustomerPhone, arg.CustomerEmail, arg.CustomerAddress,
		string(arg.OrderItems), arg.Subtotal, arg.DeliveryCharges, arg.TotalAmount, arg.Message).
		Scan(&id, &created)
	return id, created, err
}

func (q *Queries) ListOrders(ctx context.Context, limit, offset int32) ([]Order, error) {
	rows, err := q.db.Query(ctx, `SELECT id::text, customer_name, customer_phone, customer_email,
		customer_address, order_items::text, subtotal, delivery_charges, total_amount, message, created_at
		FROM orders ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		var o Order
		var items string
		if err := rows.Scan(&o.ID, &o.CustomerName, &o.CustomerPhone, &o.CustomerEmail,
			&o.CustomerAddress, &items, &o.Subtotal, &o.DeliveryCharges, &o.TotalAmount,
			&o.Message, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.OrderItems = []byte(items)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (q *Queries) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&n)
	return n, err
}

func (q *Queries) GetOrder(ctx context.Context, id string) (Order, error) {
	var o Order
	var items string
	err := q.db.QueryRow(ctx, `SELECT id::text, customer_name, customer_phone, customer_email,
		customer_address, order_items::text, subtotal, delivery_charges, total_amount, message, created_at
		FROM orders WHERE id = $1::uuid`, id).
		Scan(&o.ID, &o.CustomerName, &o.CustomerPhone, &o.CustomerEmail,
			&o.CustomerAddress, &items, &o.Subtotal, &o.DeliveryCharges, &o.TotalAmount,
			&o.Message, &o.CreatedAt)
	if err != nil {
		return Order{}, notFound(err)
	}
	o.OrderItems = []byte(items)
	return o, nil
}
