package db

import (
	"context"
	"strings"
)

const productColumns = `p.id::text, p.name, p.description, p.price::text, p.images,
	p.category_id::text, c.name, p.stock, p.out_of_stock, p.specifications,
	p.materials, p.occasion, p.rating::text, p.created_at, p.updated_at`

const productFrom = ` FROM products p JOIN categories c ON c.id = p.category_id`

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Images,
		&p.CategoryID, &p.CategoryName, &p.Stock, &p.OutOfStock, &p.Specifications,
		&p.Materials, &p.Occasion, &p.Rating, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ProductFilter narrows a product listing. Empty fields do not filter.
// Search matches name or description case-insensitively; the price bounds are
// inclusive decimal strings.
type ProductFilter struct {
	CategoryID string
	Search     string
	MinPrice   string
	MaxPrice   string
}

// Sort orders accepted by ListProducts. Anything else lists newest first.
const (
	SortNewest    = ""
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortName      = "name"
	SortRating    = "rating"
)

var productOrder = map[string]string{
	SortNewest:    "p.created_at DESC, p.id",
	SortPriceLow:  "p.price ASC, p.created_at DESC, p.id",
	SortPriceHigh: "p.price DESC, p.created_at DESC, p.id",
	SortName:      "lower(p.name), p.id",
	SortRating:    "p.rating DESC NULLS LAST, p.created_at DESC, p.id",
}

const productWhere = `
		WHERE ($1 = '' OR p.category_id = NULLIF($1, '')::uuid)
		AND ($2 = '' OR p.name ILIKE $2 OR p.description ILIKE $2)
		AND ($3 = '' OR p.price >= NULLIF($3, '')::numeric)
		AND ($4 = '' OR p.price <= NULLIF($4, '')::numeric)`

func (f ProductFilter) args() []any {
	return []any{f.CategoryID, containsPattern(f.Search), f.MinPrice, f.MaxPrice}
}

// containsPattern turns s into an ILIKE pattern matching it anywhere, with
// wildcards in s taken literally.
func containsPattern(s string) string {
	if s == "" {
		return ""
	}
	return "%" + strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s) + "%"
}

type ListProductsParams struct {
	ProductFilter
	Sort   string
	Limit  int32
	Offset int32
}

func (q *Queries) ListProducts(ctx context.Context, arg ListProductsParams) ([]Product, error) {
	order, ok := productOrder[arg.Sort]
	if !ok {
		order = productOrder[SortNewest]
	}
	args := append(arg.args(), arg.Limit, arg.Offset)
	rows, err := q.db.Query(ctx, `SELECT `+productColumns+productFrom+productWhere+`
		ORDER BY `+order+`
		LIMIT $5 OFFSET $6`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (q *Queries) CountProducts(ctx context.Context, filter ProductFilter) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM products p`+productWhere, filter.args()...).Scan(&n)
	return n, err
}

func (q *Queries) GetProduct(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(q.db.QueryRow(ctx, `SELECT `+productColumns+productFrom+` WHERE p.id = $1::uuid`, id))
	return p, notFound(err)
}

type UpsertProductParams struct {
	ID             string
	Name           string
	Description    string
	Price          string
	Images         []string
	CategoryID     string
	Stock          int32
	OutOfStock     bool
	Specifications []string
	Materials      string
	Occasion       string
}

func (q *Queries) CreateProduct(ctx context.Context, arg UpsertProductParams) (string, error) {
	var id string
	err := q.db.QueryRow(ctx, `INSERT INTO products
		(name, description, price, images, category_id, stock, out_of_stock, specifications, materials, occasion)
		VALUES ($1, $2, $3::numeric, $4, $5::uuid, $6, $7, $8, $9, $10)
		RETURNING id::text`,
		arg.Name, arg.Description, arg.Price, arg.Images, arg.CategoryID,
		arg.Stock, arg.OutOfStock, arg.Specifications, arg.Materials, arg.Occasion).Scan(&id)
	return id, err
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpsertProductParams) error {
	tag, err := q.db.Exec(ctx, `UPDATE products SET
		name = $2, description = $3, price = $4::numeric, images = $5, category_id = $6::uuid,
		stock = $7, out_of_stock = $8, specifications = $9, materials = $10, occasion = $11,
		updated_at = now()
		WHERE id = $1::uuid`,
		arg.ID, arg.Name, arg.Description, arg.Price, arg.Images, arg.CategoryID,
		arg.Stock, arg.OutOfStock, arg.Specifications, arg.Materials, arg.Occasion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *Queries) DeleteProduct(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM products WHERE id = $1::uuid`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleProductStock flips out_of_stock and returns the new value.
func (q *Queries) ToggleProductStock(ctx context.Context, id string) (bool, error) {
	var out bool
	err := q.db.QueryRow(ctx, `UPDATE products SET out_of_stock = NOT out_of_stock, updated_at = now()
		WHERE id = $1::uuid RETURNING out_of_stock`, id).Scan(&out)
	return out, notFound(err)
}
