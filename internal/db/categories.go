package db

import "context"

const categoryColumns = `id::text, name, description, created_at, updated_at`

func scanCategory(row interface{ Scan(...any) error }) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (q *Queries) GetCategory(ctx context.Context, id string) (Category, error) {
	c, err := scanCategory(q.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1::uuid`, id))
	return c, notFound(err)
}

func (q *Queries) GetCategoryByName(ctx context.Context, name string) (Category, error) {
	c, err := scanCategory(q.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE lower(name) = lower($1)`, name))
	return c, notFound(err)
}

type CreateCategoryParams struct {
	Name        string
	Description string
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	return scanCategory(q.db.QueryRow(ctx,
		`INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING `+categoryColumns,
		arg.Name, arg.Description))
}

type UpdateCategoryParams struct {
	ID          string
	Name        string
	Description string
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	c, err := scanCategory(q.db.QueryRow(ctx,
		`UPDATE categories SET name = $2, description = $3, updated_at = now()
		 WHERE id = $1::uuid RETURNING `+categoryColumns,
		arg.ID, arg.Name, arg.Description))
	return c, notFound(err)
}

func (q *Queries) DeleteCategory(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM categories WHERE id = $1::uuid`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
