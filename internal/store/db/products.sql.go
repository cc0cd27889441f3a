package db

import (
	"context"
)

const countAvailable = `-- name: CountAvailable :one
SELECT count(*) FROM products
WHERE available = true
`

func (q *Queries) CountAvailable(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countAvailable)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const create = `-- name: Create :one
INSERT INTO products (name, price)
VALUES ($1, $2)
RETURNING id, name, price, available, created_at, updated_at
`

type CreateParams struct {
	Name  string
	Price float64
}

func (q *Queries) Create(ctx context.Context, arg CreateParams) (Product, error) {
	row := q.db.QueryRow(ctx, create, arg.Name, arg.Price)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Price,
		&i.Available,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteByID = `-- name: DeleteByID :one
DELETE FROM products
WHERE id = $1
RETURNING id, name, price, available, created_at, updated_at
`

func (q *Queries) DeleteByID(ctx context.Context, id int64) (Product, error) {
	row := q.db.QueryRow(ctx, deleteByID, id)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Price,
		&i.Available,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findAvailable = `-- name: FindAvailable :many
SELECT id, name, price, available, created_at, updated_at FROM products
WHERE available = true
ORDER BY id
LIMIT $1 OFFSET $2
`

type FindAvailableParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) FindAvailable(ctx context.Context, arg FindAvailableParams) ([]Product, error) {
	rows, err := q.db.Query(ctx, findAvailable, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Product{}
	for rows.Next() {
		var i Product
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Price,
			&i.Available,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const findAvailableByID = `-- name: FindAvailableByID :one
SELECT id, name, price, available, created_at, updated_at FROM products
WHERE id = $1 AND available = true
`

func (q *Queries) FindAvailableByID(ctx context.Context, id int64) (Product, error) {
	row := q.db.QueryRow(ctx, findAvailableByID, id)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Price,
		&i.Available,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findByIDs = `-- name: FindByIDs :many
SELECT id, name, price, available, created_at, updated_at FROM products
WHERE id = ANY($1::bigint[])
ORDER BY id
`

func (q *Queries) FindByIDs(ctx context.Context, ids []int64) ([]Product, error) {
	rows, err := q.db.Query(ctx, findByIDs, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Product{}
	for rows.Next() {
		var i Product
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Price,
			&i.Available,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markUnavailable = `-- name: MarkUnavailable :one
UPDATE products
SET available = false, updated_at = now()
WHERE id = $1
RETURNING id, name, price, available, created_at, updated_at
`

func (q *Queries) MarkUnavailable(ctx context.Context, id int64) (Product, error) {
	row := q.db.QueryRow(ctx, markUnavailable, id)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Price,
		&i.Available,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const update = `-- name: Update :one
UPDATE products
SET name       = COALESCE($2, name),
    price      = COALESCE($3, price),
    updated_at = now()
WHERE id = $1 AND available = true
RETURNING id, name, price, available, created_at, updated_at
`

type UpdateParams struct {
	ID    int64
	Name  *string
	Price *float64
}

func (q *Queries) Update(ctx context.Context, arg UpdateParams) (Product, error) {
	row := q.db.QueryRow(ctx, update, arg.ID, arg.Name, arg.Price)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Price,
		&i.Available,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
