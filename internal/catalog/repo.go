package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
)

type Repo struct{ DB *pgxpool.Pool }

func scanProduct(row pgx.Row, p *Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Price, &p.OriginalPrice, &p.Image, &p.Images,
		&p.CategoryID, &p.Category, &p.Description, &p.Features, &p.Rating,
		&p.Reviews, &p.InStock, &p.CreatedAt, &p.UpdatedAt)
}

func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+`
		FROM products p JOIN categories c ON c.id = p.category_id
		ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProduct returns the product together with its approved reviews, newest
// first, the way the product page consumes it.
func (r *Repo) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+`
		FROM products p JOIN categories c ON c.id = p.category_id
		WHERE p.id=$1`, id), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT r.id, r.rating, r.comment, u.name, r.created_at
		FROM reviews r JOIN users u ON u.id = r.user_id
		WHERE r.product_id=$1 AND r.approved
		ORDER BY r.created_at DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rv ProductReview
		if err := rows.Scan(&rv.ID, &rv.Rating, &rv.Comment, &rv.UserName, &rv.CreatedAt); err != nil {
			return nil, err
		}
		p.ReviewsList = append(p.ReviewsList, rv)
	}
	return &p, rows.Err()
}

func (r *Repo) SearchProducts(ctx context.Context, params SearchParams) ([]Product, error) {
	q, args := buildSearchQuery(params)
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateProduct inserts a product. rating and reviews start at zero; only the
// aggregator writes them afterwards.
func (r *Repo) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO products(name, price, original_price, image, images, category_id, description, features, in_stock)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, rating, reviews, created_at, updated_at`,
		p.Name, p.Price, p.OriginalPrice, p.Image, p.Images, p.CategoryID, p.Description, p.Features, p.InStock,
	).Scan(&p.ID, &p.Rating, &p.Reviews, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	err = r.DB.QueryRow(ctx, `SELECT name FROM categories WHERE id=$1`, p.CategoryID).Scan(&p.Category)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return p, nil
}

func (r *Repo) UpdateProduct(ctx context.Context, p *Product) (*Product, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products SET name=$2, price=$3, original_price=$4, image=$5, images=$6,
			category_id=$7, description=$8, features=$9, in_stock=$10, updated_at=now()
		WHERE id=$1`,
		p.ID, p.Name, p.Price, p.OriginalPrice, p.Image, p.Images,
		p.CategoryID, p.Description, p.Features, p.InStock)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrProductNotFound
	}
	return r.GetProduct(ctx, p.ID)
}

// DeleteProduct removes the product and its reviews in one transaction.
func (r *Repo) DeleteProduct(ctx context.Context, id int64) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM reviews WHERE product_id=$1`, id); err != nil {
		return err
	}
	ct, err := tx.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return tx.Commit(ctx)
}

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT c.id, c.name, COUNT(p.id)
		FROM categories c LEFT JOIN products p ON p.category_id = c.id
		GROUP BY c.id, c.name
		ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) CreateCategory(ctx context.Context, name string) (*Category, error) {
	c := Category{Name: name}
	err := r.DB.QueryRow(ctx, `INSERT INTO categories(name) VALUES ($1) RETURNING id`, name).Scan(&c.ID)
	if isUniqueViolation(err) {
		return nil, ErrCategoryExists
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) UpdateCategory(ctx context.Context, id int64, name string) (*Category, error) {
	c := Category{ID: id, Name: name}
	err := r.DB.QueryRow(ctx, `
		UPDATE categories SET name=$2 WHERE id=$1
		RETURNING (SELECT COUNT(*) FROM products WHERE category_id=$1)`, id, name).Scan(&c.Count)
	if isUniqueViolation(err) {
		return nil, ErrCategoryExists
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCategory cascades to the category's products (and their reviews) in a
// single transaction. It returns the ids of the deleted products so callers
// can drop any cached copies.
func (r *Repo) DeleteCategory(ctx context.Context, id int64) ([]int64, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `SELECT id FROM products WHERE category_id=$1`, id)
	if err != nil {
		return nil, err
	}
	var productIDs []int64
	for rows.Next() {
		var pid int64
		if err := rows.Scan(&pid); err != nil {
			rows.Close()
			return nil, err
		}
		productIDs = append(productIDs, pid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM reviews WHERE product_id IN (SELECT id FROM products WHERE category_id=$1)`, id); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM products WHERE category_id=$1`, id); err != nil {
		return nil, err
	}
	ct, err := tx.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrCategoryNotFound
	}
	return productIDs, tx.Commit(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
