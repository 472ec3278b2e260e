package reviews

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) HasPurchased(ctx context.Context, userID, productID int64) (bool, error) {
	var n int
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE oi.product_id=$1 AND o.user_id=$2`, productID, userID).Scan(&n)
	return n > 0, err
}

func (r *Repo) HasReviewed(ctx context.Context, userID, productID int64) (bool, error) {
	var n int
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM reviews WHERE user_id=$1 AND product_id=$2`,
		userID, productID).Scan(&n)
	return n > 0, err
}

func (r *Repo) InsertReview(ctx context.Context, rv *Review) (*Review, error) {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO reviews(user_id, product_id, rating, comment, approved)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at`,
		rv.UserID, rv.ProductID, rv.Rating, rv.Comment, rv.Approved,
	).Scan(&rv.ID, &rv.CreatedAt)
	if isUniqueViolation(err) {
		return nil, ErrAlreadyReviewed
	}
	if err != nil {
		return nil, err
	}
	return rv, nil
}

func (r *Repo) ApproveReview(ctx context.Context, id int64) (*Review, error) {
	var rv Review
	err := r.DB.QueryRow(ctx, `
		UPDATE reviews SET approved=true WHERE id=$1
		RETURNING id, user_id, product_id, rating, comment, approved, created_at`, id,
	).Scan(&rv.ID, &rv.UserID, &rv.ProductID, &rv.Rating, &rv.Comment, &rv.Approved, &rv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *Repo) DeleteReview(ctx context.Context, id int64) (*Review, error) {
	var rv Review
	err := r.DB.QueryRow(ctx, `
		DELETE FROM reviews WHERE id=$1
		RETURNING id, user_id, product_id, rating, comment, approved, created_at`, id,
	).Scan(&rv.ID, &rv.UserID, &rv.ProductID, &rv.Rating, &rv.Comment, &rv.Approved, &rv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *Repo) ApprovedRatings(ctx context.Context, productID int64) ([]int, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT rating FROM reviews WHERE product_id=$1 AND approved`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *Repo) SetProductRating(ctx context.Context, productID int64, rating float64, count int) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE products SET rating=$2, reviews=$3, updated_at=now() WHERE id=$1`,
		productID, rating, count)
	return err
}

func (r *Repo) ProductIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.DB.Query(ctx, `SELECT id FROM products`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Repo) ListByProduct(ctx context.Context, productID int64) ([]Review, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT r.id, r.user_id, r.product_id, r.rating, r.comment, r.approved, r.created_at, u.name
		FROM reviews r JOIN users u ON u.id = r.user_id
		WHERE r.product_id=$1 AND r.approved
		ORDER BY r.created_at DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReviews(rows, false)
}

func (r *Repo) ListAll(ctx context.Context) ([]Review, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT r.id, r.user_id, r.product_id, r.rating, r.comment, r.approved, r.created_at,
			u.name, u.email, p.name
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		JOIN products p ON p.id = r.product_id
		ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReviews(rows, true)
}

func collectReviews(rows pgx.Rows, adminView bool) ([]Review, error) {
	out := []Review{}
	for rows.Next() {
		var rv Review
		dest := []any{&rv.ID, &rv.UserID, &rv.ProductID, &rv.Rating, &rv.Comment, &rv.Approved, &rv.CreatedAt, &rv.UserName}
		if adminView {
			dest = append(dest, &rv.UserEmail, &rv.ProductName)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
