package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("order not found")

type Repo struct{ DB *pgxpool.Pool }

// CreateOrder inserts the order and all of its items in one transaction; a
// failed item insert rolls the whole order back. Item prices are taken from
// the submitted cart snapshot as-is.
func (r *Repo) CreateOrder(ctx context.Context, in CreateInput) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o := &Order{
		Customer: in.Customer,
		Email:    in.Email,
		Total:    in.Total,
		Status:   StatusPending,
		UserID:   in.UserID,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(customer, email, total, status, user_id)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, date`,
		o.Customer, o.Email, o.Total, o.Status, o.UserID,
	).Scan(&o.ID, &o.Date)
	if err != nil {
		return nil, err
	}

	for _, it := range in.Items {
		item := OrderItem{OrderID: o.ID, ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price}
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items(order_id, product_id, quantity, price)
			VALUES ($1,$2,$3,$4)
			RETURNING id`,
			item.OrderID, item.ProductID, item.Quantity, item.Price,
		).Scan(&item.ID)
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repo) GetOrder(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, customer, email, total, status, user_id, date
		FROM orders WHERE id=$1`, id,
	).Scan(&o.ID, &o.Customer, &o.Email, &o.Total, &o.Status, &o.UserID, &o.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	items, err := r.itemsFor(ctx, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = []OrderItem{}
	}
	return &o, nil
}

func (r *Repo) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, customer, email, total, status, user_id, date
		FROM orders ORDER BY date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	var ids []int64
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Customer, &o.Email, &o.Total, &o.Status, &o.UserID, &o.Date); err != nil {
			return nil, err
		}
		o.Items = []OrderItem{}
		out = append(out, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if its := items[out[i].ID]; its != nil {
			out[i].Items = its
		}
	}
	return out, nil
}

// itemsFor loads line items for a set of orders. The product join is LEFT:
// product_id is a weak reference and the product may be gone.
func (r *Repo) itemsFor(ctx context.Context, orderIDs []int64) (map[int64][]OrderItem, error) {
	if len(orderIDs) == 0 {
		return map[int64][]OrderItem{}, nil
	}
	rows, err := r.DB.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price, COALESCE(p.name, '')
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64][]OrderItem{}
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price, &it.ProductName); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

func (r *Repo) SetStatus(ctx context.Context, id int64, to Status) (*Order, error) {
	ct, err := r.DB.Exec(ctx, `UPDATE orders SET status=$2 WHERE id=$1`, id, to)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetOrder(ctx, id)
}

// DeleteOrder removes the items first, then the order.
func (r *Repo) DeleteOrder(ctx context.Context, id int64) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, id); err != nil {
		return err
	}
	ct, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}
