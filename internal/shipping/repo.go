package shipping

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aqilanwar/go-courier-booking/internal/courier"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type OrderRepo struct{ DB *pgxpool.Pool }

func (r *OrderRepo) GetOrder(ctx context.Context, orderID string) (Order, error) {
	sql, args, err := psql.Select(
		"id", "order_no", "status", "total_cents",
		"recipient_name", "recipient_phone", "address_line1", "address_line2",
		"city", "state", "postcode", "country",
		"created_at", "updated_at",
	).From("orders").Where(sq.Eq{"id": orderID}).ToSql()
	if err != nil {
		return Order{}, errors.Wrap(err, "build query")
	}

	var (
		o                              Order
		name, phone, line1, line2      *string
		city, state, postcode, country *string
	)
	err = r.DB.QueryRow(ctx, sql, args...).Scan(
		&o.ID, &o.OrderNo, &o.Status, &o.TotalCents,
		&name, &phone, &line1, &line2, &city, &state, &postcode, &country,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, &NotFoundError{Resource: "order", ID: orderID}
		}
		return Order{}, errors.Wrap(err, "get order")
	}

	// address columns are nullable as a group
	if name != nil && line1 != nil {
		o.Recipient = &courier.Address{
			Name:     *name,
			Phone:    deref(phone),
			Line1:    *line1,
			Line2:    deref(line2),
			City:     deref(city),
			State:    deref(state),
			Postcode: deref(postcode),
			Country:  deref(country),
		}
	}

	items, err := r.listItems(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	o.Items = items
	return o, nil
}

func (r *OrderRepo) listItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	sql, args, err := psql.Select("id", "order_id", "name", "weight_kg", "qty", "price_cents").
		From("order_items").Where(sq.Eq{"order_id": orderID}).OrderBy("id").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list order items")
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Name, &it.WeightKg, &it.Qty, &it.PriceCents); err != nil {
			return nil, errors.Wrap(err, "scan order item")
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// MarkShipped moves an order to SHIPPED, guarded by the status machine.
// Returns false when the order was already past the shippable states.
func (r *OrderRepo) MarkShipped(ctx context.Context, orderID string) (bool, error) {
	var cur OrderStatus
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&cur)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, &NotFoundError{Resource: "order", ID: orderID}
		}
		return false, errors.Wrap(err, "get order status")
	}
	if !CanTransitionOrder(cur, OrderShipped) {
		return false, nil
	}
	ct, err := r.DB.Exec(ctx,
		`UPDATE orders SET status=$2, updated_at=now() WHERE id=$1 AND status=$3`,
		orderID, OrderShipped, cur)
	if err != nil {
		return false, errors.Wrap(err, "mark shipped")
	}
	return ct.RowsAffected() == 1, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
