package repository

import (
	"context"
	"database/sql"

	"github.com/tmoreno/drivermate/internal/database"
	"github.com/tmoreno/drivermate/internal/orders"
)

// OrderRepo caches the last fetched order snapshot per driver. The cache is
// replaced wholesale on every successful poll; orders are never created or
// edited locally beyond that.
type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// ReplaceAll swaps the driver's cached snapshot for list in one transaction.
func (r *OrderRepo) ReplaceAll(ctx context.Context, driverID string, list []orders.Order) error {
	return database.WithTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE driver_id = ?`, driverID); err != nil {
			return err
		}
		for i, o := range list {
			var name, email, phone string
			if o.User != nil {
				name, email, phone = o.User.Name, o.User.Email, o.User.Phone
			}
			_, err := tx.ExecContext(ctx, `
			INSERT INTO orders(
			 id, driver_id, position, product_id, product_name, quantity, status,
			 delivery_address, delivery_latitude, delivery_longitude, order_delivered_at,
			 customer_name, customer_email, customer_phone, fetched_at)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP);
			`,
				o.ID, driverID, i, o.Product.ID, o.Product.Name, o.Quantity, o.Status,
				o.DeliveryAddress, o.DeliveryLatitude, o.DeliveryLongitude, o.OrderDeliveredAt,
				name, email, phone)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ListByDriver returns the cached snapshot in its original response order.
func (r *OrderRepo) ListByDriver(ctx context.Context, driverID string) ([]orders.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, product_id, product_name, quantity, status,
	       delivery_address, delivery_latitude, delivery_longitude, order_delivered_at,
	       customer_name, customer_email, customer_phone
	FROM orders WHERE driver_id = ? ORDER BY position`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orders.Order
	for rows.Next() {
		var o orders.Order
		var name, email, phone string
		if err := rows.Scan(&o.ID, &o.Product.ID, &o.Product.Name, &o.Quantity, &o.Status,
			&o.DeliveryAddress, &o.DeliveryLatitude, &o.DeliveryLongitude, &o.OrderDeliveredAt,
			&name, &email, &phone); err != nil {
			return nil, err
		}
		if name != "" || email != "" || phone != "" {
			o.User = &orders.Customer{Name: name, Email: email, Phone: phone}
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
