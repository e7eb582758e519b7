package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/unclebandit/customer-directory/internal/model"
)

// PhoneRepository persists phone rows. Rows never outlive their customer.
type PhoneRepository struct {
	DB querier
}

func (r *PhoneRepository) Create(ctx context.Context, p *model.Phone) error {
	query := `
        INSERT INTO phones (customer_id, number, kind, is_primary)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	if err := r.DB.QueryRowContext(ctx, query, p.CustomerID, p.Number, p.Kind, p.IsPrimary).Scan(&p.ID); err != nil {
		return fmt.Errorf("insert phone: %w", err)
	}
	return nil
}

func (r *PhoneRepository) DeleteByCustomer(ctx context.Context, customerID int64) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM phones WHERE customer_id=$1`, customerID)
	if err != nil {
		return 0, fmt.Errorf("delete phones: %w", err)
	}
	return res.RowsAffected()
}

func (r *PhoneRepository) ListByCustomer(ctx context.Context, customerID int64) ([]model.Phone, error) {
	byCustomer, err := r.ListByCustomers(ctx, []int64{customerID})
	if err != nil {
		return nil, err
	}
	if phones, ok := byCustomer[customerID]; ok {
		return phones, nil
	}
	return []model.Phone{}, nil
}

// ListByCustomers loads the phones of a whole result page in one round trip.
func (r *PhoneRepository) ListByCustomers(ctx context.Context, customerIDs []int64) (map[int64][]model.Phone, error) {
	out := make(map[int64][]model.Phone, len(customerIDs))
	if len(customerIDs) == 0 {
		return out, nil
	}
	rows, err := r.DB.QueryContext(ctx, `
        SELECT id, customer_id, number, kind, is_primary
        FROM phones
        WHERE customer_id = ANY($1)
        ORDER BY customer_id, id
    `, pq.Array(customerIDs))
	if err != nil {
		return nil, fmt.Errorf("list phones: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p model.Phone
		if err := rows.Scan(&p.ID, &p.CustomerID, &p.Number, &p.Kind, &p.IsPrimary); err != nil {
			return nil, err
		}
		out[p.CustomerID] = append(out[p.CustomerID], p)
	}
	return out, rows.Err()
}

var _ PhoneRepositoryInterface = (*PhoneRepository)(nil)
