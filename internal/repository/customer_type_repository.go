package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	appErrors "github.com/unclebandit/customer-directory/internal/errors"
	"github.com/unclebandit/customer-directory/internal/model"
)

// CustomerTypeRepository is the Postgres implementation of the Catalog Store.
type CustomerTypeRepository struct {
	DB querier
}

func (r *CustomerTypeRepository) Create(ctx context.Context, t *model.CustomerType) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO customer_types (code, description) VALUES ($1, $2)`, t.Code, t.Description)
	if err != nil {
		return translateWriteErr(err, map[string]string{"code": t.Code})
	}
	return nil
}

func (r *CustomerTypeRepository) Update(ctx context.Context, t *model.CustomerType) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE customer_types SET description=$1 WHERE code=$2`, t.Description, t.Code)
	if err != nil {
		return fmt.Errorf("update customer type: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update customer type rows affected: %w", err)
	}
	if n == 0 {
		return appErrors.NewNotFound("customer type", "code", t.Code)
	}
	return nil
}

// Delete relies on the RESTRICT foreign key from customers as the final word
// on whether the code is still referenced.
func (r *CustomerTypeRepository) Delete(ctx context.Context, code string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM customer_types WHERE code=$1`, code)
	if err != nil {
		return translateWriteErr(err, map[string]string{"code": code})
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete customer type rows affected: %w", err)
	}
	if n == 0 {
		return appErrors.NewNotFound("customer type", "code", code)
	}
	return nil
}

func (r *CustomerTypeRepository) GetByCode(ctx context.Context, code string) (*model.CustomerType, error) {
	var t model.CustomerType
	err := r.DB.QueryRowContext(ctx,
		`SELECT code, description FROM customer_types WHERE code=$1`, code).Scan(&t.Code, &t.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("customer type", "code", code)
		}
		return nil, fmt.Errorf("get customer type: %w", err)
	}
	return &t, nil
}

func (r *CustomerTypeRepository) Exists(ctx context.Context, code string) (bool, error) {
	var found bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM customer_types WHERE code=$1)`, code).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("check customer type: %w", err)
	}
	return found, nil
}

func (r *CustomerTypeRepository) ListAll(ctx context.Context) ([]model.CustomerType, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT code, description FROM customer_types ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list customer types: %w", err)
	}
	defer rows.Close()

	types := []model.CustomerType{}
	for rows.Next() {
		var t model.CustomerType
		if err := rows.Scan(&t.Code, &t.Description); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

var _ CustomerTypeRepositoryInterface = (*CustomerTypeRepository)(nil)
