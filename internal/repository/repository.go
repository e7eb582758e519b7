package repository

import (
	"context"
	"database/sql"

	"github.com/unclebandit/customer-directory/internal/model"
)

// CustomerRepositoryInterface is the Customer Store contract. Lookups by key
// return an appErrors NotFound when the row is absent.
type CustomerRepositoryInterface interface {
	Create(ctx context.Context, c *model.Customer) error
	Update(ctx context.Context, c *model.Customer) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*model.Customer, error)
	GetByNationalID(ctx context.Context, nationalID string) (*model.Customer, error)
	GetByEmail(ctx context.Context, email string) (*model.Customer, error)
	// excludeID of 0 checks against every customer.
	ExistsByNationalID(ctx context.Context, nationalID string, excludeID int64) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	ListAll(ctx context.Context) ([]model.Customer, error)
	ListByType(ctx context.Context, code string) ([]model.Customer, error)
	CountByType(ctx context.Context, code string) (int, error)
	Search(ctx context.Context, f model.CustomerFilter, p model.PageRequest) ([]model.Customer, int, error)
}

// CustomerTypeRepositoryInterface is the Catalog Store contract.
type CustomerTypeRepositoryInterface interface {
	Create(ctx context.Context, t *model.CustomerType) error
	Update(ctx context.Context, t *model.CustomerType) error
	Delete(ctx context.Context, code string) error
	GetByCode(ctx context.Context, code string) (*model.CustomerType, error)
	Exists(ctx context.Context, code string) (bool, error)
	ListAll(ctx context.Context) ([]model.CustomerType, error)
}

// PhoneRepositoryInterface persists the phone rows owned by customers.
type PhoneRepositoryInterface interface {
	Create(ctx context.Context, p *model.Phone) error
	DeleteByCustomer(ctx context.Context, customerID int64) (int64, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]model.Phone, error)
	ListByCustomers(ctx context.Context, customerIDs []int64) (map[int64][]model.Phone, error)
}

// Stores bundles the repositories bound to one transaction.
type Stores struct {
	Customers CustomerRepositoryInterface
	Types     CustomerTypeRepositoryInterface
	Phones    PhoneRepositoryInterface
}

// TxRunner provides the transactional boundary for one operation. Either every
// write made through the Stores commits, or none does.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(s Stores) error) error
	RunReadOnly(ctx context.Context, fn func(s Stores) error) error
	Ping(ctx context.Context) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
