package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	appErrors "github.com/unclebandit/customer-directory/internal/errors"
	"github.com/unclebandit/customer-directory/internal/model"
)

// CustomerRepository is the Postgres implementation of the Customer Store.
type CustomerRepository struct {
	DB querier
}

const customerColumns = `
        c.id, c.national_id, c.given_name, c.family_name, c.age, c.email,
        c.customer_type_code, t.description, c.created_at, c.updated_at
    `

const customerFrom = `
        FROM customers c
        JOIN customer_types t ON t.code = c.customer_type_code
    `

var sortColumns = map[model.SortField]string{
	model.SortByID:         "c.id",
	model.SortByNationalID: "c.national_id",
	model.SortByGivenName:  "c.given_name",
	model.SortByFamilyName: "c.family_name",
	model.SortByAge:        "c.age",
	model.SortByEmail:      "c.email",
	model.SortByTypeCode:   "c.customer_type_code",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*model.Customer, error) {
	var (
		c    model.Customer
		t    model.CustomerType
		age  sql.NullInt64
		desc sql.NullString
	)
	if err := row.Scan(&c.ID, &c.NationalID, &c.GivenName, &c.FamilyName, &age, &c.Email,
		&c.CustomerTypeCode, &desc, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if age.Valid {
		v := int(age.Int64)
		c.Age = &v
	}
	t.Code = c.CustomerTypeCode
	t.Description = desc.String
	c.Type = &t
	c.Phones = []model.Phone{}
	return &c, nil
}

func nullAge(age *int) sql.NullInt64 {
	if age == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*age), Valid: true}
}

func customerKeys(c *model.Customer) map[string]string {
	return map[string]string{
		"nationalId":       c.NationalID,
		"email":            c.Email,
		"customerTypeCode": c.CustomerTypeCode,
	}
}

func (r *CustomerRepository) Create(ctx context.Context, c *model.Customer) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	query := `
        INSERT INTO customers (national_id, given_name, family_name, age, email, customer_type_code, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `
	err := r.DB.QueryRowContext(ctx, query,
		c.NationalID, c.GivenName, c.FamilyName, nullAge(c.Age), c.Email, c.CustomerTypeCode, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return translateWriteErr(err, customerKeys(c))
	}
	return nil
}

func (r *CustomerRepository) Update(ctx context.Context, c *model.Customer) error {
	c.UpdatedAt = time.Now().UTC()
	query := `
        UPDATE customers
        SET national_id=$1, given_name=$2, family_name=$3, age=$4, email=$5, customer_type_code=$6, updated_at=$7
        WHERE id=$8
    `
	res, err := r.DB.ExecContext(ctx, query,
		c.NationalID, c.GivenName, c.FamilyName, nullAge(c.Age), c.Email, c.CustomerTypeCode, c.UpdatedAt, c.ID)
	if err != nil {
		return translateWriteErr(err, customerKeys(c))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update customer rows affected: %w", err)
	}
	if n == 0 {
		return appErrors.NewNotFound("customer", "id", c.ID)
	}
	return nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM customers WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete customer rows affected: %w", err)
	}
	if n == 0 {
		return appErrors.NewNotFound("customer", "id", id)
	}
	return nil
}

func (r *CustomerRepository) getOne(ctx context.Context, field, column string, value any) (*model.Customer, error) {
	query := "SELECT " + customerColumns + customerFrom + " WHERE " + column + " = $1"
	c, err := scanCustomer(r.DB.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("customer", field, value)
		}
		return nil, fmt.Errorf("get customer by %s: %w", field, err)
	}
	return c, nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	return r.getOne(ctx, "id", "c.id", id)
}

func (r *CustomerRepository) GetByNationalID(ctx context.Context, nationalID string) (*model.Customer, error) {
	return r.getOne(ctx, "nationalId", "c.national_id", nationalID)
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	return r.getOne(ctx, "email", "c.email", email)
}

func (r *CustomerRepository) exists(ctx context.Context, column, value string, excludeID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM customers WHERE ` + column + ` = $1 AND id <> $2)`
	var found bool
	if err := r.DB.QueryRowContext(ctx, query, value, excludeID).Scan(&found); err != nil {
		return false, fmt.Errorf("check customer %s: %w", column, err)
	}
	return found, nil
}

func (r *CustomerRepository) ExistsByNationalID(ctx context.Context, nationalID string, excludeID int64) (bool, error) {
	return r.exists(ctx, "national_id", nationalID, excludeID)
}

func (r *CustomerRepository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.exists(ctx, "email", email, excludeID)
}

func (r *CustomerRepository) list(ctx context.Context, query string, args ...any) ([]model.Customer, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (r *CustomerRepository) ListAll(ctx context.Context) ([]model.Customer, error) {
	out, err := r.list(ctx, "SELECT "+customerColumns+customerFrom+" ORDER BY c.id")
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

func (r *CustomerRepository) ListByType(ctx context.Context, code string) ([]model.Customer, error) {
	out, err := r.list(ctx, "SELECT "+customerColumns+customerFrom+" WHERE c.customer_type_code = $1 ORDER BY c.id", code)
	if err != nil {
		return nil, fmt.Errorf("list customers by type: %w", err)
	}
	return out, nil
}

func (r *CustomerRepository) CountByType(ctx context.Context, code string) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers WHERE customer_type_code = $1`, code).Scan(&n); err != nil {
		return 0, fmt.Errorf("count customers by type: %w", err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(v string) string {
	return "%" + likeEscaper.Replace(v) + "%"
}

// buildFilter renders the conjunctive WHERE clause shared by the page query
// and the count query.
func buildFilter(f model.CustomerFilter) (string, []any) {
	where := " WHERE 1=1"
	args := []any{}
	argPos := 1

	add := func(clause string, v any) {
		where += fmt.Sprintf(clause, argPos)
		args = append(args, v)
		argPos++
	}
	if f.GivenName != nil {
		add(` AND c.given_name ILIKE $%d ESCAPE '\'`, containsPattern(*f.GivenName))
	}
	if f.FamilyName != nil {
		add(` AND c.family_name ILIKE $%d ESCAPE '\'`, containsPattern(*f.FamilyName))
	}
	if f.Email != nil {
		add(` AND c.email ILIKE $%d ESCAPE '\'`, containsPattern(*f.Email))
	}
	if f.TypeCode != nil {
		add(" AND c.customer_type_code = $%d", *f.TypeCode)
	}
	return where, args
}

func orderBy(s model.Sort) (string, error) {
	column, ok := sortColumns[s.Field]
	if !ok {
		return "", fmt.Errorf("unsupported sort field %q", s.Field)
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	clause := " ORDER BY " + column + " " + dir
	if s.Field == model.SortByAge {
		clause += " NULLS LAST"
	}
	if s.Field != model.SortByID {
		clause += ", c.id ASC"
	}
	return clause, nil
}

// Search runs the filtered page query and the matching COUNT in the database.
func (r *CustomerRepository) Search(ctx context.Context, f model.CustomerFilter, p model.PageRequest) ([]model.Customer, int, error) {
	where, args := buildFilter(f)
	order, err := orderBy(p.Sort)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers c"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}
	if total == 0 || p.Offset() >= total {
		return []model.Customer{}, total, nil
	}

	argPos := len(args) + 1
	query := "SELECT " + customerColumns + customerFrom + where + order +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
	pageArgs := append(append([]any{}, args...), p.Size, p.Offset())

	customers, err := r.list(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("search customers: %w", err)
	}
	return customers, total, nil
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)
