package repository

import (
	"errors"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/customer-directory/internal/errors"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// Constraint names from migrations/000001_init.up.sql.
var uniqueConstraintFields = map[string]struct{ entity, field string }{
	"customers_national_id_key": {"customer", "nationalId"},
	"customers_email_key":       {"customer", "email"},
	"customer_types_pkey":       {"customer type", "code"},
}

// translateWriteErr turns constraint violations raised by Postgres into the
// same domain errors the service pre-checks produce. values carries the keys
// being written, keyed by field name, for the error message.
func translateWriteErr(err error, values map[string]string) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		if target, ok := uniqueConstraintFields[pqErr.Constraint]; ok {
			return appErrors.NewDuplicateKey(target.entity, target.field, values[target.field])
		}
		return appErrors.NewDuplicateKey("record", pqErr.Constraint, "")
	case pqForeignKeyViolation:
		if pqErr.Constraint == "customers_customer_type_code_fkey" && values["customerTypeCode"] != "" {
			// insert/update pointing at a type deleted concurrently
			return appErrors.NewNotFound("customer type", "code", values["customerTypeCode"])
		}
		return appErrors.NewReferentialViolation("customer type", values["code"], err)
	}
	return err
}
