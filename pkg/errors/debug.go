package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stripe/stripe-go/v84"
)

// maxChain bounds how much of a wrap chain ends up on a log line.
const maxChain = 8

// LogFields flattens err into structured log fields: the wrap chain, the
// typed code, and whatever the postgres driver or the Stripe API attached.
// Empty values are omitted.
func LogFields(err error) map[string]any {
	if err == nil {
		return nil
	}
	fields := map[string]any{"error": err.Error()}
	if te := As(err); te != nil {
		fields["error_code"] = string(te.Code())
	}

	var chain []string
	for e := err; e != nil && len(chain) < maxChain; e = errors.Unwrap(e) {
		chain = append(chain, fmt.Sprintf("%T", e))
	}
	if len(chain) > 1 {
		fields["error_chain"] = chain
	}

	for k, v := range databaseFields(err) {
		fields[k] = v
	}
	for k, v := range stripeFields(err) {
		fields[k] = v
	}
	return fields
}

func databaseFields(err error) map[string]any {
	var code, constraint, table, column, detail string

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		code, constraint, table, column, detail = pgxErr.Code, pgxErr.ConstraintName, pgxErr.TableName, pgxErr.ColumnName, pgxErr.Detail
	case errors.As(err, &pqErr):
		code, constraint, table, column, detail = string(pqErr.Code), pqErr.Constraint, pqErr.Table, pqErr.Column, pqErr.Detail
	default:
		return nil
	}
	return compact(map[string]string{
		"pg_code":       code,
		"pg_constraint": constraint,
		"pg_table":      table,
		"pg_column":     column,
		"pg_detail":     detail,
	})
}

func stripeFields(err error) map[string]any {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return nil
	}
	out := compact(map[string]string{
		"stripe_type":       string(se.Type),
		"stripe_code":       string(se.Code),
		"stripe_request_id": se.RequestID,
		"stripe_param":      se.Param,
	})
	if se.HTTPStatusCode != 0 {
		out["stripe_status"] = se.HTTPStatusCode
	}
	return out
}

func compact(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
