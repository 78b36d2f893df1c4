package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound signals that the requested row does not exist or is not owned
// by the requesting user.
var ErrNotFound = errors.New("record not found")

// DuplicatePhoneError signals that an insert hit the per-scope phone
// uniqueness constraint. It carries the offending value.
type DuplicatePhoneError struct {
	Phone string
}

func (e *DuplicatePhoneError) Error() string {
	return fmt.Sprintf("phone number already in use: %s", e.Phone)
}

// phoneSet describes where one owner kind keeps its phone rows: the table,
// the column referencing the owner and the column holding the uniqueness
// scope (the user, for both owner kinds). Contact phones and profile phones
// share the same delete-then-insert machinery through this descriptor.
type phoneSet struct {
	table    string
	ownerCol string
	scopeCol string
}

var (
	contactPhones = phoneSet{table: "contact_phones", ownerCol: "contact_id", scopeCol: "user_id"}
	userPhones    = phoneSet{table: "user_phones", ownerCol: "user_id", scopeCol: "user_id"}
)

// selfScoped reports whether the owner itself is the uniqueness scope, in
// which case the owner and scope columns collapse into one.
func (ps phoneSet) selfScoped() bool {
	return ps.ownerCol == ps.scopeCol
}

// replaceAll deletes every phone row of the owner and inserts the given set,
// inside the caller's transaction.
func (ps phoneSet) replaceAll(ctx context.Context, tx pgx.Tx, ownerID, scopeID int64, phones []string) error {
	if err := ps.deleteAll(ctx, tx, ownerID, scopeID); err != nil {
		return err
	}
	return ps.insertAll(ctx, tx, ownerID, scopeID, phones)
}

func (ps phoneSet) deleteAll(ctx context.Context, tx pgx.Tx, ownerID, scopeID int64) error {
	if ps.selfScoped() {
		sql := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, ps.table, ps.ownerCol)
		if _, err := tx.Exec(ctx, sql, ownerID); err != nil {
			return fmt.Errorf("failed to delete %s rows: %w", ps.table, err)
		}
		return nil
	}
	sql := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, ps.table, ps.ownerCol, ps.scopeCol)
	if _, err := tx.Exec(ctx, sql, ownerID, scopeID); err != nil {
		return fmt.Errorf("failed to delete %s rows: %w", ps.table, err)
	}
	return nil
}

// insertAll inserts the phones one by one so the first constraint violation
// can be attributed to its value.
func (ps phoneSet) insertAll(ctx context.Context, tx pgx.Tx, ownerID, scopeID int64, phones []string) error {
	var sql string
	if ps.selfScoped() {
		sql = fmt.Sprintf(`INSERT INTO %s (%s, phone) VALUES ($1, $2)`, ps.table, ps.ownerCol)
	} else {
		sql = fmt.Sprintf(`INSERT INTO %s (%s, %s, phone) VALUES ($1, $2, $3)`, ps.table, ps.ownerCol, ps.scopeCol)
	}
	for _, phone := range phones {
		var err error
		if ps.selfScoped() {
			_, err = tx.Exec(ctx, sql, ownerID, phone)
		} else {
			_, err = tx.Exec(ctx, sql, ownerID, scopeID, phone)
		}
		if err != nil {
			if isUniqueViolation(err) {
				return &DuplicatePhoneError{Phone: phone}
			}
			return fmt.Errorf("failed to insert %s row: %w", ps.table, err)
		}
	}
	return nil
}

// forOwner returns the owner's phones in insertion order.
func (ps phoneSet) forOwner(ctx context.Context, db DB, ownerID, scopeID int64) ([]string, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if ps.selfScoped() {
		sql := fmt.Sprintf(`SELECT phone FROM %s WHERE %s = $1 ORDER BY id ASC`, ps.table, ps.ownerCol)
		rows, err = db.Query(ctx, sql, ownerID)
	} else {
		sql := fmt.Sprintf(`SELECT phone FROM %s WHERE %s = $1 AND %s = $2 ORDER BY id ASC`, ps.table, ps.ownerCol, ps.scopeCol)
		rows, err = db.Query(ctx, sql, ownerID, scopeID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s rows: %w", ps.table, err)
	}
	defer rows.Close()

	phones := []string{}
	for rows.Next() {
		var phone string
		if err := rows.Scan(&phone); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", ps.table, err)
		}
		phones = append(phones, phone)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", ps.table, err)
	}
	return phones, nil
}

// forOwners fetches the phones of every listed owner in one query and groups
// them by owner id, so list reads cost two queries regardless of size.
func (ps phoneSet) forOwners(ctx context.Context, db DB, scopeID int64, ownerIDs []int64) (map[int64][]string, error) {
	grouped := make(map[int64][]string, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return grouped, nil
	}

	sql := fmt.Sprintf(`SELECT %s, phone FROM %s WHERE %s = $1 AND %s = ANY($2) ORDER BY id ASC`,
		ps.ownerCol, ps.table, ps.scopeCol, ps.ownerCol)
	rows, err := db.Query(ctx, sql, scopeID, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s rows: %w", ps.table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ownerID int64
		var phone string
		if err := rows.Scan(&ownerID, &phone); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", ps.table, err)
		}
		grouped[ownerID] = append(grouped[ownerID], phone)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", ps.table, err)
	}
	return grouped, nil
}

// isUniqueViolation reports whether err is a unique constraint violation
// surfaced by the storage engine (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
