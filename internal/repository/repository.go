package repository

import (
	"fmt"
	"strings"

	"genealogy/internal/database"
)

// ReferentialIntegrityError is returned when a delete would orphan dependent rows
type ReferentialIntegrityError struct {
	Entity string
	ID     int64
	Count  int
}

func (e *ReferentialIntegrityError) Error() string {
	noun := "children"
	if e.Count == 1 {
		noun = "child"
	}
	return fmt.Sprintf("cannot delete %s %d: it has %d %s", e.Entity, e.ID, e.Count, noun)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// runInTx runs fn on q when q is already a transaction, otherwise opens one on db
func runInTx(db *database.DB, q database.DBTX, fn func(q database.DBTX) error) error {
	if tx, ok := q.(*database.Tx); ok {
		return fn(tx)
	}
	return db.WithTx(func(tx *database.Tx) error {
		return fn(tx)
	})
}

// nullString stores blank strings as NULL
func nullString(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

func nullInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// likePattern builds a case-insensitive substring pattern for LIKE ... ESCAPE '!'
func likePattern(term string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + strings.ToLower(r.Replace(term)) + "%"
}

// rowsAffected reports whether a statement touched at least one row
func rowsAffected(n int64, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
