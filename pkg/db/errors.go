package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

type violation struct {
	pgCode     string
	sqliteCode sqlite3.ErrNoExtended
	// text is the driver message when no typed error survives wrapping.
	text []string
}

var (
	uniqueViolation = violation{
		pgCode:     pgUniqueViolation,
		sqliteCode: sqlite3.ErrConstraintUnique,
		text:       []string{"duplicate key value", "UNIQUE constraint failed"},
	}
	foreignKeyViolation = violation{
		pgCode:     pgForeignKeyViolation,
		sqliteCode: sqlite3.ErrConstraintForeignKey,
		text:       []string{"FOREIGN KEY constraint failed"},
	}
	checkViolation = violation{
		pgCode:     pgCheckViolation,
		sqliteCode: sqlite3.ErrConstraintCheck,
		text:       []string{"CHECK constraint failed"},
	}
)

// IsUniqueViolation reports whether err is a unique violation. A non-empty
// constraintName narrows the match to that constraint.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if constraintName != "" {
		return strings.Contains(err.Error(), constraintName)
	}
	return uniqueViolation.matches(err)
}

// IsForeignKeyViolation reports whether err was raised by a foreign key
// constraint, which happens when a referenced row vanished mid-operation.
func IsForeignKeyViolation(err error) bool {
	return err != nil && foreignKeyViolation.matches(err)
}

// IsCheckViolation reports whether err was raised by a CHECK constraint.
func IsCheckViolation(err error) bool {
	return err != nil && checkViolation.matches(err)
}

func (v violation) matches(err error) bool {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == v.pgCode
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == v.pgCode
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == v.sqliteCode
	}
	msg := err.Error()
	for _, t := range v.text {
		if strings.Contains(msg, t) {
			return true
		}
	}
	return false
}
