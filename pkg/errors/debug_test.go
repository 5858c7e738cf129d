package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

func TestDumpExtractsPostgresDetails(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23503",
		ConstraintName: "composition_edges_child_id_fkey",
		TableName:      "composition_edges",
		Message:        "insert or update violates foreign key constraint",
	}
	err := Wrap(CodeConflict, fmt.Errorf("insert edge: %w", pgErr), "db: insert edge")

	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %s", d.Code)
	}
	if d.PGCode != "23503" || d.PGConstraint != "composition_edges_child_id_fkey" {
		t.Fatalf("unexpected pg details %+v", d)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected wrapped chain, got %v", d.Chain)
	}
}

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || d.Chain != nil {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}

func TestDumpExtractsSQLiteCodes(t *testing.T) {
	liteErr := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}
	d := Dump(fmt.Errorf("insert cart line: %w", liteErr))
	if d.SQLiteCode != int(sqlite3.ErrConstraint) || d.SQLiteExtended != int(sqlite3.ErrConstraintUnique) {
		t.Fatalf("unexpected sqlite details %+v", d)
	}
	if d.PGCode != "" {
		t.Fatalf("pg fields must stay empty, got %+v", d)
	}
}
