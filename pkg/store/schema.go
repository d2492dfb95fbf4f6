package store

import (
	"database/sql"
	"fmt"

	"github.com/raymyers/ralph-ecc/pkg/fragment"
)

// SchemaVersion is the current database schema version
const SchemaVersion = 1

// span columns shared by every fragment table
const spanColumns = `
	file_id INTEGER NOT NULL REFERENCES files(id),
	start_line INTEGER NOT NULL,
	start_column INTEGER NOT NULL,
	end_line INTEGER NOT NULL,
	end_column INTEGER NOT NULL`

// kindTables maps each fragment kind to its table and text columns
var kindTables = map[fragment.Kind]struct {
	table   string
	columns []string
}{
	fragment.KindPredicateExpression:   {"predicates", []string{"text"}},
	fragment.KindEnumerationDefinition: {"enums", []string{"text"}},
	fragment.KindStructUnionDefinition: {"structs", []string{"text"}},
	fragment.KindTypedefDefinition:     {"typedefs", []string{"from_text", "to_text"}},
	fragment.KindVariableDeclaration:   {"variables", []string{"modifier", "decl"}},
	fragment.KindFunctionDefinition: {"functions", []string{"modifier", "decl",
		"left_brace_line", "left_brace_column", "decl_line", "decl_column"}},
	fragment.KindFunctionCalling: {"calls", []string{"name", "args"}},
}

// CreateSchema creates the database schema if it doesn't exist.
func CreateSchema(db *sql.DB) error {
	if err := createSchemaVersionTable(db); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			errors INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating files table: %w", err)
	}

	for _, k := range fragment.Kinds {
		if err := createFragmentTable(db, k); err != nil {
			return fmt.Errorf("creating %s table: %w", kindTables[k].table, err)
		}
	}
	return nil
}

func createSchemaVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
		return err
	}
	return nil
}

func createFragmentTable(db *sql.DB, k fragment.Kind) error {
	t := kindTables[k]
	cols := spanColumns
	for _, c := range t.columns {
		typ := "TEXT"
		if isIntColumn(c) {
			typ = "INTEGER"
		}
		cols += fmt.Sprintf(",\n\t%s %s NOT NULL", c, typ)
	}

	if _, err := db.Exec(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s\n)", t.table, cols)); err != nil {
		return err
	}
	_, err := db.Exec(fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS idx_%s_file_id ON %s(file_id)", t.table, t.table))
	return err
}

func isIntColumn(c string) bool {
	switch c {
	case "left_brace_line", "left_brace_column", "decl_line", "decl_column":
		return true
	}
	return false
}
