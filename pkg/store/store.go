// Package store persists collected code fragments in a SQLite database so
// that later passes can query them without reparsing.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/raymyers/ralph-ecc/pkg/fragment"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Load for a path that was never added
var ErrNotFound = errors.New("file not found in store")

// File is one parsed source file
type File struct {
	ID     int64
	Path   string
	Errors int
}

// Store is a fragment database backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
// Use ":memory:" for an in-memory database (useful for testing).
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddProfile stores every fragment of prof in one transaction, replacing
// whatever was stored for the same file before. It returns the file id.
func (s *Store) AddProfile(prof *fragment.Profile, errCount int) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteFile(tx, prof.FileName); err != nil {
		return 0, err
	}

	res, err := tx.Exec("INSERT INTO files (path, errors) VALUES (?, ?)", prof.FileName, errCount)
	if err != nil {
		return 0, fmt.Errorf("inserting file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading file id: %w", err)
	}

	for _, f := range prof.All() {
		if err := insertFragment(tx, id, f); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return id, nil
}

func deleteFile(tx *sql.Tx, path string) error {
	var id int64
	err := tx.QueryRow("SELECT id FROM files WHERE path = ?", path).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up file: %w", err)
	}

	for _, k := range fragment.Kinds {
		if _, err := tx.Exec("DELETE FROM "+kindTables[k].table+" WHERE file_id = ?", id); err != nil {
			return fmt.Errorf("deleting %s: %w", kindTables[k].table, err)
		}
	}
	if _, err := tx.Exec("DELETE FROM files WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

func insertFragment(tx *sql.Tx, fileID int64, f fragment.Fragment) error {
	t := kindTables[f.Kind()]
	s := f.Location()
	args := []any{fileID, s.Start.Line, s.Start.Column, s.End.Line, s.End.Column}

	switch f := f.(type) {
	case fragment.PredicateExpression:
		args = append(args, f.Text)
	case fragment.EnumerationDefinition:
		args = append(args, f.Text)
	case fragment.StructUnionDefinition:
		args = append(args, f.Text)
	case fragment.TypedefDefinition:
		args = append(args, f.FromText, f.ToText)
	case fragment.VariableDeclaration:
		args = append(args, f.ModifierText, f.DeclText)
	case fragment.FunctionDefinition:
		args = append(args, f.ModifierText, f.DeclText,
			f.LeftBraceLine, f.LeftBraceColumn, f.DeclLine, f.DeclColumn)
	case fragment.FunctionCalling:
		args = append(args, f.Name, f.Args)
	default:
		return fmt.Errorf("unknown fragment type: %T", f)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (file_id, start_line, start_column, end_line, end_column, %s) VALUES (?%s)",
		t.table, strings.Join(t.columns, ", "), strings.Repeat(", ?", len(args)-1))
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("inserting %s: %w", t.table, err)
	}
	return nil
}

// Load rebuilds the profile stored for path, each kind in source order.
func (s *Store) Load(path string) (*fragment.Profile, error) {
	var id int64
	err := s.db.QueryRow("SELECT id FROM files WHERE path = ?", path).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up file: %w", err)
	}

	prof := fragment.NewProfile(path)
	for _, k := range fragment.Kinds {
		if err := s.loadKind(prof, id, k); err != nil {
			return nil, err
		}
	}
	return prof, nil
}

func (s *Store) loadKind(prof *fragment.Profile, fileID int64, k fragment.Kind) error {
	t := kindTables[k]
	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT start_line, start_column, end_line, end_column, %s
		FROM %s
		WHERE file_id = ?
		ORDER BY start_line, start_column, rowid
	`, strings.Join(t.columns, ", "), t.table), fileID)
	if err != nil {
		return fmt.Errorf("querying %s: %w", t.table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var sp fragment.Span
		dest := []any{&sp.Start.Line, &sp.Start.Column, &sp.End.Line, &sp.End.Column}

		switch k {
		case fragment.KindPredicateExpression:
			var f fragment.PredicateExpression
			if err := rows.Scan(append(dest, &f.Text)...); err != nil {
				return fmt.Errorf("scanning %s: %w", t.table, err)
			}
			f.Span = sp
			prof.AddPredicateExpression(f)
		case fragment.KindEnumerationDefinition:
			var f fragment.EnumerationDefinition
			if err := rows.Scan(append(dest, &f.Text)...); err != nil {
				return fmt.Errorf("scanning %s: %w", t.table, err)
			}
			f.Span = sp
			prof.AddEnumerationDefinition(f)
		case fragment.KindStructUnionDefinition:
			var f fragment.StructUnionDefinition
			if err := rows.Scan(append(dest, &f.Text)...); err != nil {
				return fmt.Errorf("scanning %s: %w", t.table, err)
			}
			f.Span = sp
			prof.AddStructUnionDefinition(f)
		case fragment.KindTypedefDefinition:
			var f fragment.TypedefDefinition
			if err := rows.Scan(append(dest, &f.FromText, &f.ToText)...); err != nil {
				return fmt.Errorf("scanning %s: %w", t.table, err)
			}
			f.Span = sp
			prof.AddTypedefDefinition(f)
		case fragment.KindVariableDeclaration:
			var f fragment.VariableDeclaration
			if err := rows.Scan(append(dest, &f.ModifierText, &f.DeclText)...); err != nil {
				return fmt.Errorf("scanning %s: %w", t.table, err)
			}
			f.Span = sp
			prof.AddVariableDeclaration(f)
		case fragment.KindFunctionDefinition:
			var f fragment.FunctionDefinition
			err := rows.Scan(append(dest, &f.ModifierText, &f.DeclText,
				&f.LeftBraceLine, &f.LeftBraceColumn, &f.DeclLine, &f.DeclColumn)...)
			if err != nil {
				return fmt.Errorf("scanning %s: %w", t.table, err)
			}
			f.Span = sp
			prof.AddFunctionDefinition(f)
		case fragment.KindFunctionCalling:
			var f fragment.FunctionCalling
			if err := rows.Scan(append(dest, &f.Name, &f.Args)...); err != nil {
				return fmt.Errorf("scanning %s: %w", t.table, err)
			}
			f.Span = sp
			prof.AddFunctionCalling(f)
		}
	}
	return rows.Err()
}

// Counts returns the number of stored fragments of each kind across all files.
func (s *Store) Counts() (map[fragment.Kind]int, error) {
	counts := make(map[fragment.Kind]int, len(fragment.Kinds))
	for _, k := range fragment.Kinds {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + kindTables[k].table).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", kindTables[k].table, err)
		}
		counts[k] = n
	}
	return counts, nil
}

// Files returns the stored files ordered by path.
func (s *Store) Files() ([]File, error) {
	rows, err := s.db.Query("SELECT id, path, errors FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.Path, &f.Errors); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}
