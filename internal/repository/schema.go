package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	// database/sql driver for the reflection connection
	_ "github.com/lib/pq"
)

// UserTable is the name of the user table. It is a reserved word in
// PostgreSQL and must be quoted in SQL.
const UserTable = "user"

// userColumns are the columns the request handlers read and write.
var userColumns = []string{"id", "email", "name", "created_at"}

// Schema errors.
var (
	ErrTableNotFound  = errors.New("table not found")
	ErrSchemaMismatch = errors.New("table schema mismatch")
)

// Column describes one reflected column.
type Column struct {
	Name       string
	DataType   string
	Nullable   bool
	HasDefault bool
}

// TableSchema is the shape of a table as reported by information_schema.
type TableSchema struct {
	Name    string
	Columns []Column
}

// Column looks up a column by name.
func (s *TableSchema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns column names in ordinal order.
func (s *TableSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// VerifyUserTable checks that s has every column the user queries depend on.
func (s *TableSchema) VerifyUserTable() error {
	var missing []string
	for _, name := range userColumns {
		if _, ok := s.Column(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %q is missing columns %s", ErrSchemaMismatch, s.Name, strings.Join(missing, ", "))
	}
	return nil
}

// ReflectUserTable connects with databaseURL, reads the shape of the user
// table and verifies it. It is run once at startup, before the pool serves
// requests, so a missing migration fails fast.
func ReflectUserTable(ctx context.Context, databaseURL string) (*TableSchema, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open reflection connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	schema, err := ReflectTable(ctx, db, UserTable)
	if err != nil {
		return nil, err
	}

	if err := schema.VerifyUserTable(); err != nil {
		return nil, err
	}

	return schema, nil
}

// ReflectTable reads column metadata for table in the current schema.
func ReflectTable(ctx context.Context, db *sql.DB, table string) (*TableSchema, error) {
	query := `
		SELECT column_name, data_type, is_nullable = 'YES', column_default IS NOT NULL
		FROM information_schema.columns
		WHERE table_schema = current_schema()
		  AND table_name = $1
		ORDER BY ordinal_position
	`

	rows, err := db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to reflect table %q: %w", table, err)
	}
	defer rows.Close()

	schema := &TableSchema{Name: table}
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable, &c.HasDefault); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		schema.Columns = append(schema.Columns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}

	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, table)
	}

	return schema, nil
}
