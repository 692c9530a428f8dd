package store

import (
	"fmt"
	"strings"
)

// ColType is the scalar type of a column.
type ColType int

const (
	ColText ColType = iota
	ColInt
	ColFloat
	// ColEnum is an enumeration stored as an integer.
	ColEnum
)

// Column describes one table column. Primary-key and unique columns are
// declared explicitly here rather than inferred from naming conventions.
type Column struct {
	Name string
	Type ColType
	// PrimaryKey marks the auto-incrementing row identity. It is
	// assigned by the database and excluded from inserts.
	PrimaryKey bool
	// Unique marks the natural business key. Insert conflicts on it
	// are silently ignored rather than updated.
	Unique bool
}

// Schema is the explicit shape of one table.
type Schema struct {
	Columns []Column
}

// InsertColumns returns every column except the primary key, in
// declaration order.
func (s Schema) InsertColumns() []Column {
	cols := make([]Column, 0, len(s.Columns))
	for _, c := range s.Columns {
		if !c.PrimaryKey {
			cols = append(cols, c)
		}
	}
	return cols
}

// uniqueColumn returns the unique column name, or "".
func (s Schema) uniqueColumn() string {
	for _, c := range s.Columns {
		if c.Unique {
			return c.Name
		}
	}
	return ""
}

// Dialect generates engine-specific SQL fragments.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

// Placeholder returns the parameter marker for the n-th value (1-based).
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (d Dialect) columnDef(c Column) string {
	if c.PrimaryKey {
		if d == DialectPostgres {
			return c.Name + " SERIAL"
		}
		return c.Name + " INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	var typ string
	switch c.Type {
	case ColText:
		typ = "TEXT"
	case ColInt, ColEnum:
		typ = "INT"
	case ColFloat:
		typ = "FLOAT"
	}
	if c.Unique {
		typ += " UNIQUE"
	}
	return c.Name + " " + typ
}

// CreateTableSQL builds a CREATE TABLE IF NOT EXISTS statement for schema.
func CreateTableSQL(d Dialect, table string, schema Schema) string {
	defs := make([]string, 0, len(schema.Columns)+1)
	for _, c := range schema.Columns {
		defs = append(defs, d.columnDef(c))
	}
	// Postgres declares the primary key in a trailing table constraint;
	// sqlite needs it inline to get autoincrement behavior.
	if d == DialectPostgres {
		for _, c := range schema.Columns {
			if c.PrimaryKey {
				defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", c.Name))
			}
		}
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n);", table, strings.Join(defs, ",\n"))
}

// DropTableSQL builds a DROP TABLE IF EXISTS statement.
func DropTableSQL(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", table)
}

// InsertManySQL builds a single-row parameterized INSERT for schema,
// excluding the primary key. When the schema carries a unique column,
// conflicts on it are ignored.
func InsertManySQL(d Dialect, table string, schema Schema) string {
	cols := schema.InsertColumns()
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
		marks[i] = d.Placeholder(i + 1)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(names, ", "), strings.Join(marks, ", "))
	if uq := schema.uniqueColumn(); uq != "" {
		q += fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", uq)
	}
	return q + ";"
}

// SelectAllSQL builds a SELECT of every schema column, ordered by the
// primary key so fetches are deterministic.
func SelectAllSQL(table string, schema Schema) string {
	names := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		names[i] = c.Name
	}
	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), table)
	for _, c := range schema.Columns {
		if c.PrimaryKey {
			q += " ORDER BY " + c.Name
		}
	}
	return q + ";"
}
