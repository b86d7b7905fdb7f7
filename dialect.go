package fluentdb

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Dialect identifies the SQL flavour used for placeholders, identifier
// quoting, literal escaping and the replace/upsert statement shapes.
type Dialect int

const (
	MySQL Dialect = iota
	SQLite
)

// String returns the string representation of the dialect.
func (d Dialect) String() string {
	switch d {
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// ParseDialect maps a settings driver name to its dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
}

// driverName is the database/sql driver registered for the dialect.
func (d Dialect) driverName() string {
	if d == SQLite {
		return "sqlite3"
	}
	return "mysql"
}

// Placeholder returns the parameter token for argument idx (1-based).
func (d Dialect) Placeholder(int) string {
	return "?"
}

// MaxParams is the number of bound parameters one statement may carry.
func (d Dialect) MaxParams() int {
	switch d {
	case SQLite:
		return 999
	case MySQL:
		return 65535
	}
	return 0
}

// Quote wraps s in single quotes, escaping it for the dialect.
func (d Dialect) Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	if d == SQLite {
		b.WriteString(strings.ReplaceAll(s, "'", "''"))
		b.WriteByte('\'')
		return b.String()
	}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case 0:
			b.WriteString(`\0`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '"':
			b.WriteString(`\"`)
		case '\x1a':
			b.WriteString(`\Z`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// Wrap validates a table or column name and quotes each dotted part.
func (d Dialect) Wrap(id string) (string, error) {
	if id == "" {
		return "", &IdentifierError{Identifier: id, Reason: "identifier cannot be empty"}
	}
	if len(id) > 128 {
		return "", &IdentifierError{Identifier: id, Reason: "identifier exceeds 128 characters"}
	}
	if !identifierRegex.MatchString(id) {
		return "", &IdentifierError{Identifier: id, Reason: "only letters, digits, underscores and one dot are allowed"}
	}
	q := byte('"')
	if d == MySQL {
		q = '`'
	}
	parts := strings.Split(id, ".")
	for i, p := range parts {
		parts[i] = string(q) + p + string(q)
	}
	return strings.Join(parts, "."), nil
}

func (d Dialect) wrapAll(ids []string) ([]string, error) {
	out := make([]string, len(ids))
	for i, id := range ids {
		w, err := d.Wrap(id)
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

// valuesGroup renders "(?, ?, ?)" for n columns.
func (d Dialect) valuesGroup(b *strings.Builder, n, start int) {
	b.WriteByte('(')
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.Placeholder(start + i))
	}
	b.WriteByte(')')
}

// insertBatchSQL builds one multi-row INSERT for rows, binding row-major.
func (d Dialect) insertBatchSQL(table string, columns []string, rows [][]Value) (string, []Value, error) {
	t, err := d.Wrap(table)
	if err != nil {
		return "", nil, err
	}
	cols, err := d.wrapAll(columns)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(t)
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES ")

	vals := make([]Value, 0, len(rows)*len(columns))
	for r, row := range rows {
		if r > 0 {
			b.WriteString(", ")
		}
		d.valuesGroup(&b, len(columns), len(vals)+1)
		vals = append(vals, row...)
	}
	return b.String(), vals, nil
}

// sortedColumns returns the keys of data in ascending order with their values.
func sortedColumns(data map[string]Value) ([]string, []Value) {
	cols := make([]string, 0, len(data))
	for k := range data {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	vals := make([]Value, len(cols))
	for i, c := range cols {
		vals[i] = data[c]
	}
	return cols, vals
}

// insertPrefix renders "<verb> <table> (<cols>) VALUES (?, ...)".
func (d Dialect) insertPrefix(verb, table string, data map[string]Value) (string, []Value, error) {
	t, err := d.Wrap(table)
	if err != nil {
		return "", nil, err
	}
	cols, vals := sortedColumns(data)
	wrapped, err := d.wrapAll(cols)
	if err != nil {
		return "", nil, err
	}
	var b strings.Builder
	b.WriteString(verb)
	b.WriteByte(' ')
	b.WriteString(t)
	b.WriteString(" (")
	b.WriteString(strings.Join(wrapped, ", "))
	b.WriteString(") VALUES ")
	d.valuesGroup(&b, len(cols), 1)
	return b.String(), vals, nil
}

// replaceSQL builds the "insert or overwrite the row with the same key" form.
func (d Dialect) replaceSQL(table string, data map[string]Value) (string, []Value, error) {
	verb := "REPLACE INTO"
	if d == SQLite {
		verb = "INSERT OR REPLACE INTO"
	}
	return d.insertPrefix(verb, table, data)
}

// upsertSQL builds an INSERT whose conflict clause assigns update's columns.
func (d Dialect) upsertSQL(table string, data, update map[string]Value) (string, []Value, error) {
	q, vals, err := d.insertPrefix("INSERT INTO", table, data)
	if err != nil {
		return "", nil, err
	}
	cols, uvals := sortedColumns(update)
	sets := make([]string, len(cols))
	for i, c := range cols {
		w, err := d.Wrap(c)
		if err != nil {
			return "", nil, err
		}
		sets[i] = w + " = " + d.Placeholder(len(vals)+i+1)
	}
	clause := " ON DUPLICATE KEY UPDATE "
	if d == SQLite {
		clause = " ON CONFLICT DO UPDATE SET "
	}
	return q + clause + strings.Join(sets, ", "), append(vals, uvals...), nil
}

// countSQL builds SELECT COUNT(column) FROM table [WHERE where]. The column
// is emitted verbatim so expressions such as "DISTINCT active" work.
func (d Dialect) countSQL(table, column, where string) (string, error) {
	t, err := d.Wrap(table)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(column) == "" {
		column = "*"
	}
	q := "SELECT COUNT(" + column + ") FROM " + t
	if strings.TrimSpace(where) != "" {
		q += " WHERE " + where
	}
	return q, nil
}

// existsSQL builds a one-row lookup for where on table.
func (d Dialect) existsSQL(table, where string) (string, error) {
	t, err := d.Wrap(table)
	if err != nil {
		return "", err
	}
	q := "SELECT 1 FROM " + t
	if strings.TrimSpace(where) != "" {
		q += " WHERE " + where
	}
	return q + " LIMIT 1", nil
}
