package fluentdb

import (
	"context"
	"fmt"
)

// valueMap classifies every entry of m.
func valueMap(m map[string]any) (map[string]Value, error) {
	out := make(map[string]Value, len(m))
	for k, a := range m {
		v, err := ValueOf(a)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// InsertBatch inserts rows into table. See InsertBatchContext.
func (c *Client) InsertBatch(table string, columns []string, rows [][]any) (Result, error) {
	return c.InsertBatchContext(context.Background(), table, columns, rows)
}

// InsertBatchContext inserts rows into table with multi-row INSERT
// statements and returns ResultCount with the number of rows. Each row must
// have exactly one value per column; otherwise, or when columns or rows is
// empty, ResultNone is returned without touching the database.
//
// Rows are split so no statement exceeds the dialect's parameter limit.
// Outside a transaction the statements run in one of their own; inside one
// they join it and leave commit or rollback to the caller.
func (c *Client) InsertBatchContext(ctx context.Context, table string, columns []string, rows [][]any) (Result, error) {
	if len(columns) == 0 || len(rows) == 0 {
		c.log.Error("Database Insert Batch Error", "error", "columns and rows must not be empty")
		return Result{Kind: ResultNone}, nil
	}
	vals := make([][]Value, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			c.log.Error("Database Insert Batch Error",
				"error", "row length does not match column count",
				"row", i,
				"columns", len(columns),
				"values", len(row),
			)
			return Result{Kind: ResultNone}, nil
		}
		vals[i] = make([]Value, len(row))
		for j, a := range row {
			v, err := ValueOf(a)
			if err != nil {
				c.log.Error("Database Insert Batch Error", "error", err)
				return Result{}, fmt.Errorf("row %d column %q: %w", i, columns[j], err)
			}
			vals[i][j] = v
		}
	}

	per := c.dialect.MaxParams() / len(columns)
	if per == 0 {
		err := fmt.Errorf("%w: %d columns, limit is %d", ErrTooManyParams, len(columns), c.dialect.MaxParams())
		c.log.Error("Database Insert Batch Error", "error", err)
		return Result{}, err
	}

	own := !c.tx.active()
	if own {
		if err := c.begin(ctx); err != nil {
			c.log.Error("Database Insert Batch Error", "error", err)
			return Result{}, err
		}
	}
	for start := 0; start < len(vals); start += per {
		end := min(start+per, len(vals))
		q, flat, err := c.dialect.insertBatchSQL(table, columns, vals[start:end])
		if err == nil {
			_, err = c.execStatement(ctx, "Insert Batch", q, params{positional: flat})
		}
		if err != nil {
			if own {
				c.Rollback()
			}
			return Result{}, err
		}
	}
	if own && !c.Commit() {
		return Result{}, fmt.Errorf("fluentdb: insert batch into %s: commit failed", table)
	}

	c.log.Debug("Database Insert Batch Completed", "table", table, "rows", len(rows))
	return Result{Kind: ResultCount, Affected: int64(len(rows))}, nil
}

// Replace inserts or overwrites a row. See ReplaceContext.
func (c *Client) Replace(table string, data map[string]any) (Result, error) {
	return c.ReplaceContext(context.Background(), table, data)
}

// ReplaceContext inserts data into table, overwriting any row with the same
// primary or unique key (REPLACE INTO on MySQL, INSERT OR REPLACE INTO on
// SQLite). An empty data map yields ResultNone.
func (c *Client) ReplaceContext(ctx context.Context, table string, data map[string]any) (Result, error) {
	if len(data) == 0 {
		c.log.Error("Database Replace Error", "error", "data must not be empty")
		return Result{Kind: ResultNone}, nil
	}
	m, err := valueMap(data)
	if err != nil {
		c.log.Error("Database Replace Error", "error", err)
		return Result{}, err
	}
	q, vals, err := c.dialect.replaceSQL(table, m)
	if err != nil {
		c.log.Error("Database Replace Error", "error", err)
		return Result{}, err
	}
	return c.execStatement(ctx, "Replace", q, params{positional: vals})
}

// Upsert inserts a row or updates it on key conflict. See UpsertContext.
func (c *Client) Upsert(table string, data, update map[string]any) (Result, error) {
	return c.UpsertContext(context.Background(), table, data, update)
}

// UpsertContext inserts data into table; when the insert collides with an
// existing key the columns in update are assigned instead. Either map being
// empty yields ResultNone.
//
// The Result is dispatched as an INSERT. When the update branch runs, the
// driver's last insert id is not the updated row: SQLite keeps reporting the
// previous insert's rowid (and LastID takes that value), MySQL reports the
// row only if it was inserted. Look the row up by its key when the id
// matters.
func (c *Client) UpsertContext(ctx context.Context, table string, data, update map[string]any) (Result, error) {
	if len(data) == 0 || len(update) == 0 {
		c.log.Error("Database Upsert Error", "error", "data and update must not be empty")
		return Result{Kind: ResultNone}, nil
	}
	dm, err := valueMap(data)
	if err != nil {
		c.log.Error("Database Upsert Error", "error", err)
		return Result{}, err
	}
	um, err := valueMap(update)
	if err != nil {
		c.log.Error("Database Upsert Error", "error", err)
		return Result{}, err
	}
	q, vals, err := c.dialect.upsertSQL(table, dm, um)
	if err != nil {
		c.log.Error("Database Upsert Error", "error", err)
		return Result{}, err
	}
	return c.execStatement(ctx, "Upsert", q, params{positional: vals})
}

// Count counts rows of table. See CountContext.
func (c *Client) Count(table, column, where string, args ...any) (int64, error) {
	return c.CountContext(context.Background(), table, column, where, args...)
}

// CountContext returns SELECT COUNT(column) FROM table [WHERE where]. column
// is used verbatim ("*" when empty) so "DISTINCT col" works; where may hold
// placeholders bound from args. The builder state is not touched.
func (c *Client) CountContext(ctx context.Context, table, column, where string, args ...any) (int64, error) {
	q, err := c.dialect.countSQL(table, column, where)
	if err != nil {
		c.log.Error("Database Count Error", "error", err)
		return 0, err
	}
	p, err := newParams(args)
	if err != nil {
		c.log.Error("Database Count Error", "error", err)
		return 0, err
	}
	recs, err := c.queryRecords(ctx, "Count", q, p, ShapeObject, 1)
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 {
		return 0, nil
	}
	o := recs[0].(*Object)
	cols := o.Columns()
	if len(cols) == 0 {
		return 0, nil
	}
	return o.Int(cols[0]), nil
}

// Exists checks table for a matching row. See ExistsContext.
func (c *Client) Exists(table, where string, args ...any) (bool, error) {
	return c.ExistsContext(context.Background(), table, where, args...)
}

// ExistsContext reports whether at least one row of table matches where.
// The builder state is not touched.
func (c *Client) ExistsContext(ctx context.Context, table, where string, args ...any) (bool, error) {
	q, err := c.dialect.existsSQL(table, where)
	if err != nil {
		c.log.Error("Database Exists Error", "error", err)
		return false, err
	}
	p, err := newParams(args)
	if err != nil {
		c.log.Error("Database Exists Error", "error", err)
		return false, err
	}
	recs, err := c.queryRecords(ctx, "Exists", q, p, ShapeObject, 1)
	if err != nil {
		return false, err
	}
	return len(recs) > 0, nil
}

// Quote returns s as a string literal escaped for the Client's dialect.
// Prefer bound parameters; Quote is for statements that cannot take them.
func (c *Client) Quote(s string) string {
	return c.dialect.Quote(s)
}
