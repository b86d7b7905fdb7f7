package fluentdb

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// ResultKind tells how a Result should be read.
type ResultKind uint8

const (
	// ResultNone is the "false" outcome: no rows matched, or a helper was
	// given structurally invalid input.
	ResultNone ResultKind = iota
	// ResultOK is a plain success with nothing else to report.
	ResultOK
	// ResultID carries the identifier generated by an INSERT.
	ResultID
	// ResultCount carries a row count (affected or inserted rows).
	ResultCount
	// ResultRows carries fetched records.
	ResultRows
)

// String returns the name of the kind.
func (k ResultKind) String() string {
	switch k {
	case ResultOK:
		return "ok"
	case ResultID:
		return "id"
	case ResultCount:
		return "count"
	case ResultRows:
		return "rows"
	default:
		return "none"
	}
}

// Result is the outcome of Fetch, Execute, Raw and the write helpers.
type Result struct {
	Kind     ResultKind
	ID       int64
	Affected int64
	Records  []Record
}

// OK reports whether the result is anything but ResultNone.
func (r Result) OK() bool { return r.Kind != ResultNone }

// First returns the first record, or nil.
func (r Result) First() Record {
	if len(r.Records) == 0 {
		return nil
	}
	return r.Records[0]
}

// Len returns the number of records.
func (r Result) Len() int { return len(r.Records) }

// verb returns the upper-cased first six characters of the trimmed statement.
func verb(q string) string {
	q = strings.TrimSpace(q)
	if len(q) > 6 {
		q = q[:6]
	}
	return strings.ToUpper(q)
}

// execer returns the active transaction, or the (lazily connected) handle.
func (c *Client) execer(ctx context.Context) (sqlx.ExtContext, error) {
	if c.tx.active() {
		return c.tx.tx, nil
	}
	return c.conn(ctx)
}

// prepare checks the builder state before a Fetch or Execute.
func (c *Client) prepare(op string) error {
	if c.state.sql == "" {
		c.log.Error("Database "+op+" Failed - No Query Set", "error", ErrNoQuery)
		return ErrNoQuery
	}
	if c.state.err != nil {
		c.log.Error("Database "+op+" Failed", "error", c.state.err)
		return c.state.err
	}
	return nil
}

// bind renders the final statement and driver arguments, logging each bound
// parameter with its wire type.
func (c *Client) bind(q string, p params) (string, []any, error) {
	if p.empty() {
		c.log.Debug("Database Bind Params - No Parameters to Bind")
		return q, nil, nil
	}
	stmt, args, err := bindArgs(c.dialect, q, p)
	if err != nil {
		c.log.Error("Database Bind Params Error", "error", err)
		return "", nil, err
	}
	for i, v := range p.positional {
		c.log.Debug("Database Parameter Bound",
			"index", i+1,
			"param_type", v.Kind().String(),
			"wire_type", v.Wire().String(),
		)
	}
	for name, v := range p.named {
		c.log.Debug("Database Parameter Bound",
			"name", name,
			"param_type", v.Kind().String(),
			"wire_type", v.Wire().String(),
		)
	}
	c.log.Debug("Database Bind Params Completed Successfully", "total_bound", len(args))
	return stmt, args, nil
}

// queryRecords runs a row-returning statement and materialises up to limit
// records (all when limit <= 0).
func (c *Client) queryRecords(ctx context.Context, op, q string, p params, shape Shape, limit int) ([]Record, error) {
	stmt, args, err := c.bind(q, p)
	if err != nil {
		return nil, err
	}
	ex, err := c.execer(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := ex.QueryxContext(ctx, stmt, args...)
	if err != nil {
		c.profile.record(stmt, args, start)
		c.log.Error("Database "+op+" Error", "error", err)
		return nil, &QueryError{Op: strings.ToLower(op), Query: stmt, Args: args, Err: err}
	}
	recs, err := scanRecords(rows, shape, limit)
	closeErr := rows.Close()
	c.profile.record(stmt, args, start)
	if err == nil {
		err = closeErr
	}
	if err != nil {
		c.log.Error("Database "+op+" Error", "error", err)
		return nil, &QueryError{Op: strings.ToLower(op), Query: stmt, Args: args, Err: err}
	}
	return recs, nil
}

// execStatement runs a statement that returns no rows and applies verb dispatch.
func (c *Client) execStatement(ctx context.Context, op, q string, p params) (Result, error) {
	stmt, args, err := c.bind(q, p)
	if err != nil {
		return Result{}, err
	}
	ex, err := c.execer(ctx)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	res, err := ex.ExecContext(ctx, stmt, args...)
	c.profile.record(stmt, args, start)
	if err != nil {
		c.log.Error("Database "+op+" Error", "error", err)
		return Result{}, &QueryError{Op: strings.ToLower(op), Query: stmt, Args: args, Err: err}
	}
	c.log.Debug("Database Query Executed Successfully")
	return c.dispatch(op, stmt, args, res)
}

// dispatch interprets res by the statement's leading verb: INSERT yields the
// new id (or OK when the driver reports none), UPDATE and DELETE the
// affected-row count, anything else OK.
func (c *Client) dispatch(op, stmt string, args []any, res sql.Result) (Result, error) {
	switch v := verb(stmt); v {
	case "INSERT":
		id, err := res.LastInsertId()
		if err != nil {
			c.log.Debug("Database INSERT Executed", "last_insert_id", "unavailable")
			return Result{Kind: ResultOK}, nil
		}
		c.log.Debug("Database INSERT Executed", "last_insert_id", id)
		if id == 0 {
			return Result{Kind: ResultOK}, nil
		}
		c.lastID = id
		return Result{Kind: ResultID, ID: id}, nil
	case "UPDATE", "DELETE":
		n, err := res.RowsAffected()
		if err != nil {
			c.log.Error("Database "+op+" Error", "error", err)
			return Result{}, &QueryError{Op: strings.ToLower(op), Query: stmt, Args: args, Err: err}
		}
		c.log.Debug("Database "+v+" Executed", "affected_rows", n)
		return Result{Kind: ResultCount, Affected: n}, nil
	default:
		c.log.Debug("Database " + v + " Executed")
		return Result{Kind: ResultOK}, nil
	}
}

// Fetch runs the current query and returns its rows. See FetchContext.
func (c *Client) Fetch(limit ...int) (Result, error) {
	return c.FetchContext(context.Background(), limit...)
}

// FetchContext runs the current query and returns its rows as ResultRows,
// or ResultNone when nothing matched. A limit of 1 forces single mode for
// this call; a limit above 1 forces many mode and caps the record count.
// The builder state is left untouched.
func (c *Client) FetchContext(ctx context.Context, limit ...int) (Result, error) {
	if err := c.prepare("Fetch"); err != nil {
		return Result{}, err
	}

	single, max := c.state.single, 0
	if len(limit) > 0 {
		switch l := limit[0]; {
		case l == 1:
			single = true
			c.log.Debug("Database Fetch Mode Auto-Set to Single (limit=1)")
		case l > 1:
			single, max = false, l
			c.log.Debug("Database Fetch Mode Auto-Set to Many", "limit", l)
		}
	}
	if single {
		max = 1
	}

	recs, err := c.queryRecords(ctx, "Fetch", c.state.sql, c.state.params, c.state.shape, max)
	if err != nil {
		return Result{}, err
	}
	c.log.Debug("Database Records Fetched",
		"single", single,
		"has_results", len(recs) > 0,
		"result_count", len(recs),
	)
	if len(recs) == 0 {
		return Result{Kind: ResultNone}, nil
	}
	return Result{Kind: ResultRows, Records: recs}, nil
}

// First returns the first record of the current query. See FirstContext.
func (c *Client) First() (Record, bool, error) {
	return c.FirstContext(context.Background())
}

// FirstContext switches to single mode and fetches; ok is false when no row
// matched.
func (c *Client) FirstContext(ctx context.Context) (Record, bool, error) {
	res, err := c.Single().FetchContext(ctx)
	if err != nil {
		return nil, false, err
	}
	return res.First(), res.OK(), nil
}

// FetchInto runs the current query and scans into dest. See FetchIntoContext.
func (c *Client) FetchInto(dest any) error {
	return c.FetchIntoContext(context.Background(), dest)
}

// FetchIntoContext runs the current query and scans the result into dest
// using `db` struct tags: a pointer to a struct (or scalar) in single mode,
// a pointer to a slice otherwise. Single mode returns ErrNoRows when
// nothing matched.
func (c *Client) FetchIntoContext(ctx context.Context, dest any) error {
	if err := c.prepare("Fetch"); err != nil {
		return err
	}
	stmt, args, err := c.bind(c.state.sql, c.state.params)
	if err != nil {
		return err
	}
	ex, err := c.execer(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	if c.state.single {
		err = sqlx.GetContext(ctx, ex, dest, stmt, args...)
	} else {
		err = sqlx.SelectContext(ctx, ex, dest, stmt, args...)
	}
	c.profile.record(stmt, args, start)
	if errors.Is(err, sql.ErrNoRows) {
		c.log.Debug("Database Single Record Fetched", "has_result", false)
		return ErrNoRows
	}
	if err != nil {
		c.log.Error("Database Fetch Error", "error", err)
		return &QueryError{Op: "fetch", Query: stmt, Args: args, Err: err}
	}
	return nil
}

// Execute runs the current statement. See ExecuteContext.
func (c *Client) Execute() (Result, error) {
	return c.ExecuteContext(context.Background())
}

// ExecuteContext runs the current statement and interprets the outcome by
// its leading verb: ResultID for an INSERT that generated an id, ResultCount
// for UPDATE/DELETE (possibly zero), ResultOK otherwise.
func (c *Client) ExecuteContext(ctx context.Context) (Result, error) {
	if err := c.prepare("Execute"); err != nil {
		return Result{}, err
	}
	return c.execStatement(ctx, "Execute", c.state.sql, c.state.params)
}

// Raw runs q directly. See RawContext.
func (c *Client) Raw(q string, args ...any) (Result, error) {
	return c.RawContext(context.Background(), q, args...)
}

// RawContext runs q with args, bypassing and preserving the builder state.
// SELECT statements return *Object records (or ResultNone); other verbs are
// dispatched as in ExecuteContext. args follow the Bind conventions.
func (c *Client) RawContext(ctx context.Context, q string, args ...any) (Result, error) {
	if strings.TrimSpace(q) == "" {
		c.log.Error("Database Raw Query Failed - No Query Set", "error", ErrNoQuery)
		return Result{}, ErrNoQuery
	}
	p, err := newParams(args)
	if err != nil {
		c.log.Error("Database Raw Query Error", "error", err)
		return Result{}, err
	}
	if verb(q) != "SELECT" {
		return c.execStatement(ctx, "Raw Query", q, p)
	}

	recs, err := c.queryRecords(ctx, "Raw Query", q, p, ShapeObject, 0)
	if err != nil {
		return Result{}, err
	}
	c.log.Debug("Database Raw SELECT Results",
		"has_results", len(recs) > 0,
		"result_count", len(recs),
	)
	if len(recs) == 0 {
		return Result{Kind: ResultNone}, nil
	}
	return Result{Kind: ResultRows, Records: recs}, nil
}

// LastID returns the id generated by the most recent INSERT run through this
// Client; ok is false when there has been none.
func (c *Client) LastID() (int64, bool) {
	return c.lastID, c.lastID != 0
}
