package fluentdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	_ "github.com/mattn/go-sqlite3"
)

// Shape selects how fetched rows are materialised.
type Shape uint8

const (
	// ShapeObject yields *Object records (attribute-style access).
	ShapeObject Shape = iota
	// ShapeArray yields Assoc records (keyed mapping).
	ShapeArray
)

// String returns "object" or "array".
func (s Shape) String() string {
	if s == ShapeArray {
		return "array"
	}
	return "object"
}

// Opener opens a database handle. It must not perform network I/O beyond
// what sql.Open does; the Client pings the handle itself on first use.
type Opener func(driverName, dsn string) (*sql.DB, error)

// options collects what Option values set. Applying an Option has no other
// effect, so the same list can be read by a Registry and by each Client.
type options struct {
	log       *slog.Logger
	open      Opener
	profiling bool
}

func newOptions(opts []Option) options {
	o := options{
		log:  slog.New(slog.DiscardHandler),
		open: sql.Open,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Option configures a Client.
type Option func(*options)

// WithLogger routes the Client's debug and error records to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithOpener replaces sql.Open for the lazy connect.
func WithOpener(open Opener) Option {
	return func(o *options) {
		if open != nil {
			o.open = open
		}
	}
}

// WithDB hands the Client an already opened handle. The Client still pings it
// lazily and closes it on Close.
func WithDB(db *sql.DB) Option {
	return WithOpener(func(string, string) (*sql.DB, error) { return db, nil })
}

// WithProfiling sets the initial profiling state.
func WithProfiling(enabled bool) Option {
	return func(o *options) {
		o.profiling = enabled
	}
}

// queryState is the in-flight query of a Client.
type queryState struct {
	sql    string
	params params
	single bool
	shape  Shape
	err    error
}

// Client is one logical database connection with a fluent query builder.
// A Client is NOT safe for concurrent use; obtain one per goroutine.
type Client struct {
	id       uuid.UUID
	dialect  Dialect
	settings Settings

	open Opener
	log  *slog.Logger

	connMu sync.Mutex
	db     *sqlx.DB

	state   queryState
	tx      txState
	profile profiler
	lastID  int64
}

// New validates settings and returns an unconnected Client. No I/O happens
// until the first statement runs.
func New(settings Settings, opts ...Option) (*Client, error) {
	o := newOptions(opts)
	c := &Client{
		id:   uuid.New(),
		open: o.open,
	}
	c.profile.enabled = o.profiling
	c.log = o.log.With("client", c.id.String())

	if err := settings.Validate(); err != nil {
		c.log.Error("Database Constructor Failed", "error", err)
		return nil, err
	}
	d, err := ParseDialect(settings.Driver)
	if err != nil {
		c.log.Error("Database Constructor Failed", "error", err)
		return nil, err
	}
	c.dialect = d
	c.settings = settings.withDefaults()
	c.state = queryState{}

	c.log.Debug("Database Client Created", "driver", d.String())
	return c, nil
}

// Configure decodes src (Settings, *Settings or a string-keyed map) and
// returns a new Client.
func Configure(src any, opts ...Option) (*Client, error) {
	s, err := DecodeSettings(src)
	if err != nil {
		return nil, err
	}
	return New(s, opts...)
}

// ID returns the Client's instance id, as logged in the "client" attribute.
func (c *Client) ID() uuid.UUID { return c.id }

// Dialect returns the Client's SQL dialect.
func (c *Client) Dialect() Dialect { return c.dialect }

// Settings returns the effective settings, defaults applied.
func (c *Client) Settings() Settings { return c.settings }

// Query resets the builder and stores q as the current statement.
func (c *Client) Query(q string) *Client {
	c.Reset()
	c.state.sql = q
	c.log.Debug("Database Query Stored Successfully")
	return c
}

// Bind replaces the parameters of the current statement. It accepts a single
// scalar, several scalars, one []any / []Value sequence, or one
// map[string]any / Named / map[string]Value mapping. Classification errors
// are reported by the next Fetch or Execute.
func (c *Client) Bind(args ...any) *Client {
	p, err := newParams(args)
	if err != nil {
		c.state.params = params{}
		c.state.err = err
		c.log.Error("Database Bind Params Error", "error", err)
		return c
	}
	c.state.params = p
	c.state.err = nil
	c.log.Debug("Database Parameters Bound Successfully",
		"param_count", p.len(),
		"param_types", p.kinds(),
	)
	return c
}

// Single makes Fetch return at most one record.
func (c *Client) Single() *Client {
	c.state.single = true
	return c
}

// Many makes Fetch return every record (the default).
func (c *Client) Many() *Client {
	c.state.single = false
	return c
}

// AsArray makes Fetch return Assoc records.
func (c *Client) AsArray() *Client {
	c.state.shape = ShapeArray
	return c
}

// AsObject makes Fetch return *Object records (the default).
func (c *Client) AsObject() *Client {
	c.state.shape = ShapeObject
	return c
}

// Reset clears the statement, its parameters and the fetch flags.
func (c *Client) Reset() *Client {
	c.state = queryState{}
	c.log.Debug("Database Reset Completed")
	return c
}

// conn returns the database handle, opening and pinging it on first use.
func (c *Client) conn(ctx context.Context) (*sqlx.DB, error) {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.db != nil {
		return c.db, nil
	}

	name := c.dialect.driverName()
	raw, err := c.open(name, c.settings.DSN(c.dialect))
	if err != nil {
		c.log.Error("Database Connection Failed", "error", err)
		return nil, fmt.Errorf("fluentdb: open %s: %w", c.dialect, err)
	}
	if c.dialect == SQLite {
		// every pooled connection to ":memory:" would see its own database
		raw.SetMaxOpenConns(1)
	}
	if err := raw.PingContext(ctx); err != nil {
		_ = raw.Close()
		c.log.Error("Database Connection Failed", "error", err)
		return nil, fmt.Errorf("fluentdb: connect %s: %w", c.dialect, err)
	}
	db := sqlx.NewDb(raw, name)

	if c.dialect == MySQL {
		stmt := fmt.Sprintf("SET NAMES %s COLLATE %s", c.settings.Charset, c.settings.Collation)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			c.log.Error("Database Character Encoding Failed", "error", err)
			return nil, &QueryError{Op: "connect", Query: stmt, Err: err}
		}
		c.log.Debug("Database Character Encoding Set",
			"charset", c.settings.Charset,
			"collation", c.settings.Collation,
		)
	}

	c.db = db
	c.log.Debug("Database Connection Established", "driver", name)
	return db, nil
}

// Connected reports whether the lazy connect has happened.
func (c *Client) Connected() bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.db != nil
}

// Close resets the builder, rolls back an open transaction and releases the
// database handle. The Client may connect again afterwards.
func (c *Client) Close() error {
	c.Reset()
	if c.tx.active() {
		if err := c.tx.tx.Rollback(); err != nil {
			c.log.Error("Database Transaction Rollback Error", "error", err)
		}
		c.tx = txState{}
	}
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	if err != nil {
		c.log.Error("Database Close Error", "error", err)
		return err
	}
	c.log.Debug("Database Connection Closed")
	return nil
}
