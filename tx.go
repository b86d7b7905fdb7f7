package fluentdb

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// txState is idle when tx is nil and active otherwise.
type txState struct {
	tx *sqlx.Tx
}

func (t txState) active() bool { return t.tx != nil }

// Transaction begins a transaction. It reports false, after logging, when
// one is already active or the driver refuses; nesting is not supported.
func (c *Client) Transaction() bool {
	return c.TransactionContext(context.Background())
}

// TransactionContext is the context-aware variant of Transaction.
func (c *Client) TransactionContext(ctx context.Context) bool {
	if err := c.begin(ctx); err != nil {
		c.log.Error("Database Transaction Start Error", "error", err)
		return false
	}
	return true
}

func (c *Client) begin(ctx context.Context) error {
	if c.tx.active() {
		return ErrTransactionActive
	}
	db, err := c.conn(ctx)
	if err != nil {
		return err
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("fluentdb: begin: %w", err)
	}
	c.tx = txState{tx: tx}
	c.log.Debug("Database Transaction Started")
	return nil
}

// Commit commits the active transaction. Failures are logged and reported
// as false; the Client is idle afterwards either way.
func (c *Client) Commit() bool {
	if !c.tx.active() {
		c.log.Error("Database Transaction Commit Error", "error", ErrNoTransaction)
		return false
	}
	tx := c.tx.tx
	c.tx = txState{}
	if err := tx.Commit(); err != nil {
		c.log.Error("Database Transaction Commit Error", "error", err)
		return false
	}
	c.log.Debug("Database Transaction Committed")
	return true
}

// Rollback rolls back the active transaction. Failures are logged and
// reported as false; the Client is idle afterwards either way.
func (c *Client) Rollback() bool {
	if !c.tx.active() {
		c.log.Error("Database Transaction Rollback Error", "error", ErrNoTransaction)
		return false
	}
	tx := c.tx.tx
	c.tx = txState{}
	if err := tx.Rollback(); err != nil {
		c.log.Error("Database Transaction Rollback Error", "error", err)
		return false
	}
	c.log.Debug("Database Transaction Rolled Back")
	return true
}

// InTransaction reports whether a transaction is active.
func (c *Client) InTransaction() bool {
	return c.tx.active()
}
