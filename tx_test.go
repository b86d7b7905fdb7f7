package fluentdb

import (
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

// TestTransaction_RollbackDiscards verifies that rolled back writes vanish.
func TestTransaction_RollbackDiscards(t *testing.T) {
	c := newSQLiteClient(t)

	if !c.Transaction() || !c.InTransaction() {
		t.Fatalf("Transaction() did not start")
	}
	res, err := c.Query("INSERT INTO users (name, email) VALUES (?, ?)").Bind("Temp", "temp@example.com").Execute()
	assertNoError(t, err)
	if res.Kind != ResultID {
		t.Fatalf("insert: %+v", res)
	}

	// visible inside the transaction
	n, err := c.Count("users", "", "email = ?", "temp@example.com")
	assertNoError(t, err)
	if n != 1 {
		t.Fatalf("count inside tx = %d", n)
	}

	if !c.Rollback() || c.InTransaction() {
		t.Fatalf("Rollback() failed")
	}
	res, err = c.Query("SELECT * FROM users WHERE email = ?").Bind("temp@example.com").Single().Fetch()
	assertNoError(t, err)
	if res.OK() {
		t.Fatalf("row survived rollback: %v", res.First())
	}
}

// TestTransaction_CommitPersists verifies committed writes remain.
func TestTransaction_CommitPersists(t *testing.T) {
	c := newSQLiteClient(t)

	if !c.Transaction() {
		t.Fatalf("Transaction() = false")
	}
	_, err := c.Query("UPDATE users SET age = ? WHERE id = ?").Bind(31, 1).Execute()
	assertNoError(t, err)
	if !c.Commit() {
		t.Fatalf("Commit() = false")
	}

	rec, ok, err := c.Query("SELECT age FROM users WHERE id = 1").First()
	assertNoError(t, err)
	if !ok || rec.(*Object).Int("age") != 31 {
		t.Fatalf("age not committed: %v", rec)
	}
}

// TestTransaction_StateErrors rejects nesting and idle commit/rollback.
func TestTransaction_StateErrors(t *testing.T) {
	c := newSQLiteClient(t)

	if c.Commit() || c.Rollback() {
		t.Fatalf("Commit/Rollback without a transaction reported true")
	}
	if !c.Transaction() {
		t.Fatalf("Transaction() = false")
	}
	if c.Transaction() {
		t.Fatalf("nested Transaction() reported true")
	}
	if !c.InTransaction() {
		t.Fatalf("rejected nesting ended the outer transaction")
	}
	if !c.Rollback() {
		t.Fatalf("Rollback() = false")
	}
	if err := c.begin(t.Context()); err != nil {
		t.Fatalf("begin after rollback: %v", err)
	}
	if err := c.begin(t.Context()); !errors.Is(err, ErrTransactionActive) {
		t.Fatalf("err=%v, want ErrTransactionActive", err)
	}
	c.Rollback()
}

// TestTransaction_DriverFailures converts driver errors to false and leaves
// the tracker idle.
func TestTransaction_DriverFailures(t *testing.T) {
	c, mock := newMockClient(t, MySQL)
	boom := errors.New("boom")

	mock.ExpectBegin().WillReturnError(boom)
	if c.Transaction() {
		t.Fatalf("Transaction() = true on begin failure")
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE t SET a = ?").WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(boom)
	if !c.Transaction() {
		t.Fatalf("Transaction() = false")
	}
	_, err := c.Query("UPDATE t SET a = ?").Bind(1).Execute()
	assertNoError(t, err)
	if c.Commit() {
		t.Fatalf("Commit() = true on driver failure")
	}
	if c.InTransaction() {
		t.Fatalf("tracker still active after failed commit")
	}

	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(boom)
	if !c.Transaction() {
		t.Fatalf("Transaction() = false")
	}
	if c.Rollback() || c.InTransaction() {
		t.Fatalf("Rollback() failure not reported or tracker still active")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
