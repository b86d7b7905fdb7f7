package fluentdb

import (
	"errors"
	"fmt"
)

var (
	ErrNoQuery            = errors.New("fluentdb: no query has been set; call Query() first")
	ErrMissingSettings    = errors.New("fluentdb: database settings required")
	ErrMissingConfigField = errors.New("fluentdb: missing required property")
	ErrUnsupportedDriver  = errors.New("fluentdb: unsupported driver")
	ErrUnsupportedParam   = errors.New("fluentdb: unsupported parameter type")
	ErrParamMissing       = errors.New("fluentdb: missing parameter")
	ErrParamNameTooLong   = errors.New("fluentdb: parameter name too long")
	ErrTooManyParams      = errors.New("fluentdb: too many parameters")
	ErrInvalidIdentifier  = errors.New("fluentdb: invalid SQL identifier")
	ErrTransactionActive  = errors.New("fluentdb: transaction already active")
	ErrNoTransaction      = errors.New("fluentdb: no active transaction")
	ErrNoRows             = errors.New("fluentdb: no rows in result set")
)

// QueryError wraps a driver failure with the statement that caused it.
type QueryError struct {
	Op    string
	Query string
	Args  []any
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("fluentdb: %s %q: %v", e.Op, e.Query, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// MissingConfigFieldError names the settings field that failed validation.
type MissingConfigFieldError struct {
	Driver string
	Field  string
}

func (e *MissingConfigFieldError) Error() string {
	return fmt.Sprintf("fluentdb: %s settings missing required property %q", e.Driver, e.Field)
}

func (e *MissingConfigFieldError) Is(target error) bool {
	return target == ErrMissingConfigField
}

// IdentifierError reports a table or column name rejected by the generator.
type IdentifierError struct {
	Identifier string
	Reason     string
}

func (e *IdentifierError) Error() string {
	return fmt.Sprintf("fluentdb: invalid identifier %q: %s", e.Identifier, e.Reason)
}

func (e *IdentifierError) Is(target error) bool {
	return target == ErrInvalidIdentifier
}
