package fluentdb

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
)

// TestDecodeSettings_Sources accepts structs, pointers and maps.
func TestDecodeSettings_Sources(t *testing.T) {
	want := mysqlSettings()

	got, err := DecodeSettings(want)
	assertNoError(t, err)
	if got != want {
		t.Fatalf("struct: got %+v", got)
	}
	got, err = DecodeSettings(&want)
	assertNoError(t, err)
	if got != want {
		t.Fatalf("pointer: got %+v", got)
	}

	got, err = DecodeSettings(map[string]any{
		"Driver":   "mysql",
		"SERVER":   "localhost:3306",
		"schema":   "app",
		"username": "app",
		"password": "secret",
	})
	assertNoError(t, err)
	if got != want {
		t.Fatalf("map: got %+v", got)
	}

	got, err = DecodeSettings(map[string]string{"driver": "sqlite", "path": "/tmp/x.db"})
	assertNoError(t, err)
	if got.Driver != "sqlite" || got.Path != "/tmp/x.db" {
		t.Fatalf("string map: got %+v", got)
	}
}

// TestDecodeSettings_Errors covers nil input and undecodable sources.
func TestDecodeSettings_Errors(t *testing.T) {
	var nilPtr *Settings
	for _, in := range []any{nil, nilPtr} {
		if _, err := DecodeSettings(in); !errors.Is(err, ErrMissingSettings) {
			t.Fatalf("DecodeSettings(%#v) err=%v, want ErrMissingSettings", in, err)
		}
	}
	if _, err := DecodeSettings(map[string]any{"driver": map[string]any{"name": "mysql"}}); err == nil {
		t.Fatalf("expected decode error")
	}
}

// TestSettings_Validate names each missing MySQL field in turn.
func TestSettings_Validate(t *testing.T) {
	assertNoError(t, Settings{Driver: "sqlite"}.Validate())
	assertNoError(t, mysqlSettings().Validate())

	for _, field := range []string{"server", "schema", "username", "password"} {
		s := mysqlSettings()
		switch field {
		case "server":
			s.Server = ""
		case "schema":
			s.Schema = ""
		case "username":
			s.Username = ""
		case "password":
			s.Password = " "
		}
		err := s.Validate()
		var mf *MissingConfigFieldError
		if !errors.As(err, &mf) || mf.Field != field || mf.Driver != "mysql" {
			t.Fatalf("%s: err=%v", field, err)
		}
		if !errors.Is(err, ErrMissingConfigField) {
			t.Fatalf("%s: err does not match ErrMissingConfigField", field)
		}
	}
}

// TestSettings_DSN renders driver data source names.
func TestSettings_DSN(t *testing.T) {
	s := Settings{Driver: "sqlite"}.withDefaults()
	if got := s.DSN(SQLite); got != ":memory:" {
		t.Fatalf("sqlite dsn=%q", got)
	}

	s = mysqlSettings().withDefaults()
	dsn := s.DSN(MySQL)
	cfg, err := mysql.ParseDSN(dsn)
	assertNoError(t, err)
	if cfg.User != "app" || cfg.Passwd != "secret" || cfg.Addr != "localhost:3306" || cfg.DBName != "app" || cfg.Net != "tcp" {
		t.Fatalf("parsed dsn %q: %+v", dsn, cfg)
	}
	if !strings.Contains(dsn, "charset=utf8mb4") {
		t.Fatalf("dsn %q lacks charset", dsn)
	}
}

// TestSettings_Defaults fills charset, collation and path only when empty.
func TestSettings_Defaults(t *testing.T) {
	s := Settings{Driver: "mysql", Charset: "latin1"}.withDefaults()
	if s.Charset != "latin1" || s.Collation != defaultCollation || s.Path != memoryPath {
		t.Fatalf("defaults: %+v", s)
	}
}
