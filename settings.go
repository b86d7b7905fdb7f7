package fluentdb

import (
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/go-viper/mapstructure/v2"
)

// Settings describes how a Client reaches its database.
type Settings struct {
	// Driver is "mysql" or "sqlite".
	Driver string `mapstructure:"driver"`
	// Server is the MySQL host, optionally with ":port".
	Server   string `mapstructure:"server"`
	Schema   string `mapstructure:"schema"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// Charset and Collation default to utf8mb4 / utf8mb4_unicode_ci.
	Charset   string `mapstructure:"charset"`
	Collation string `mapstructure:"collation"`
	// Path is the SQLite database file; empty means ":memory:".
	Path string `mapstructure:"path"`
}

const (
	defaultCharset   = "utf8mb4"
	defaultCollation = "utf8mb4_unicode_ci"
	memoryPath       = ":memory:"
)

// DecodeSettings builds Settings from a Settings value, a pointer to one, or
// a string-keyed map as found in configuration files.
func DecodeSettings(src any) (Settings, error) {
	switch t := src.(type) {
	case nil:
		return Settings{}, ErrMissingSettings
	case Settings:
		return t, nil
	case *Settings:
		if t == nil {
			return Settings{}, ErrMissingSettings
		}
		return *t, nil
	}

	var s Settings
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		WeaklyTypedInput: true,
		MatchName: func(mapKey, fieldName string) bool {
			return strings.EqualFold(mapKey, fieldName)
		},
	})
	if err != nil {
		return Settings{}, err
	}
	if err := dec.Decode(src); err != nil {
		return Settings{}, fmt.Errorf("fluentdb: decode settings: %w", err)
	}
	return s, nil
}

// Validate checks that the fields required by the driver are present.
// SQLite needs nothing; every other driver needs server, schema, username
// and password.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Driver) == "" {
		return &MissingConfigFieldError{Field: "driver"}
	}
	d, err := ParseDialect(s.Driver)
	if err != nil {
		return err
	}
	if d == SQLite {
		return nil
	}
	required := []struct {
		name, val string
	}{
		{"server", s.Server},
		{"schema", s.Schema},
		{"username", s.Username},
		{"password", s.Password},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			return &MissingConfigFieldError{Driver: s.Driver, Field: r.name}
		}
	}
	return nil
}

// withDefaults fills charset, collation and path.
func (s Settings) withDefaults() Settings {
	if s.Charset == "" {
		s.Charset = defaultCharset
	}
	if s.Collation == "" {
		s.Collation = defaultCollation
	}
	if s.Path == "" {
		s.Path = memoryPath
	}
	return s
}

// DSN renders the data source name for the dialect's driver.
func (s Settings) DSN(d Dialect) string {
	if d == SQLite {
		return s.Path
	}
	cfg := mysql.NewConfig()
	cfg.User = s.Username
	cfg.Passwd = s.Password
	cfg.Net = "tcp"
	cfg.Addr = s.Server
	cfg.DBName = s.Schema
	cfg.Collation = s.Collation
	cfg.Params = map[string]string{"charset": s.Charset}
	return cfg.FormatDSN()
}
