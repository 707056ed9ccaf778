package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
// Nested structs are sections; only fields carrying an env tag are read.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)
		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		name, value, err := lookupEnv(field)
		if err != nil {
			return err
		}
		if value == "" {
			continue
		}
		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", name, value, err)
		}
	}

	return nil
}

// lookupEnv resolves the raw value of one tagged field: the env name, then
// envAlt, then the default tag. It returns the name the value is reported under.
func lookupEnv(field reflect.StructField) (name, value string, err error) {
	name = field.Tag.Get("env")
	if name == "" {
		return "", "", nil
	}

	for _, key := range []string{name, field.Tag.Get("envAlt")} {
		if key == "" {
			continue
		}
		if value = os.Getenv(key); value != "" {
			return key, value, nil
		}
	}

	if field.Tag.Get("required") == "true" {
		return name, "", fmt.Errorf("required environment variable %s is not set", name)
	}
	return name, field.Tag.Get("default"), nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks every setting and reports all failures at once.
func (c *Config) Validate() error {
	var errs []string
	errs = append(errs, c.Server.validate()...)
	errs = append(errs, c.Database.validate()...)
	errs = append(errs, c.Dataset.validate()...)
	errs = append(errs, c.Logging.validate()...)

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (c ServerConfig) validate() []string {
	var errs []string
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Port))
	}
	for name, d := range map[string]time.Duration{
		"SERVER_READ_TIMEOUT":  c.ReadTimeout,
		"SERVER_WRITE_TIMEOUT": c.WriteTimeout,
		"SERVER_IDLE_TIMEOUT":  c.IdleTimeout,
	} {
		if d < 0 {
			errs = append(errs, name+" must be non-negative")
		}
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}
	sort.Strings(errs)
	return errs
}

// validate checks the pool only when a reporting store is configured; the
// in-memory snapshot needs none of it.
func (c DatabaseConfig) validate() []string {
	if !c.Enabled() {
		return nil
	}

	var errs []string
	if _, err := pgxpool.ParseConfig(c.URL); err != nil {
		errs = append(errs, "DATABASE_URL is not a valid PostgreSQL connection string")
	}
	if c.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if c.MaxConns < c.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", c.MaxConns, c.MinConns))
	}
	if c.MaxConnLifetime < 0 || c.MaxConnIdleTime < 0 {
		errs = append(errs, "DB_MAX_CONN_LIFETIME and DB_MAX_CONN_IDLE_TIME must be non-negative")
	}
	return errs
}

func (c DatasetConfig) validate() []string {
	var errs []string
	if c.Profile != "" {
		switch strings.ToLower(filepath.Ext(c.Profile)) {
		case ".yaml", ".yml":
		default:
			errs = append(errs, fmt.Sprintf("DATASET_PROFILE (%q) must be a .yaml or .yml file", c.Profile))
		}
	}
	if strings.ContainsAny(c.Name, "\r\n\t") {
		errs = append(errs, "DATASET_NAME must be a single line")
	}
	return errs
}

func (c LoggingConfig) validate() []string {
	var errs []string
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Level))
	}
	switch strings.ToLower(c.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Format))
	}
	return errs
}

// String returns a representation safe for logging. The database URL is masked.
func (c *Config) String() string {
	db := "disabled"
	if c.Database.Enabled() {
		db = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Database: {URL: %s, MaxConns: %d, Publish: %v}, ",
		db, c.Database.MaxConns, c.Database.Publish)
	fmt.Fprintf(&b, "Dataset: {Dir: %q, Profile: %q, Name: %q}, ",
		c.Dataset.Dir, c.Dataset.Profile, c.Dataset.Name)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
