package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// DefaultPath — конфиг, который читается, если --config не указан.
const DefaultPath = "proverka.json"

type Config struct {
	Port         string `json:"port"`
	SchemaPath   string `json:"schemaPath"` // файл или каталог со схемами таблиц
	EnumsDir     string `json:"enumsDir"`
	DefaultTable string `json:"defaultTable"` // таблица для маршрутов без :table
	BodyLimit    int64  `json:"bodyLimit"`    // байт

	DBURL         string `json:"dbUrl"` // пусто = журнал только в лог
	AutoMigrate   bool   `json:"autoMigrate"`
	JournalSchema string `json:"journalSchema"`

	LogLevel        string   `json:"logLevel"`  // debug | info | warn | error
	LogFormat       string   `json:"logFormat"` // text | json
	ShutdownTimeout Duration `json:"shutdownTimeout"`
}

// Duration читается из JSON строкой вида "10s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"10s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func def() Config {
	return Config{
		Port:         "8080",
		SchemaPath:   "schema",
		EnumsDir:     "reference/enums",
		DefaultTable: "user",
		BodyLimit:    16 << 10,

		DBURL:         "",
		AutoMigrate:   false,
		JournalSchema: "journal",

		LogLevel:        "info",
		LogFormat:       "text",
		ShutdownTimeout: Duration(10 * time.Second),
	}
}

// Default возвращает конфиг со значениями по умолчанию.
func Default() Config { return def() }

func loadJSON(path string, c Config) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(k); ok {
		v = strings.TrimSpace(strings.ToLower(v))
		if v == "1" || v == "true" || v == "yes" {
			return true
		}
		if v == "0" || v == "false" || v == "no" {
			return false
		}
	}
	return fallback
}

func getenvInt(k string, fallback int64) (int64, error) {
	v, ok := os.LookupEnv(k)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func getenvDuration(k string, fallback Duration) (Duration, error) {
	v, ok := os.LookupEnv(k)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", k, err)
	}
	return Duration(d), nil
}

// LoadWithPath: умолчания, затем JSON (если файл есть), затем ENV.
func LoadWithPath(jsonPath string) (Config, error) {
	cfg := def()

	if st, err := os.Stat(jsonPath); err == nil && !st.IsDir() {
		if cfg, err = loadJSON(jsonPath, cfg); err != nil {
			return cfg, err
		}
	}

	// ENV overrides
	cfg.Port = getenv("PROVERKA_PORT", cfg.Port)
	cfg.SchemaPath = getenv("PROVERKA_SCHEMA", cfg.SchemaPath)
	cfg.EnumsDir = getenv("PROVERKA_ENUMS_DIR", cfg.EnumsDir)
	cfg.DefaultTable = getenv("PROVERKA_DEFAULT_TABLE", cfg.DefaultTable)
	cfg.DBURL = getenv("PROVERKA_DB_URL", cfg.DBURL)
	cfg.AutoMigrate = getenvBool("PROVERKA_AUTO_MIGRATE", cfg.AutoMigrate)
	cfg.JournalSchema = getenv("PROVERKA_JOURNAL_SCHEMA", cfg.JournalSchema)
	cfg.LogLevel = getenv("PROVERKA_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenv("PROVERKA_LOG_FORMAT", cfg.LogFormat)

	var err error
	if cfg.BodyLimit, err = getenvInt("PROVERKA_BODY_LIMIT", cfg.BodyLimit); err != nil {
		return cfg, err
	}
	if cfg.ShutdownTimeout, err = getenvDuration("PROVERKA_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// RegisterFlags объявляет флаги конфига. Значения по умолчанию — только для справки:
// применяются лишь явно заданные флаги (см. ApplyFlags).
func RegisterFlags(fs *pflag.FlagSet) {
	d := def()
	fs.String("config", DefaultPath, "Path to config JSON")
	fs.String("port", d.Port, "HTTP port")
	fs.String("schema", d.SchemaPath, "Schema file or directory (.dsl, .yaml, .json, .toml)")
	fs.String("enums", d.EnumsDir, "Path to enum catalogs directory")
	fs.String("default-table", d.DefaultTable, "Table served by routes without :table")
	fs.Int64("body-limit", d.BodyLimit, "Max request body size in bytes")
	fs.String("db", d.DBURL, "Postgres URL for the journal (empty = log only)")
	fs.Bool("auto-migrate", d.AutoMigrate, "Create journal tables on start")
	fs.String("journal-schema", d.JournalSchema, "Postgres schema for journal tables")
	fs.String("log-level", d.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("log-format", d.LogFormat, "Log format (text, json)")
	fs.Duration("shutdown-timeout", time.Duration(d.ShutdownTimeout), "Graceful shutdown timeout")
}

// ApplyFlags переносит в конфиг флаги, заданные в командной строке.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	strs := map[string]*string{
		"port":           &c.Port,
		"schema":         &c.SchemaPath,
		"enums":          &c.EnumsDir,
		"default-table":  &c.DefaultTable,
		"db":             &c.DBURL,
		"journal-schema": &c.JournalSchema,
		"log-level":      &c.LogLevel,
		"log-format":     &c.LogFormat,
	}
	for name, dst := range strs {
		if fs.Lookup(name) == nil || !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(v)
	}
	if fs.Changed("body-limit") {
		v, err := fs.GetInt64("body-limit")
		if err != nil {
			return err
		}
		c.BodyLimit = v
	}
	if fs.Changed("auto-migrate") {
		v, err := fs.GetBool("auto-migrate")
		if err != nil {
			return err
		}
		c.AutoMigrate = v
	}
	if fs.Changed("shutdown-timeout") {
		v, err := fs.GetDuration("shutdown-timeout")
		if err != nil {
			return err
		}
		c.ShutdownTimeout = Duration(v)
	}
	return nil
}

// FromFlags — полная цепочка: --config, JSON, ENV, флаги, проверка.
func FromFlags(fs *pflag.FlagSet) (Config, error) {
	path := DefaultPath
	if fs.Lookup("config") != nil {
		p, err := fs.GetString("config")
		if err != nil {
			return Config{}, err
		}
		path = p
		// явно указанный файл обязан существовать
		if fs.Changed("config") {
			if _, err := os.Stat(path); err != nil {
				return Config{}, fmt.Errorf("config: %w", err)
			}
		}
	}
	cfg, err := LoadWithPath(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyFlags(fs); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("port %q is not a valid TCP port", c.Port))
	}
	if strings.TrimSpace(c.SchemaPath) == "" {
		errs = append(errs, errors.New("schema path is empty"))
	}
	if c.BodyLimit <= 0 {
		errs = append(errs, fmt.Errorf("body limit must be positive, got %d", c.BodyLimit))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown timeout must be positive"))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format %q is not text or json", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Addr — адрес для http.Server.
func (c Config) Addr() string { return ":" + c.Port }

func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return lvl, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
