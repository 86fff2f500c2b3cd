package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/semadox/odoo-ninja/internal/cli/model"
)

// Config holds the connection settings of the CLI.
type Config struct {
	URL      string `env:"ODOO_URL"`
	Database string `env:"ODOO_DATABASE"`
	Username string `env:"ODOO_USERNAME"`
	Password string `env:"ODOO_PASSWORD"`

	// DefaultUserID: от чьего имени публикуются комментарии, если --user-id не указан.
	DefaultUserID int64         `env:"ODOO_DEFAULT_USER_ID"`
	AllowHarmful  bool          `env:"ODOO_ALLOW_HARMFUL_OPERATIONS" envDefault:"false"`
	Protocol      string        `env:"ODOO_PROTOCOL" envDefault:"xmlrpc"`
	Timeout       time.Duration `env:"ODOO_TIMEOUT" envDefault:"60s"`
	LogLevel      string        `env:"ODOO_LOG_LEVEL" envDefault:"warn"`

	// flags only
	LoadedEnvFile string `env:"-"` // file the values were read from, "" if none
	NoColor       bool   `env:"-"`
	Verbose       bool   `env:"-"`
}

// EnvFileCandidates returns the files looked up when no explicit file is given, in order.
func EnvFileCandidates() []string {
	out := []string{".odoo-ninja.env"}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		out = append(out, filepath.Join(home, ".config", "odoo-ninja", "config.env"))
	}
	return append(out, ".env")
}

// Load reads envFile (or the first existing candidate) and then the process environment.
// Values already present in the process environment are never replaced by the file.
// Variable names are matched case-insensitively.
func Load(envFile string) (*Config, error) {
	path, err := pickEnvFile(envFile)
	if err != nil {
		return nil, err
	}

	environ := map[string]string{}
	if path != "" {
		fileVals, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", model.ErrConfiguration, path, err)
		}
		for k, v := range fileVals {
			environ[strings.ToUpper(k)] = v
		}
	}
	// имена переменных без учёта регистра: odoo_url= тоже работает
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environ[strings.ToUpper(k)] = v
		}
	}

	cfg := &Config{LoadedEnvFile: path}
	if err := env.Parse(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrConfiguration, err)
	}
	cfg.Protocol = strings.ToLower(strings.TrimSpace(cfg.Protocol))
	return cfg, nil
}

func pickEnvFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("%w: env file %s: %v", model.ErrConfiguration, explicit, err)
		}
		return explicit, nil
	}
	for _, p := range EnvFileCandidates() {
		st, err := os.Stat(p)
		if err == nil && !st.IsDir() {
			return p, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: env file %s: %v", model.ErrConfiguration, p, err)
		}
	}
	return "", nil
}

// Missing lists the required variables that are empty.
func (c *Config) Missing() []string {
	var out []string
	if c.URL == "" {
		out = append(out, "ODOO_URL")
	}
	if c.Database == "" {
		out = append(out, "ODOO_DATABASE")
	}
	if c.Username == "" {
		out = append(out, "ODOO_USERNAME")
	}
	if c.Password == "" {
		out = append(out, "ODOO_PASSWORD")
	}
	return out
}

// Validate returns ErrConfiguration naming every missing required value.
func (c *Config) Validate() error {
	missing := c.Missing()
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: missing required settings: %s (set them in the environment or in %s)",
		model.ErrConfiguration, strings.Join(missing, ", "), strings.Join(EnvFileCandidates(), ", "))
}
