// Package config loads the service configuration from an optional TOML file,
// applying defaults first and environment overrides last so that the
// container-style PORT / DB_PATH / AUTH_USER / AUTH_PASS variables keep
// working without a file.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	DB      DBConfig      `toml:"db"`
	Ledger  LedgerConfig  `toml:"ledger"`
	Catalog CatalogConfig `toml:"catalog"`
}

type ServerConfig struct {
	Port     string `toml:"port"`
	LogLevel string `toml:"log_level"`
	AuthUser string `toml:"auth_user"`
	AuthPass string `toml:"auth_pass"`
}

type DBConfig struct {
	Path string `toml:"path"`
}

type LedgerConfig struct {
	// SignupGrant is the balance granted to every new account.
	SignupGrant string `toml:"signup_grant"`
	// DueDayDefault is the invoice due day used when an account has no
	// due-day setting of its own.
	DueDayDefault int `toml:"due_day_default"`
}

type CatalogConfig struct {
	URL string `toml:"url"`
	// InstallmentMarkup multiplies the cash price to derive the
	// installment price when the feed does not carry one.
	InstallmentMarkup string `toml:"installment_markup"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:     "8080",
			LogLevel: "info",
		},
		DB: DBConfig{
			Path: "./data/backoffice.db",
		},
		Ledger: LedgerConfig{
			SignupGrant:   "1000.00",
			DueDayDefault: 10,
		},
		Catalog: CatalogConfig{
			URL:               "https://fakestoreapi.com/products",
			InstallmentMarkup: "1.10",
		},
	}
}

// Load reads the TOML file at path on top of the defaults. A missing file is
// not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("AUTH_USER"); v != "" {
		c.Server.AuthUser = v
	}
	if v := os.Getenv("AUTH_PASS"); v != "" {
		c.Server.AuthPass = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.DB.Path = v
	}
	if v := os.Getenv("CATALOG_URL"); v != "" {
		c.Catalog.URL = v
	}
}
