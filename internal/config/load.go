package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/sakif/cityinfo/internal/apperror"
	"github.com/sakif/cityinfo/internal/validate"
)

const (
	// EnvPrefix prefixes every environment override, e.g. CITYINFO_SERVER_PORT.
	EnvPrefix = "CITYINFO"

	// EnvConfigFile names a YAML file to read when Load is given no path.
	EnvConfigFile = "CITYINFO_CONFIG"
)

var defaults = map[string]any{
	"server.port":                 8080,
	"server.log_level":            "info",
	"server.log_format":           "text",
	"server.strict_negotiation":   true,
	"server.cors_allowed_origins": []string{"*"},

	"database.connection_string": "data/cityinfo.db",
	"database.seed":              true,

	// auth.secret has no usable default; registering the key lets
	// CITYINFO_AUTH_SECRET reach Unmarshal through AutomaticEnv.
	"auth.secret":               "",
	"auth.issuer":               "https://localhost:7169",
	"auth.audience":             "cityinfoapi",
	"auth.token_lifetime":       "1h",
	"auth.rate_limit":           10,
	"auth.enforce_city_match":   false,
	"auth.demo_user.id":         1,
	"auth.demo_user.first_name": "Bogdan",
	"auth.demo_user.last_name":  "Polojan",
	"auth.demo_user.city":       "Berlin",
	"auth.users":                []map[string]any{},

	"mail.mode": "local",
	"mail.to":   "admin@mycompany.com",
	"mail.from": "noreply@mycompany.com",

	"files.path": "files/Signal.png",
}

// Load reads the configuration. configFile may be empty, in which case
// CITYINFO_CONFIG is consulted; with neither set only defaults and the
// environment apply. Environment variables override the file.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configFile == "" {
		configFile = os.Getenv(EnvConfigFile)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, describe(err)
	}
	return &cfg, nil
}

// describe flattens a field-keyed validation error into one line, sorted by
// key so the message is stable:
//
//	config validation failed: auth.secret: The auth.secret field is required.
func describe(err error) error {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || len(appErr.Fields) == 0 {
		return fmt.Errorf("config validation failed: %w", err)
	}

	keys := make([]string, 0, len(appErr.Fields))
	for k := range appErr.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(appErr.Fields[k], " "))
	}
	return fmt.Errorf("config validation failed: %s: %w", strings.Join(parts, "; "), apperror.ErrValidation)
}
