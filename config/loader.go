package config

import (
	"fmt"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoaderOption configures Load.
type LoaderOption func(*loaderConfig)

type loaderConfig struct {
	configFile string
	envFile    string
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.configFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.envFile = path }
}

// envAliases maps flat environment variable names onto nested config keys.
// JWT_SECRET is the historical name; TOKEN_SECRET matches the config layout.
var envAliases = map[string][]string{
	"token.secret":            {"TOKEN_SECRET", "JWT_SECRET"},
	"token.access_token_ttl":  {"TOKEN_ACCESS_TOKEN_TTL"},
	"token.refresh_token_ttl": {"TOKEN_REFRESH_TOKEN_TTL"},
	"server.port":             {"SERVER_PORT", "PORT"},
	"server.host":             {"SERVER_HOST"},
	"server.secure_cookies":   {"SERVER_SECURE_COOKIES"},
	"logging.level":           {"LOG_LEVEL"},
	"logging.format":          {"LOG_FORMAT"},
	"password.algorithm":      {"PASSWORD_ALGORITHM"},
	"password.bcrypt_cost":    {"PASSWORD_BCRYPT_COST"},
	"environment":             {"ENVIRONMENT", "APP_ENV"},
}

// Load reads configuration into cfg. Order of precedence, lowest first:
// config.yml, .env file, process environment. Defaults and validation are the
// caller's next step via ApplyDefaults and Validate.
func Load(cfg *Config, opts ...LoaderOption) error {
	var lc loaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	// .env goes into the process environment first so viper sees it.
	envFile := lc.envFile
	if envFile == "" && fileExists(".env") {
		envFile = ".env"
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	v := viper.New()

	configFile := lc.configFile
	if configFile == "" {
		for _, candidate := range []string{"./config.yml", "./config/config.yml"} {
			if fileExists(candidate) {
				configFile = candidate
				break
			}
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	v.AutomaticEnv()
	for key, envs := range envAliases {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	// Environment values arrive as strings; decode them weakly so numeric
	// and boolean fields accept them.
	weak := func(dc *mapstructure.DecoderConfig) { dc.WeaklyTypedInput = true }
	if err := v.Unmarshal(cfg, weak); err != nil {
		return fmt.Errorf("config: unmarshal: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
