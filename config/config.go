// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"bitwise74/invoice-api/internal/billing"
	"bitwise74/invoice-api/pkg/security"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	hashGiftCode = pflag.String("hash-gift-code", "", "Prints the argon2id hash of a gift code for gift.codes and exits")
	configPath   = pflag.String("config", ".", "Directory holding config.toml")

	validLogLevels       = []string{"debug", "info", "warn", "error", "fatal"}
	validDBDrivers       = []string{"postgres", "sqlite", "none"}
	validStorageTypes    = []string{"s3", "r2", "none"}
	validDemoStorage     = []string{"disk", "memory", "none"}
	validShareBackends   = []string{"database", "redis"}
	validIdentityOptions = []string{"jwt", "userinfo", "none"}
)

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	if *hashGiftCode != "" {
		h, err := security.New().Hash(billing.NormalizeGiftCode(*hashGiftCode))
		if err != nil {
			return fmt.Errorf("failed to hash gift code, %w", err)
		}

		fmt.Println("Add this hash to gift.codes in your config.toml file:\n\n" + h)
		os.Exit(0)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configPath)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}

		fmt.Println("[WARNING]: config.toml not found, running on defaults and environment variables")
	}

	if err := Validate(); err != nil {
		return err
	}

	applyUnits()
	return nil
}

func setDefaults() {
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.cors", []string{"http://localhost:3000"})
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("backend.demo", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "database.db")

	v.SetDefault("storage.type", "none")
	v.SetDefault("storage.default_limit", 1000)
	v.SetDefault("storage.url_expiry", "15m")

	v.SetDefault("demo.storage", "disk")
	v.SetDefault("demo.dir", "demo-data")
	v.SetDefault("demo.session_idle", "24h")

	v.SetDefault("upload.max_size", 20)

	v.SetDefault("sharelink.backend", "database")
	v.SetDefault("sharelink.cleanup", "@hourly")

	v.SetDefault("identity.provider", "none")
	v.SetDefault("identity.recheck_delay", "500ms")
	v.SetDefault("identity.timeout", "5s")

	v.SetDefault("mail.port", 587)

	v.SetDefault("openai.model", "gpt-4o-mini")

	v.SetDefault("security.rate_limit", 10)

	v.SetDefault("cloudflare.turnstile.enabled", false)
}

// Validate checks the loaded values and normalizes the few that are given in
// friendlier units. It's called by Setup and exported for tests.
func Validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetBool("host.ssl.enabled") {
		if v.GetString("host.ssl.certificate_path") == "" {
			return errors.New("no ssl certificate path provided")
		}

		if v.GetString("host.ssl.certificate_key_path") == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	if v.GetBool("backend.demo") {
		// demo deployments never touch managed services
		v.Set("database.driver", "none")
		v.Set("storage.type", "none")
		v.Set("identity.provider", "none")
	}

	if !slices.Contains(validDBDrivers, v.GetString("database.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("database.driver") != "none" && v.GetString("database.dsn") == "" {
		return errors.New("database dsn can't be empty")
	}

	switch v.GetString("storage.type") {
	case "s3":
		for _, k := range []string{"aws.access_key_id", "aws.secret_access_key", "aws.region", "aws.bucket"} {
			if v.GetString(k) == "" {
				return fmt.Errorf("%s can't be empty", k)
			}
		}
	case "r2":
		for _, k := range []string{"cloudflare.account_id", "cloudflare.access_key_id", "cloudflare.secret_access_key", "cloudflare.bucket"} {
			if v.GetString(k) == "" {
				return fmt.Errorf("%s can't be empty", k)
			}
		}
	case "none":
	default:
		return errors.New("invalid storage type provided")
	}

	if v.GetString("database.driver") == "none" && v.GetString("storage.type") != "none" {
		return errors.New("an object store needs a database, set database.driver")
	}
	if v.GetString("database.driver") != "none" && v.GetString("storage.type") == "none" {
		zap.L().Warn("A database is configured without an object store, the managed backend stays disabled")
	}

	if !slices.Contains(validDemoStorage, v.GetString("demo.storage")) {
		return errors.New("invalid demo storage provided")
	}

	if v.GetString("demo.storage") == "disk" && v.GetString("demo.dir") == "" {
		return errors.New("demo.dir can't be empty")
	}

	if v.GetInt64("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if v.GetInt64("storage.default_limit") <= 0 {
		return errors.New("storage.default_limit must be bigger than 0")
	}

	if v.GetDuration("storage.url_expiry") <= 0 {
		return errors.New("storage.url_expiry must be a positive duration")
	}

	if !slices.Contains(validShareBackends, v.GetString("sharelink.backend")) {
		return errors.New("invalid share link backend provided")
	}

	if v.GetString("sharelink.backend") == "redis" && v.GetString("redis.url") == "" {
		return errors.New("redis.url can't be empty when share links are kept in redis")
	}

	switch v.GetString("identity.provider") {
	case "jwt":
		if v.GetString("identity.jwt_secret") == "" {
			return errors.New("identity.jwt_secret can't be empty")
		}
	case "userinfo":
		if v.GetString("identity.userinfo_url") == "" {
			return errors.New("identity.userinfo_url can't be empty")
		}
	}

	if !slices.Contains(validIdentityOptions, v.GetString("identity.provider")) {
		return errors.New("invalid identity provider provided")
	}

	if v.GetDuration("identity.recheck_delay") < 0 {
		return errors.New("identity.recheck_delay can't be negative")
	}

	if v.GetString("stripe.secret_key") != "" && v.GetString("stripe.webhook_secret") == "" {
		return errors.New("stripe.webhook_secret can't be empty when billing is enabled")
	}

	if !v.GetBool("cloudflare.turnstile.enabled") {
		fmt.Println("[WARNING]: Cloudflare's turnstile is disabled. Some public endpoints won't be guarded against bots")
	} else if v.GetString("cloudflare.turnstile.secret_token") == "" {
		return errors.New("turnstile secret token is missing")
	}

	if v.GetDuration("demo.session_idle") < 0 {
		return errors.New("demo.session_idle can't be negative")
	}

	return nil
}

// applyUnits turns the sizes, configured in megabytes, into bytes. It must
// run exactly once, after Validate.
func applyUnits() {
	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	v.Set("storage.default_limit", v.GetInt64("storage.default_limit")*1_000_000)
}
