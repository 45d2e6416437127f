// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	migrateOnly       = pflag.Bool("migrate-only", false, "Runs database migrations and exits")
	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validDBDrivers    = []string{"sqlite", "postgres"}
	validStorageTypes = []string{"s3", "local"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.base_url", "host_base_url")
	v.BindEnv("host.cors_origins", "host_cors_origins")

	v.BindEnv("host.ssl.enabled", "host_ssl_enabled")
	v.BindEnv("host.ssl.certificate_path", "host_ssl_certificate_path")
	v.BindEnv("host.ssl.certificate_key_path", "host_ssl_certificate_key_path")

	v.BindEnv("db.driver", "db_driver")
	v.BindEnv("db.path", "db_path")
	v.BindEnv("db.dsn", "db_dsn")

	v.BindEnv("session.secret", "session_secret")
	v.BindEnv("session.max_age", "session_max_age")
	v.BindEnv("session.secure", "session_secure")

	v.BindEnv("security.bcrypt_cost", "security_bcrypt_cost")

	v.BindEnv("mail.enabled", "mail_enabled")
	v.BindEnv("mail.host", "mail_host")
	v.BindEnv("mail.port", "mail_port")
	v.BindEnv("mail.username", "mail_username")
	v.BindEnv("mail.password", "mail_password")
	v.BindEnv("mail.from", "mail_from")

	v.BindEnv("storage.type", "storage_type")
	v.BindEnv("storage.local.path", "storage_local_path")

	v.BindEnv("storage.s3.access_key_id", "storage_s3_access_key_id")
	v.BindEnv("storage.s3.secret_access_key", "storage_s3_secret_access_key")
	v.BindEnv("storage.s3.bucket", "storage_s3_bucket")
	v.BindEnv("storage.s3.region", "storage_s3_region")
	v.BindEnv("storage.s3.endpoint", "storage_s3_endpoint")

	v.BindEnv("upload.max_size", "upload_max_size")
	v.BindEnv("upload.allowed_types", "upload_allowed_types")

	v.BindEnv("seed.admin.email", "seed_admin_email")
	v.BindEnv("seed.admin.password", "seed_admin_password")
	v.BindEnv("seed.client.email", "seed_client_email")
	v.BindEnv("seed.client.password", "seed_client_password")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.base_url", "http://localhost:8080")

	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "portal.db")

	v.SetDefault("session.max_age", 86400)
	v.SetDefault("session.secure", false)

	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.rate_limit.rps", 10)
	v.SetDefault("security.rate_limit.burst", 20)
	v.SetDefault("security.login_limit.window", "15m")
	v.SetDefault("security.login_limit.max", 10)

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local.path", "uploads")

	v.SetDefault("upload.max_size", 50)

	v.SetDefault("seed.admin.email", "admin@example.com")
	v.SetDefault("seed.admin.name", "Administrator")
	v.SetDefault("seed.client.email", "client@example.com")
	v.SetDefault("seed.client.name", "Client")

	v.SetDefault("web.dir", "web")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return errors.New("config.toml file is missing")
		}

		return fmt.Errorf("failed to read config file, %w", err)
	}

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

	if v.GetString("session.secret") == "" {
		fmt.Println("WARNING: You haven't set a session secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random session secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if v.GetInt("session.max_age") <= 0 {
		return errors.New("session.max_age must be bigger than 0")
	}

	if !slices.Contains(validDBDrivers, v.GetString("db.driver")) {
		return errors.New("invalid db driver provided")
	}

	if v.GetString("db.driver") == "postgres" && v.GetString("db.dsn") == "" {
		return errors.New("db.dsn is required for the postgres driver")
	}

	if !slices.Contains(validStorageTypes, v.GetString("storage.type")) {
		return errors.New("invalid storage type provided")
	}

	switch v.GetString("storage.type") {
	case "s3":
		{
			if v.GetString("storage.s3.access_key_id") == "" {
				return errors.New("access key id can't be empty")
			}
			if v.GetString("storage.s3.secret_access_key") == "" {
				return errors.New("secret access key can't be empty")
			}
			if v.GetString("storage.s3.bucket") == "" {
				return errors.New("bucket can't be empty")
			}
			if v.GetString("storage.s3.region") == "" {
				return errors.New("region can't be empty")
			}
		}
	case "local":
		{
			if v.GetString("storage.local.path") == "" {
				return errors.New("storage path can't be empty")
			}
		}
	}

	if v.GetBool("mail.enabled") {
		if v.GetString("mail.host") == "" {
			return errors.New("mail host can't be empty")
		}
		if v.GetString("mail.from") == "" {
			return errors.New("mail sender address can't be empty")
		}
	} else {
		fmt.Println("[WARNING]: Mail sending is disabled. Verification and password reset links will only show up in the logs")
	}

	if v.GetDuration("security.login_limit.window") <= 0 {
		return errors.New("invalid login limit window provided")
	}

	if v.GetInt("security.login_limit.max") <= 0 {
		return errors.New("login limit max must be bigger than 0")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if len(v.GetStringSlice("upload.allowed_types")) == 0 {
		zap.L().Warn("No upload.allowed_types specified, any file type will be accepted")
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}
