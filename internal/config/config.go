package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// HTTP server
	Port string

	// Backend selection: local | remote | remote-noauth
	DataBackend string

	// Local embedded database
	SQLiteDBPath string

	// Hosted backend
	SupabaseURL     string
	SupabaseAnonKey string

	// AMQP mirroring (optional; local backend only)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets history export (optional)
	SheetsSpreadsheetID string
	SheetsSheetName     string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", "local"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/entrenos.db"),

		SupabaseURL:     getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey: getEnv("SUPABASE_ANON_KEY", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "entrenos"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "mirror_events"),

		SheetsSpreadsheetID: getEnv("SHEETS_SPREADSHEET_ID", ""),
		SheetsSheetName:     getEnv("SHEETS_SHEET_NAME", "Historial"),
	}
}

// Validate checks the configuration and returns a combined error when
// anything is off.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "local":
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLITE_DB_PATH cannot be empty for the local backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
				}
			}
		}
	case "remote", "remote-noauth":
		if c.SupabaseURL == "" {
			errs = append(errs, "SUPABASE_URL is required for hosted backends")
		} else if u, err := url.Parse(c.SupabaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Sprintf("invalid SUPABASE_URL '%s'", c.SupabaseURL))
		}
		if c.SupabaseAnonKey == "" {
			errs = append(errs, "SUPABASE_ANON_KEY is required for hosted backends")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of [local remote remote-noauth]", c.DataBackend))
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
