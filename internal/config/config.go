package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Remote backend kinds.
const (
	BackendREST  = "rest"
	BackendMongo = "mongo"
)

// Config represents the full application configuration surface.
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Cache      CacheConfig
	Remote     RemoteConfig
	MongoDB    MongoDBConfig
	PostalCode PostalCodeConfig
	Sync       SyncConfig
	Auth       AuthConfig
	Sheets     SheetsConfig
	Reporting  ReportingConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig holds the zap level.
type LogConfig struct {
	Level string
}

// CacheConfig points at the on-device sqlite file.
type CacheConfig struct {
	Path string
}

// RemoteConfig selects and configures the authoritative data backend.
type RemoteConfig struct {
	Backend string
	BaseURL string
	APIKey  string
}

// MongoDBConfig holds settings for the MongoDB backend.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// PostalCodeConfig configures the CEP lookup service.
type PostalCodeConfig struct {
	BaseURL string
}

// SyncConfig holds the periodic refresh schedule.
type SyncConfig struct {
	Schedule string
}

// AuthConfig carries the pre-configured user list.
type AuthConfig struct {
	Users []UserEntry
}

// UserEntry is one configured login. PasswordHash is a bcrypt hash.
type UserEntry struct {
	Username     string
	PasswordHash string
	AccessLevel  string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
// Export is disabled when SpreadsheetID is empty.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	BudgetRange     string
}

// Enabled reports whether the sheets export is configured.
func (s SheetsConfig) Enabled() bool {
	return s.SpreadsheetID != ""
}

// ReportingConfig holds export scheduling settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	users, err := ParseUsers(os.Getenv("AUTH_USERS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Cache: CacheConfig{
			Path: getenvWithDefault("CACHE_PATH", "cortinas-cache.db"),
		},
		Remote: RemoteConfig{
			Backend: getenvWithDefault("REMOTE_BACKEND", BackendREST),
			BaseURL: os.Getenv("REMOTE_URL"),
			APIKey:  os.Getenv("REMOTE_API_KEY"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "cortinas"),
		},
		PostalCode: PostalCodeConfig{
			BaseURL: getenvWithDefault("POSTAL_CODE_BASE_URL", "https://viacep.com.br/ws"),
		},
		Sync: SyncConfig{
			Schedule: getenvWithDefault("SYNC_SCHEDULE", "@every 30m"),
		},
		Auth: AuthConfig{
			Users: users,
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			BudgetRange:     getenvWithDefault("SHEETS_BUDGET_RANGE", "Orcamentos!A1"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "America/Sao_Paulo"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Cache.Path == "" {
		return errors.New("CACHE_PATH must not be empty")
	}

	switch c.Remote.Backend {
	case BackendREST:
		if c.Remote.BaseURL == "" {
			return errors.New("REMOTE_URL must be provided for the rest backend")
		}
	case BackendMongo:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided for the mongo backend")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must not be empty")
		}
	default:
		return fmt.Errorf("REMOTE_BACKEND %q is not supported", c.Remote.Backend)
	}

	if c.PostalCode.BaseURL == "" {
		return errors.New("POSTAL_CODE_BASE_URL must not be empty")
	}

	if c.Sync.Schedule == "" {
		return errors.New("SYNC_SCHEDULE must be provided")
	}

	if len(c.Auth.Users) == 0 {
		return errors.New("AUTH_USERS must list at least one user")
	}

	if c.Sheets.Enabled() {
		if c.Sheets.CredentialsPath == "" {
			return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when GOOGLE_SHEET_DATABASE_ID is set")
		}
		if c.Reporting.CronSchedule == "" {
			return errors.New("REPORT_CRON_SCHEDULE must be provided")
		}
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	return nil
}

// ParseUsers reads "name:bcrypt-hash:level" entries separated by ';'.
// A missing level means standard access.
func ParseUsers(raw string) ([]UserEntry, error) {
	var users []UserEntry
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		// bcrypt hashes never contain ':' so a plain split is safe.
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("AUTH_USERS entry %q must be name:hash[:level]", entry)
		}
		user := UserEntry{Username: parts[0], PasswordHash: parts[1], AccessLevel: "standard"}
		if len(parts) == 3 && parts[2] != "" {
			user.AccessLevel = parts[2]
		}
		if user.AccessLevel != "standard" && user.AccessLevel != "admin" {
			return nil, fmt.Errorf("AUTH_USERS entry %q has unknown access level %q", parts[0], user.AccessLevel)
		}
		users = append(users, user)
	}
	return users, nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
