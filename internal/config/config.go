package config // package config loads application settings from a dotenv file and the environment

import (
	"database/sql"
	"io/fs"
	"net"
	"os"
	"sort"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// SettingsEnv names the environment variable holding the settings file.
	SettingsEnv = "APP_SETTINGS"
	// DefaultSettings is used when SettingsEnv is unset. It may be absent.
	DefaultSettings = ".env"
	// DefaultDatabase is the key of the primary entry in Settings.Databases.
	DefaultDatabase = "default"
)

// ErrImproperlyConfigured is wrapped by every validation error returned
// from Setup and Load.
var ErrImproperlyConfigured = errors.New("improperly configured")

// Database describes one database connection.
type Database struct {
	Engine   string // database/sql driver name, e.g. "mysql"
	Name     string // schema name
	User     string // database username
	Password string // database password (optional)
	Host     string // database host address
	Port     string // database port number
}

// AdminConfig holds the credentials and token lifetime of the admin surface.
// An empty PasswordHash disables the admin login.
type AdminConfig struct {
	User         string // ADMIN_USER
	PasswordHash string // bcrypt hash, ADMIN_PASSWORD_HASH
	AccessTTLMin int    // access token time-to-live in minutes
}

// Settings holds all runtime configuration values. The zero value is not
// usable; build one with Setup or Load.
type Settings struct {
	Env          string              // application environment (e.g. "dev", "prod")
	Port         string              // HTTP port to listen on
	Debug        bool                // verbose errors and logs, relaxed host checks
	AllowedHosts []string            // host names this site may serve
	SecretKey    string              // signs admin access tokens
	Databases    map[string]Database // keyed by alias; DefaultDatabase is always present
	LogLevel     logrus.Level
	Admin        AdminConfig
	RateLimit    RateLimitConfig
	Redis        RedisConfig
	AMQPURL      string // broker for admin audit events; empty disables them
	AuditLogDir  string // where the audit consumer appends its log
}

// DefaultDB returns the primary database entry.
func (s Settings) DefaultDB() Database {
	return s.Databases[DefaultDatabase]
}

// Setup loads the dotenv file named by APP_SETTINGS into the process
// environment and then reads Settings from it. Variables already set in the
// environment take precedence over the file. Only the default settings file
// may be missing.
func Setup() (Settings, error) {
	name := os.Getenv(SettingsEnv)
	if name == "" {
		name = DefaultSettings
	}
	if err := godotenv.Load(name); err != nil {
		if name != DefaultSettings || !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, errors.Wrapf(err, "load settings file %s", name)
		}
	}
	return Load()
}

// Load reads Settings from the environment and validates them.
func Load() (Settings, error) {
	debug, err := strictBool("DEBUG", false)
	if err != nil {
		return Settings{}, err
	}

	secret := os.Getenv("SECRET_KEY")
	if strings.TrimSpace(secret) == "" {
		return Settings{}, errors.Wrap(ErrImproperlyConfigured, "SECRET_KEY must not be empty")
	}

	level, err := logrus.ParseLevel(envStr("LOG_LEVEL", "info"))
	if err != nil {
		return Settings{}, errors.Wrapf(ErrImproperlyConfigured, "LOG_LEVEL: %v", err)
	}

	db, err := loadDatabase()
	if err != nil {
		return Settings{}, err
	}

	amqpURL := os.Getenv("RABBITMQ_URL")
	if amqpURL == "" {
		amqpURL = os.Getenv("AMQP_URL")
	}

	return Settings{
		Env:          envStr("APP_ENV", "dev"),
		Port:         envStr("APP_PORT", envStr("PORT", "8080")),
		Debug:        debug,
		AllowedHosts: parseCSV(os.Getenv("ALLOWED_HOSTS")),
		SecretKey:    secret,
		Databases:    map[string]Database{DefaultDatabase: db},
		LogLevel:     level,
		Admin: AdminConfig{
			User:         envStr("ADMIN_USER", "admin"),
			PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),
		},
		RateLimit:   LoadRateLimitConfig(),
		Redis:       LoadRedisConfig(),
		AMQPURL:     amqpURL,
		AuditLogDir: envStr("AUDIT_LOG_DIR", "logs"),
	}, nil
}

// loadDatabase reads the DB_* variables. DATABASE_URL, when present, is a
// go-sql-driver DSN (user:pass@tcp(host:port)/name) and overrides them.
func loadDatabase() (Database, error) {
	db := Database{
		Engine:   envStr("DB_ENGINE", "mysql"),
		Name:     envStr("DB_NAME", "fly_starter"),
		User:     envStr("DB_USER", "root"),
		Password: os.Getenv("DB_PASS"),
		Host:     envStr("DB_HOST", "127.0.0.1"),
		Port:     envStr("DB_PORT", "3306"),
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		mc, err := mysql.ParseDSN(dsn)
		if err != nil {
			return Database{}, errors.Wrapf(ErrImproperlyConfigured, "DATABASE_URL: %v", err)
		}
		db.User = mc.User
		db.Password = mc.Passwd
		db.Name = mc.DBName
		if host, port, err := net.SplitHostPort(mc.Addr); err == nil {
			db.Host, db.Port = host, port
		} else {
			db.Host = mc.Addr
		}
	}
	if !driverRegistered(db.Engine) {
		return Database{}, errors.Wrapf(ErrImproperlyConfigured,
			"DB_ENGINE %q is not an available driver (have: %s)", db.Engine, strings.Join(sql.Drivers(), ", "))
	}
	return db, nil
}

func driverRegistered(name string) bool {
	drivers := sql.Drivers()
	i := sort.SearchStrings(drivers, name)
	return i < len(drivers) && drivers[i] == name
}
