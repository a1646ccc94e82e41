package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env        string
	ServerPort int
	Database   DatabaseConfig
	Auth       AuthConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig
	Blogger    BloggerConfig
	MQ         MQConfig
	Storage    StorageConfig
	Notify     NotifyConfig
}

type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	UseSSL         bool
	MigrationsPath string
}

type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AdminEmail    string
	AdminPassword string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// TrustedProxies lists CIDRs (or bare IPs) of reverse proxies whose
	// X-Forwarded-For header identifies the client.
	TrustedProxies []string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// BloggerConfig points the public blog feed at a Blogger blog. The feed is
// served from local published posts when either field is empty.
type BloggerConfig struct {
	APIKey string
	BlogID string
}

type MQConfig struct {
	Backend        string
	ContactChannel string
	RabbitMQ       RabbitMQConfig
	PubSub         PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
	// DeadLetter declares <queue>.dead and routes rejected deliveries to it.
	DeadLetter bool
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
	// MaxDeliveryAttempts before a message moves to <topic>.dead. Zero
	// disables dead-lettering.
	MaxDeliveryAttempts int
}

type StorageConfig struct {
	Backend   string
	PublicURL string
	Minio     MinioConfig
	GCS       GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type NotifyConfig struct {
	ResendAPIKey string
	From         string
	To           string
}

func LoadConfig() Config {
	env := normalizeEnv(getEnv("ENV", EnvProduction))
	if env == EnvDevelopment {
		_ = godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:           getEnv("DB_HOST", "localhost"),
		Port:           getEnvInt("DB_PORT", 5432),
		User:           getEnv("DB_USER", "portfolio"),
		Password:       getEnv("DB_PASSWORD", "password"),
		DBName:         getEnv("DB_NAME", "portfolio_db"),
		UseSSL:         getEnvBool("DB_USE_SSL", false),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "internal/db/migrations"),
	}

	authConfig := AuthConfig{
		AccessSecret:  strings.TrimSpace(getEnv("JWT_SECRET", "")),
		RefreshSecret: strings.TrimSpace(getEnv("JWT_REFRESH_SECRET", "")),
		AccessTTL:     getEnvDuration("JWT_EXPIRES_IN", 15*time.Minute),
		RefreshTTL:    getEnvDuration("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@portfolio.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}

	return Config{
		Env:        env,
		ServerPort: getEnvInt("SERVER_PORT", 3001),
		Database:   dbConfig,
		Auth:       authConfig,
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("FRONTEND_URL", []string{"http://localhost:3000"}),
		},
		RateLimit: RateLimitConfig{
			Requests:       getEnvInt("RATE_LIMIT_REQUESTS", 100),
			Window:         getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
			TrustedProxies: getEnvList("RATE_LIMIT_TRUSTED_PROXIES", nil),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Blogger: BloggerConfig{
			APIKey: getEnv("BLOGGER_API_KEY", ""),
			BlogID: getEnv("BLOGGER_BLOG_ID", ""),
		},
		MQ: MQConfig{
			Backend:        strings.ToLower(getEnv("MQ_BACKEND", "")),
			ContactChannel: getEnv("MQ_CONTACT_CHANNEL", "contact.submitted"),
			RabbitMQ: RabbitMQConfig{
				URL:             getEnv("RABBITMQ_URL", ""),
				QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
				QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
				PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 10),
				DeadLetter:      getEnvBool("RABBITMQ_DEAD_LETTER", true),
			},
			PubSub: PubSubConfig{
				ProjectID:           getEnv("PUBSUB_PROJECT_ID", ""),
				CredentialsFile:     getEnv("PUBSUB_CREDENTIALS_FILE", ""),
				SubscriptionSuffix:  getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
				MaxDeliveryAttempts: getEnvInt("PUBSUB_MAX_DELIVERY_ATTEMPTS", 5),
			},
		},
		Storage: StorageConfig{
			Backend:   strings.ToLower(getEnv("STORAGE_BACKEND", "")),
			PublicURL: strings.TrimRight(getEnv("STORAGE_PUBLIC_URL", ""), "/"),
			Minio: MinioConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "portfolio"),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			GCS: GCSConfig{
				Bucket:          getEnv("GCS_BUCKET", ""),
				ProjectID:       getEnv("GCS_PROJECT_ID", ""),
				CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			},
		},
		Notify: NotifyConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("NOTIFY_FROM", ""),
			To:           getEnv("NOTIFY_TO", ""),
		},
	}
}

// IsDevelopment reports whether error details may be exposed to clients.
func (c Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// Validate checks the settings the HTTP server cannot run without.
func (c Config) Validate() error {
	var errs []error
	if c.Auth.AccessSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.RefreshSecret == "" {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET is required"))
	}
	if c.Auth.AccessSecret != "" && c.Auth.AccessSecret == c.Auth.RefreshSecret {
		errs = append(errs, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ"))
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if _, err := ParseCIDRs(c.RateLimit.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_TRUSTED_PROXIES: %w", err))
	}
	switch c.MQ.Backend {
	case "", "rabbitmq", "pubsub":
	default:
		errs = append(errs, fmt.Errorf("unknown MQ_BACKEND %q", c.MQ.Backend))
	}
	if n := c.MQ.PubSub.MaxDeliveryAttempts; n != 0 && (n < 5 || n > 100) {
		errs = append(errs, fmt.Errorf("PUBSUB_MAX_DELIVERY_ATTEMPTS must be 0 or between 5 and 100, got %d", n))
	}
	switch c.Storage.Backend {
	case "", "minio", "gcs":
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend))
	}
	return errors.Join(errs...)
}

// ParseCIDRs parses each entry as a CIDR, accepting a bare address as a
// single-host network. The first bad entry is reported; the valid ones are
// still returned.
func ParseCIDRs(entries []string) ([]*net.IPNet, error) {
	networks := make([]*net.IPNet, 0, len(entries))
	var firstErr error
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("invalid address %q", entry)
				}
				continue
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			networks = append(networks, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("invalid CIDR %q", entry)
			}
			continue
		}
		networks = append(networks, network)
	}
	return networks, firstErr
}

func normalizeEnv(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", EnvDevelopment:
		return EnvDevelopment
	case "test":
		return "test"
	default:
		return EnvProduction
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.Atoi(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("15m") and a bare day suffix ("7d").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueStr = strings.TrimSpace(valueStr)
	if days, ok := strings.CutSuffix(valueStr, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return defaultValue
		}
		return time.Duration(n) * 24 * time.Hour
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvList(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(valueStr) == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if v := strings.TrimSpace(part); v != "" {
			values = append(values, v)
		}
	}
	return values
}
