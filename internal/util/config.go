package util

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

//nolint:gochecknoglobals // here its ok
var once sync.Once

func init() {
	once.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	})
}

const (
	defaultServerAddr      = "localhost:8000"
	defaultWriteTimeout    = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultIdleTimeout     = 30 * time.Second
	defaultGracefulTimeout = 5 * time.Second

	defaultIssuer     = "seniorble"
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour

	defaultBcryptCost = 10
	MinBcryptCost     = 10
	MaxBcryptCost     = 14

	defaultCookieName = "refreshToken"
	defaultCookiePath = "/auth/refresh"

	defaultRetention = 30 * 24 * time.Hour

	StoreBackendPostgres = "postgres"
	StoreBackendRedis    = "redis"

	JWTLeeWay = 5 * time.Second
)

var (
	ErrMissingSecret = errors.New("signing secret is not set")
	ErrSameSecrets   = errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	ErrBcryptCost    = errors.New("BCRYPT_COST out of range")
)

type ServerConfig struct {
	ServerAddr      string
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
	AllowOrigins    []string
}

func NewServerConfig() *ServerConfig {
	addr := os.Getenv("SERVER_ADDRESS")
	if addr == "" {
		addr = defaultServerAddr
	}

	var origins []string
	for _, o := range strings.Split(os.Getenv("CORS_ALLOW_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &ServerConfig{
		ServerAddr:      addr,
		WriteTimeout:    parseDurationOrDefault("WRITE_TIMEOUT", defaultWriteTimeout),
		ReadTimeout:     parseDurationOrDefault("READ_TIMEOUT", defaultReadTimeout),
		IdleTimeout:     parseDurationOrDefault("IDLE_TIMEOUT", defaultIdleTimeout),
		GracefulTimeout: parseDurationOrDefault("GRACEFUL_TIMEOUT", defaultGracefulTimeout),
		AllowOrigins:    origins,
	}
}

// TokenConfig holds the signing material for both token kinds. Access and
// refresh tokens never share a key.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func LoadTokenConfig() (*TokenConfig, error) {
	access := os.Getenv("JWT_SECRET")
	if access == "" {
		return nil, fmt.Errorf("JWT_SECRET: %w", ErrMissingSecret)
	}
	refresh := os.Getenv("JWT_REFRESH_SECRET")
	if refresh == "" {
		return nil, fmt.Errorf("JWT_REFRESH_SECRET: %w", ErrMissingSecret)
	}
	if access == refresh {
		return nil, ErrSameSecrets
	}

	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = defaultIssuer
	}

	return &TokenConfig{
		AccessSecret:  []byte(access),
		RefreshSecret: []byte(refresh),
		Issuer:        issuer,
		AccessTTL:     parseDurationOrDefault("JWT_ACCESS_EXPIRES_IN", defaultAccessTTL),
		RefreshTTL:    parseDurationOrDefault("JWT_REFRESH_EXPIRES_IN", defaultRefreshTTL),
	}, nil
}

type PasswordConfig struct {
	Cost int
}

// LoadPasswordConfig rejects costs outside [MinBcryptCost, MaxBcryptCost]
// instead of clamping them.
func LoadPasswordConfig() (*PasswordConfig, error) {
	cost := defaultBcryptCost
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		c, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("BCRYPT_COST=%q: %w", v, ErrBcryptCost)
		}
		cost = c
	}
	if cost < MinBcryptCost || cost > MaxBcryptCost {
		return nil, fmt.Errorf("BCRYPT_COST=%d: %w", cost, ErrBcryptCost)
	}
	return &PasswordConfig{Cost: cost}, nil
}

type CookieConfig struct {
	Name     string
	Path     string
	SameSite http.SameSite
	Secure   bool
	MaxAge   time.Duration
}

func NewCookieConfig(refreshTTL time.Duration) *CookieConfig {
	name := os.Getenv("REFRESH_COOKIE_NAME")
	if name == "" {
		name = defaultCookieName
	}
	path := os.Getenv("REFRESH_COOKIE_PATH")
	if path == "" {
		path = defaultCookiePath
	}

	return &CookieConfig{
		Name:     name,
		Path:     path,
		SameSite: parseSameSite(os.Getenv("REFRESH_COOKIE_SAMESITE")),
		Secure:   parseBoolOrDefault("REFRESH_COOKIE_SECURE", true),
		MaxAge:   refreshTTL,
	}
}

type StoreConfig struct {
	Backend   string
	Retention time.Duration
}

func NewStoreConfig() (*StoreConfig, error) {
	backend := strings.ToLower(os.Getenv("REFRESH_STORE"))
	if backend == "" {
		backend = StoreBackendPostgres
	}
	if backend != StoreBackendPostgres && backend != StoreBackendRedis {
		return nil, fmt.Errorf("unknown REFRESH_STORE %q", backend)
	}
	return &StoreConfig{
		Backend:   backend,
		Retention: parseDurationOrDefault("REFRESH_RETENTION", defaultRetention),
	}, nil
}

type MaintenanceConfig struct {
	APIKey string
}

func NewMaintenanceConfig() *MaintenanceConfig {
	return &MaintenanceConfig{APIKey: os.Getenv("MAINTENANCE_API_KEY")}
}

func GetWebhookURL() string {
	return os.Getenv("SECURITY_WEBHOOK_URL")
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "", "lax":
		return http.SameSiteLaxMode
	default:
		log.Printf("Invalid REFRESH_COOKIE_SAMESITE: %s, using lax", v)
		return http.SameSiteLaxMode
	}
}

func parseBoolOrDefault(varName string, def bool) bool {
	if v := os.Getenv(varName); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("Invalid bool in %s: %s, using default %t", varName, v, def)
	}
	return def
}

func parseDurationOrDefault(varName string, def time.Duration) time.Duration {
	if v := os.Getenv(varName); v != "" {
		if d, err := ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Invalid duration in %s: %s, using default %s", varName, v, def)
	}
	return def
}

// ParseDuration accepts everything time.ParseDuration does plus a whole
// number of days such as "30d".
func ParseDuration(v string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day duration %q: %w", v, err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(v)
}
