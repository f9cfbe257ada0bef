package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PortalConfig struct {
	// GatewayURL is the base URL of the credential gateway the portal talks to.
	GatewayURL string
	// GatewayTimeout bounds every call to the gateway.
	GatewayTimeout time.Duration
	// SessionTTL is how long a persisted browser session survives without use.
	SessionTTL time.Duration
	// CookieName carries the browser session id.
	CookieName string
	// CookieSecure marks the session cookie Secure.
	CookieSecure bool
	// DemoMode treats an unreachable gateway as a successful
	// login/signup/verification, with locally synthesized identities.
	// Never enable outside demos.
	DemoMode bool
	// RevalidateOnBoot asks the gateway to confirm a restored token before
	// trusting it. Off by default: restored sessions are trusted as read.
	RevalidateOnBoot bool
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

type SecurityConfig struct {
	JWTSecret     string
	JWTAccessTTL  time.Duration
	DownloadTTL   time.Duration
	MaxUploadSize int64
}

type GatewayConfig struct {
	// PublicURL is how download links handed to browsers address the gateway.
	PublicURL string
}

type AppConfig struct {
	Environment string
	HTTP        HTTPConfig
	Portal      PortalConfig
	Gateway     GatewayConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Storage     StorageConfig
	Security    SecurityConfig
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("DOCBRIDGE")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("portal.gatewayurl", "http://127.0.0.1:8081")
	v.SetDefault("portal.gatewaytimeout", "10s")
	v.SetDefault("portal.sessionttl", "720h") // 30 days
	v.SetDefault("portal.cookiename", "docbridge_sid")
	v.SetDefault("portal.cookiesecure", false)
	v.SetDefault("portal.demomode", false)
	v.SetDefault("portal.revalidateonboot", false)

	v.SetDefault("gateway.publicurl", "http://127.0.0.1:8081")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.bucket", "docbridge-files")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("security.jwtaccessttl", "30m")
	v.SetDefault("security.downloadttl", "24h")
	v.SetDefault("security.maxuploadsize", 50*1024*1024)
}
