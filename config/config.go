package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// FrontendEnvKeys are the browser-side settings exposed to the SPA.
var FrontendEnvKeys = []string{
	"VITE_FIREBASE_API_KEY",
	"VITE_FIREBASE_AUTH_DOMAIN",
	"VITE_FIREBASE_PROJECT_ID",
	"VITE_FIREBASE_STORAGE_BUCKET",
	"VITE_FIREBASE_MESSAGING_SENDER_ID",
	"VITE_FIREBASE_APP_ID",
	"VITE_FIREBASE_MEASUREMENT_ID",
}

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	LogPath           string `mapstructure:"LOG_PATH"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	CORSOrigins       string `mapstructure:"CORS_ORIGINS"`
	DistPath          string `mapstructure:"DIST_PATH"`

	// Document store. STORE_DRIVER=memory runs without MongoDB and Redis;
	// identity still goes through Firebase.
	StoreDriver  string `mapstructure:"STORE_DRIVER"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// Identity provider.
	FirebaseCredentialsFile string        `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	FirebaseWebAPIKey       string        `mapstructure:"FIREBASE_WEB_API_KEY"`
	IdentityInitTimeout     time.Duration `mapstructure:"IDENTITY_INIT_TIMEOUT"`
	SessionTTL              time.Duration `mapstructure:"SESSION_TTL"`
	SessionIdleTimeout      time.Duration `mapstructure:"SESSION_IDLE_TIMEOUT"`
	SecureCookies           bool          `mapstructure:"SECURE_COOKIES"`

	// PushEnabled turns on FCM delivery of booking events.
	PushEnabled bool `mapstructure:"PUSH_ENABLED"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()
	viper.AllowEmptyEnv(true)

	// PORT is what most hosting platforms set.
	_ = viper.BindEnv("APP_PORT", "APP_PORT", "PORT")
	_ = viper.BindEnv("FIREBASE_WEB_API_KEY", "FIREBASE_WEB_API_KEY", "VITE_FIREBASE_API_KEY")

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_PATH", "")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("CORS_ORIGINS", "*")
	viper.SetDefault("DIST_PATH", "dist")
	viper.SetDefault("STORE_DRIVER", "mongo")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "servicehub")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 3)
	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "serviceAccountKey.json")
	viper.SetDefault("IDENTITY_INIT_TIMEOUT", "1500ms")
	viper.SetDefault("SESSION_TTL", "120h")
	viper.SetDefault("SESSION_IDLE_TIMEOUT", "30m")
	viper.SetDefault("SECURE_COOKIES", false)
	viper.SetDefault("PUSH_ENABLED", false)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

// FrontendEnv returns the browser settings that are present. Unset keys are
// omitted; a key set to the empty string is kept.
func FrontendEnv() map[string]string {
	viper.AllowEmptyEnv(true)
	env := make(map[string]string, len(FrontendEnvKeys))
	for _, key := range FrontendEnvKeys {
		_ = viper.BindEnv(key)
		if viper.IsSet(key) {
			env[key] = viper.GetString(key)
		}
	}
	return env
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// UseMemoryStore reports whether the in-process backends are selected.
func UseMemoryStore() bool {
	return AppConfig.StoreDriver == "memory"
}
