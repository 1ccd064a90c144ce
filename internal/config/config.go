package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	Shortener ShortenerConfig
}

type ServerConfig struct {
	Port            string
	BaseURL         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	URL             string
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
	MaxConnIdleTime time.Duration
}

type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	Addr         string
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// ShortenerConfig gathers every tunable of the code generator and the
// resolution engine. The source kept these in process-wide mutable
// globals; here they travel with the service constructed from them.
type ShortenerConfig struct {
	MinCodeLength       int
	MaxCodeLength       int
	RandomCodeLength    int
	MaxSemanticAttempts int
	DefaultExpiry       time.Duration
	MaxPasswordAttempts int
	LockWindow          time.Duration
	GeoTimeout          time.Duration
	CacheTTL            time.Duration
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_BASE_URL", "http://localhost:8080")
	viper.SetDefault("SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "15s")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "root")
	viper.SetDefault("DB_PASSWORD", "root")
	viper.SetDefault("DB_NAME", "linklite")
	viper.SetDefault("DB_MAX_CONNS", 25)
	viper.SetDefault("DB_MIN_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "1h")
	viper.SetDefault("DB_MAX_CONN_IDLE_TIME", "15m")

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_POOL_SIZE", 10)
	viper.SetDefault("REDIS_MIN_IDLE_CONNS", 2)
	viper.SetDefault("REDIS_MAX_RETRIES", 3)

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("LOG_OUTPUT_PATH", "")
	viper.SetDefault("LOG_MAX_SIZE", 100)
	viper.SetDefault("LOG_MAX_BACKUPS", 3)
	viper.SetDefault("LOG_MAX_AGE", 28)
	viper.SetDefault("LOG_COMPRESS", true)

	viper.SetDefault("SHORTENER_MIN_CODE_LENGTH", 5)
	viper.SetDefault("SHORTENER_MAX_CODE_LENGTH", 10)
	viper.SetDefault("SHORTENER_RANDOM_CODE_LENGTH", 6)
	viper.SetDefault("SHORTENER_MAX_SEMANTIC_ATTEMPTS", 5)
	viper.SetDefault("SHORTENER_DEFAULT_EXPIRY_DAYS", 30)
	viper.SetDefault("SHORTENER_MAX_PASSWORD_ATTEMPTS", 5)
	viper.SetDefault("SHORTENER_LOCK_WINDOW", "30m")
	viper.SetDefault("SHORTENER_GEO_TIMEOUT", "500ms")
	viper.SetDefault("SHORTENER_CACHE_TTL", "24h")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, using default values")
	}

	dbConfig := DatabaseConfig{
		Host:            viper.GetString("DB_HOST"),
		Port:            viper.GetString("DB_PORT"),
		User:            viper.GetString("DB_USER"),
		Password:        viper.GetString("DB_PASSWORD"),
		Name:            viper.GetString("DB_NAME"),
		MaxConns:        viper.GetInt("DB_MAX_CONNS"),
		MinConns:        viper.GetInt("DB_MIN_CONNS"),
		ConnMaxLifetime: viper.GetDuration("DB_CONN_MAX_LIFETIME"),
		MaxConnIdleTime: viper.GetDuration("DB_MAX_CONN_IDLE_TIME"),
	}
	dbConfig.URL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.Name,
	)

	redisConfig := RedisConfig{
		Host:         viper.GetString("REDIS_HOST"),
		Port:         viper.GetString("REDIS_PORT"),
		Password:     viper.GetString("REDIS_PASSWORD"),
		DB:           viper.GetInt("REDIS_DB"),
		PoolSize:     viper.GetInt("REDIS_POOL_SIZE"),
		MinIdleConns: viper.GetInt("REDIS_MIN_IDLE_CONNS"),
		MaxRetries:   viper.GetInt("REDIS_MAX_RETRIES"),
	}
	redisConfig.Addr = fmt.Sprintf("%s:%s", redisConfig.Host, redisConfig.Port)

	cfg := &Config{
		Server: ServerConfig{
			Port:            viper.GetString("SERVER_PORT"),
			BaseURL:         viper.GetString("SERVER_BASE_URL"),
			ReadTimeout:     viper.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    viper.GetDuration("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: viper.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Database: dbConfig,
		Redis:    redisConfig,
		Log: LogConfig{
			Level:      viper.GetString("LOG_LEVEL"),
			Format:     viper.GetString("LOG_FORMAT"),
			OutputPath: viper.GetString("LOG_OUTPUT_PATH"),
			MaxSize:    viper.GetInt("LOG_MAX_SIZE"),
			MaxBackups: viper.GetInt("LOG_MAX_BACKUPS"),
			MaxAge:     viper.GetInt("LOG_MAX_AGE"),
			Compress:   viper.GetBool("LOG_COMPRESS"),
		},
		Shortener: ShortenerConfig{
			MinCodeLength:       viper.GetInt("SHORTENER_MIN_CODE_LENGTH"),
			MaxCodeLength:       viper.GetInt("SHORTENER_MAX_CODE_LENGTH"),
			RandomCodeLength:    viper.GetInt("SHORTENER_RANDOM_CODE_LENGTH"),
			MaxSemanticAttempts: viper.GetInt("SHORTENER_MAX_SEMANTIC_ATTEMPTS"),
			DefaultExpiry:       time.Duration(viper.GetInt("SHORTENER_DEFAULT_EXPIRY_DAYS")) * 24 * time.Hour,
			MaxPasswordAttempts: viper.GetInt("SHORTENER_MAX_PASSWORD_ATTEMPTS"),
			LockWindow:          viper.GetDuration("SHORTENER_LOCK_WINDOW"),
			GeoTimeout:          viper.GetDuration("SHORTENER_GEO_TIMEOUT"),
			CacheTTL:            viper.GetDuration("SHORTENER_CACHE_TTL"),
		},
	}

	return cfg, nil
}
