package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Reader driver identifiers accepted by READER_DRIVER.
const (
	ReaderDriverExec   = "exec"
	ReaderDriverSerial = "serial"
	ReaderDriverSim    = "sim"
)

type Config struct {
	Env  string
	Port int

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	MQTT       MQTTConfig
	Reader     ReaderConfig
	Enrollment EnrollmentConfig
	Sync       SyncConfig
	Reports    ReportsConfig
}

// DatabaseConfig points at the embedded SQLite file owned by this edge node.
type DatabaseConfig struct {
	Path         string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MQTTConfig configures the broker link to the field terminals.
type MQTTConfig struct {
	Enabled        bool
	Host           string
	Port           int
	ClientID       string
	ConnectTimeout time.Duration
}

// ReaderConfig selects and tunes the card reader adapter.
type ReaderConfig struct {
	Driver      string
	Command     []string
	SerialPort  string
	BaudRate    int
	ReadTimeout time.Duration
	SimDelay    time.Duration
}

// EnrollmentConfig tunes the enrollment workflow lifecycle.
type EnrollmentConfig struct {
	DrainTimeout time.Duration
}

// SyncConfig tunes the reference data sync surface.
type SyncConfig struct {
	CacheTTL time.Duration
}

// ReportsConfig gates the attendance report endpoints.
type ReportsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Database = DatabaseConfig{
		Path:         v.GetString("DB_PATH"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.MQTT = MQTTConfig{
		Enabled:        v.GetBool("MQTT_ENABLED"),
		Host:           v.GetString("MQTT_BROKER_HOST"),
		Port:           v.GetInt("MQTT_BROKER_PORT"),
		ClientID:       v.GetString("MQTT_CLIENT_ID"),
		ConnectTimeout: parseDuration(v.GetString("MQTT_CONNECT_TIMEOUT"), 5*time.Second),
	}

	cfg.Reader = ReaderConfig{
		Driver:      v.GetString("READER_DRIVER"),
		Command:     strings.Fields(v.GetString("READER_COMMAND")),
		SerialPort:  v.GetString("READER_SERIAL_PORT"),
		BaudRate:    v.GetInt("READER_BAUD_RATE"),
		ReadTimeout: parseDuration(v.GetString("READER_TIMEOUT"), 30*time.Second),
		SimDelay:    parseDuration(v.GetString("READER_SIM_DELAY"), 2*time.Second),
	}

	cfg.Enrollment = EnrollmentConfig{
		DrainTimeout: parseDuration(v.GetString("ENROLLMENT_DRAIN_TIMEOUT"), 10*time.Second),
	}

	cfg.Sync = SyncConfig{
		CacheTTL: parseDuration(v.GetString("SYNC_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Reports = ReportsConfig{Enabled: v.GetBool("ENABLE_REPORTS")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8000)

	v.SetDefault("DB_PATH", "./central_server.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 1)
	v.SetDefault("DB_MAX_IDLE_CONNS", 1)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MQTT_ENABLED", true)
	v.SetDefault("MQTT_BROKER_HOST", "localhost")
	v.SetDefault("MQTT_BROKER_PORT", 1883)
	v.SetDefault("MQTT_CLIENT_ID", "cs_edge_mqtt_client")
	v.SetDefault("MQTT_CONNECT_TIMEOUT", "5s")

	v.SetDefault("READER_DRIVER", ReaderDriverExec)
	v.SetDefault("READER_COMMAND", "python3 serial_enroll_sim.py")
	v.SetDefault("READER_SERIAL_PORT", "/dev/ttyUSB0")
	v.SetDefault("READER_BAUD_RATE", 115200)
	v.SetDefault("READER_TIMEOUT", "30s")
	v.SetDefault("READER_SIM_DELAY", "2s")

	v.SetDefault("ENROLLMENT_DRAIN_TIMEOUT", "10s")
	v.SetDefault("SYNC_CACHE_TTL", "5m")
	v.SetDefault("ENABLE_REPORTS", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
