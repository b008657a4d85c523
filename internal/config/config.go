// Package config loads service configuration from the environment. Loaded
// values are passed to components explicitly; nothing reads the
// environment after startup.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Match      MatchConfig
	Database   DatabaseConfig
	Detector   DetectorConfig
	Redis      RedisConfig
	MQTT       MQTTConfig
	Web        WebConfig
	Attendance AttendanceConfig
	Log        LogConfig
}

// MatchConfig tunes the matching engine. Zero values fall back to the
// engine's built-in defaults.
type MatchConfig struct {
	AcceptThreshold    float64
	VoteThreshold      float64
	MinSharedKeyPoints int
	MinMeshPoints      int
	Concurrency        int
	WeightsFile        string // optional YAML file overriding the embedded weight tables
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL; empty selects the in-memory store
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type DetectorConfig struct {
	URL     string // landmark detector sidecar base URL (e.g., http://localhost:9090)
	Timeout time.Duration
}

type RedisConfig struct {
	URL string // when set, the check-in dedup window is shared across processes
}

type MQTTConfig struct {
	BrokerURL string // e.g., tcp://localhost:1883; empty disables notifications
	Topic     string
	ClientID  string
	Username  string
	Password  string
}

type WebConfig struct {
	Addr           string
	APIKey         string   // empty disables API key auth
	AllowedOrigins []string // CORS origins besides localhost
}

type AttendanceConfig struct {
	DedupWindow   time.Duration
	SnapshotTTL   time.Duration
	IndexPath     string // path to persist the signature index (optional, rebuilt on startup if empty)
	ShortlistSize int    // candidates from the signature index per probe; 0 scores the full gallery
}

type LogConfig struct {
	Level string
	File  string
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envDuration reads an environment variable and parses it as a positive
// duration ("90s", "5m").
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList reads a comma-separated environment variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func Load() *Config {
	return &Config{
		Match: MatchConfig{
			AcceptThreshold:    envFloat("MATCH_ACCEPT_THRESHOLD", 0),
			VoteThreshold:      envFloat("MATCH_VOTE_THRESHOLD", 0),
			MinSharedKeyPoints: envInt("MATCH_MIN_LANDMARKS", 0),
			MinMeshPoints:      envInt("MATCH_MIN_MESH_POINTS", 0),
			Concurrency:        envInt("MATCH_CONCURRENCY", 0),
			WeightsFile:        os.Getenv("MATCH_WEIGHTS_FILE"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Detector: DetectorConfig{
			URL:     os.Getenv("DETECTOR_URL"),
			Timeout: envDuration("DETECTOR_TIMEOUT", 15*time.Second),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		MQTT: MQTTConfig{
			BrokerURL: os.Getenv("MQTT_BROKER"),
			Topic:     envString("MQTT_TOPIC", "attendance/events"),
			ClientID:  envString("MQTT_CLIENT_ID", "face-attendance"),
			Username:  os.Getenv("MQTT_USERNAME"),
			Password:  os.Getenv("MQTT_PASSWORD"),
		},
		Web: WebConfig{
			Addr:           envString("HTTP_ADDR", ":8080"),
			APIKey:         os.Getenv("API_KEY"),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Attendance: AttendanceConfig{
			DedupWindow:   envDuration("DEDUP_WINDOW", 5*time.Minute),
			SnapshotTTL:   envDuration("SNAPSHOT_TTL", 30*time.Second),
			IndexPath:     os.Getenv("HNSW_INDEX_PATH"),
			ShortlistSize: envInt("SHORTLIST_SIZE", 0),
		},
		Log: LogConfig{
			Level: os.Getenv("LOG_LEVEL"),
			File:  os.Getenv("LOG_FILE"),
		},
	}
}
