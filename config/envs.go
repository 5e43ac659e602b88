package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application's configuration values.
type Config struct {
	HostIP              string // Host IP for the server
	RESTPort            int    // Port for the REST API
	GinMode             string // Mode for the Gin framework (e.g., release, debug, test)
	JWTSecret           string // Secret key for JWT signing
	JWTIssuer           string // Issuer claim for JWTs
	TokenTTLMinutes     int    // Lifetime of guest tokens
	PresenceBackend     string // Where presence lives: memory or redis
	RedisAddr           string // Address of the Redis server
	RedisPassword       string // Password of the Redis server
	PresenceTTLSeconds  int    // Expiry of idle presence records in Redis
	DBHost              string // Hostname or IP address for the database; empty disables the archive
	DBPort              int    // Port number for the database
	DBUser              string // Username for the database
	DBPassword          string // Password for the database
	DBName              string // Name of the database
	StateEncoding       string // Wire encoding of websocket events: json or msgpack
	GameDurationSeconds int    // Seconds before a game finishes on its own; 0 disables
	MazeSeed            int64  // Seed of maze and power-up randomness; 0 seeds from the clock
}

// Envs holds the application's configuration loaded from environment variables.
var Envs = initConfig()

// initConfig initializes and returns the application configuration.
// It loads environment variables from a .env file.
func initConfig() Config {
	// Load .env file if available
	if err := godotenv.Load(); err != nil {
		log.Printf("[APP] [INFO] .env file not found or could not be loaded: %v", err)
	}

	c := Config{
		HostIP:              mustGetEnv("HOST_IP"),
		RESTPort:            mustGetEnvAsInt("REST_PORT"),
		GinMode:             getEnvWithDefault("GIN_MODE", "release"),
		JWTSecret:           mustGetEnv("JWT_SECRET"),
		JWTIssuer:           mustGetEnv("JWT_ISSUER"),
		TokenTTLMinutes:     getEnvAsIntWithDefault("TOKEN_TTL_MINUTES", 24*60),
		PresenceBackend:     getEnvWithDefault("PRESENCE_BACKEND", "memory"),
		PresenceTTLSeconds:  getEnvAsIntWithDefault("PRESENCE_TTL", 3600),
		DBHost:              getEnvWithDefault("DB_HOST", ""),
		StateEncoding:       getEnvWithDefault("STATE_ENCODING", "json"),
		GameDurationSeconds: getEnvAsIntWithDefault("GAME_DURATION_SECONDS", 0),
		MazeSeed:            int64(getEnvAsIntWithDefault("MAZE_SEED", 0)),
	}

	if c.PresenceBackend == "redis" {
		c.RedisAddr = mustGetEnv("REDIS_ADDR")
		c.RedisPassword = getEnvWithDefault("REDIS_PASSWORD", "")
	}

	if c.DBHost != "" {
		c.DBPort = mustGetEnvAsInt("DB_PORT")
		c.DBUser = mustGetEnv("DB_USER")
		c.DBPassword = mustGetEnv("DB_PASS")
		c.DBName = mustGetEnv("DB_NAME")
	}

	return c
}

// mustGetEnv retrieves the value of an environment variable or logs a fatal error if not set.
func mustGetEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		log.Fatalf("[APP] [FATAL] Environment variable %s is not set", key)
	}
	return value
}

// mustGetEnvAsInt retrieves the value of an environment variable as an integer or logs a fatal error if not set or cannot be parsed.
func mustGetEnvAsInt(key string) int {
	valueStr := mustGetEnv(key)
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be an integer: %v", key, err)
	}
	return value
}

// getEnvWithDefault retrieves the value of an environment variable or returns a default value if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsIntWithDefault is getEnvWithDefault for integers. A value that does not parse is fatal.
func getEnvAsIntWithDefault(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be an integer: %v", key, err)
	}
	return value
}
