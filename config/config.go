// Package config provides configuration management for the taskman application.
// It loads values from environment variables, with support for required variables,
// default values, and collective error reporting so a misconfigured deployment
// fails fast with every problem listed at once.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DatabaseConfig represents configuration for the database connection pool.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxSize  int
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// BcryptCost controls the work factor for password hashing.
	BcryptCost int
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port string
}

// StorageConfig holds blob storage configuration.
type StorageConfig struct {
	// Root is the directory uploaded files are written under. Its contents are
	// served publicly at /storage/.
	Root string
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	Database *DatabaseConfig
	Auth     *AuthConfig
	Server   *ServerConfig
	Storage  *StorageConfig
}

// getRequiredEnv reads a required environment variable, appending to the errors
// slice if it is not set.
func getRequiredEnv(key string, errors *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		*errors = append(*errors, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// getOptionalEnv reads an environment variable with a default string value.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getOptionalEnvInt reads an environment variable parsed as an int. Uses
// defaultValue if not set; appends an error if parsing fails.
func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// clampPoolSize keeps the connection pool size within sane bounds.
func clampPoolSize(size int) int {
	if size < 2 {
		return 2
	}
	if size > 100 {
		return 100
	}
	return size
}

// LoadConfig creates and returns an AppConfig by reading and validating
// environment variables. It collects all errors encountered during loading and
// returns a single aggregated error if any exist.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	dbUser := getRequiredEnv("DB_USER", &errors)
	dbPassword := getRequiredEnv("DB_PASSWORD", &errors)
	dbName := getRequiredEnv("DB_NAME", &errors)
	dbHost := getOptionalEnv("DB_HOST", "localhost")
	dbPort := getOptionalEnvInt("DB_PORT", 5432, &errors)
	poolSize := clampPoolSize(getOptionalEnvInt("DB_POOL_SIZE", 10, &errors))

	database := &DatabaseConfig{
		Host:     dbHost,
		Port:     dbPort,
		User:     dbUser,
		Password: dbPassword,
		DBName:   dbName,
		MaxSize:  poolSize,
	}

	bcryptCost := getOptionalEnvInt("BCRYPT_COST", bcrypt.DefaultCost, &errors)
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		errors = append(errors, fmt.Sprintf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, bcryptCost))
		bcryptCost = bcrypt.DefaultCost
	}
	authConfig := &AuthConfig{BcryptCost: bcryptCost}

	serverConfig := &ServerConfig{Port: getOptionalEnv("PORT", "8080")}

	storageConfig := &StorageConfig{Root: getOptionalEnv("STORAGE_ROOT", "storage/public")}

	if len(errors) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return &AppConfig{
		Database: database,
		Auth:     authConfig,
		Server:   serverConfig,
		Storage:  storageConfig,
	}, nil
}
