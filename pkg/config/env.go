package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// DefaultEnvFiles are read when ENV_FILE is unset. Later files win.
var DefaultEnvFiles = []string{".env", ".env.dev"}

// LoadEnv copies POKEAPI_*, GRAPHQL_*, LOG_LEVEL and friends from local env
// files into the process environment and returns the files it read.
// ENV_FILE replaces the default list with a comma-separated one. Values
// already set (non-blank) in the process win over every file, so a
// container's environment is never shadowed by a stray .env.
func LoadEnv(logger *logrus.Logger) []string {
	files := DefaultEnvFiles
	if custom := GetEnv("ENV_FILE", ""); custom != "" {
		files = strings.Split(custom, ",")
	}

	merged := map[string]string{}
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		file = strings.TrimSpace(file)
		if file == "" {
			continue
		}
		values, err := godotenv.Read(file)
		if err != nil {
			if logger != nil && !errors.Is(err, fs.ErrNotExist) {
				logger.WithError(err).WithField("file", file).Warn("Skipping unreadable env file")
			}
			continue
		}
		for key, value := range values {
			merged[key] = value
		}
		loaded = append(loaded, file)
	}

	applied := 0
	for key, value := range merged {
		if strings.TrimSpace(os.Getenv(key)) != "" {
			continue
		}
		if err := os.Setenv(key, value); err == nil {
			applied++
		}
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"files":   loaded,
			"applied": applied,
		}).Debug("Environment loaded")
	}
	return loaded
}

// GetEnv gets an environment variable with a default value
func GetEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets an integer environment variable with a default value
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvBool gets a boolean environment variable with a default value
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvSeconds reads a whole number of seconds. Zero and negative values
// yield zero, which callers treat as "no limit".
func GetEnvSeconds(key string, defaultSeconds int) time.Duration {
	seconds := GetEnvInt(key, defaultSeconds)
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// GetLogLevel gets the log level from environment
func GetLogLevel() logrus.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
