package utils

import (
	"os"
	"strconv"
	"strings"

	"github.com/yungbote/examify-backend/internal/logger"
)

func GetEnv(key, defaultVal string, log *logger.Logger) string {
	if log != nil {
		log = log.With("env_var", key)
	}
	val, ok := os.LookupEnv(key)
	if !ok {
		if log != nil {
			log.Debug("Environment variable not found, using default", "default", defaultVal)
		}
		return defaultVal
	}
	if log != nil {
		log.Debug("Environment variable found, using environment", "environment", val)
	}
	return val
}

func GetEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
	if log != nil {
		log = log.With("env_var", key)
	}
	valStr, ok := os.LookupEnv(key)
	if !ok {
		if log != nil {
			log.Debug("Environment variable not found, using default", "default", defaultVal)
		}
		return defaultVal
	}
	i, err := strconv.Atoi(strings.TrimSpace(valStr))
	if err != nil {
		if log != nil {
			log.Debug("Environment variable could not be parsed as int, using default", "providedVal", valStr, "defaultVal", defaultVal, "error", err)
		}
		return defaultVal
	}
	if log != nil {
		log.Debug("Environment variable found, using it", "value", i)
	}
	return i
}

// IsPlaceholder reports whether a credential value is absent or still one of
// the sample values shipped in .env templates.
func IsPlaceholder(val string) bool {
	v := strings.TrimSpace(val)
	if v == "" {
		return true
	}
	upper := strings.ToUpper(v)
	if strings.HasPrefix(upper, "YOUR_") {
		return true
	}
	switch strings.ToLower(v) {
	case "changeme", "replace_me", "placeholder":
		return true
	}
	return false
}
