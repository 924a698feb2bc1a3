package envutil

import (
	"os"
	"strconv"
	"strings"

	"github.com/yungbote/studynotes-backend/internal/platform/logger"
)

func String(key, def string, log *logger.Logger) string {
	if log != nil {
		log = log.With("env_var", key)
	}
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		if log != nil {
			log.Debug("Environment variable not found, using default", "default", def)
		}
		return def
	}
	if log != nil {
		log.Debug("Environment variable found, using environment", "environment", val)
	}
	return strings.TrimSpace(val)
}

func Int(key string, def int, log *logger.Logger) int {
	if log != nil {
		log = log.With("env_var", key)
	}
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		if log != nil {
			log.Debug("Environment variable could not be parsed as int, using default", "providedVal", raw, "defaultVal", def, "error", err)
		}
		return def
	}
	return i
}

func Bool(key string, def bool) bool {
	switch strings.TrimSpace(strings.ToLower(os.Getenv(key))) {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// List splits a comma separated variable, dropping blanks.
func List(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
