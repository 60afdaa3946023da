package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// EnvSettings reads settings from the process environment.
// Dotted keys map to upper-case variable names: "log.max_size_mb" -> LOG_MAX_SIZE_MB.
type EnvSettings struct {
	lookup func(string) (string, bool)
}

// NewEnvSettings returns settings backed by os.LookupEnv
func NewEnvSettings() *EnvSettings {
	return &EnvSettings{lookup: os.LookupEnv}
}

// GetSetting implements SettingsGetter
func (e *EnvSettings) GetSetting(key string) (string, error) {
	val, _ := e.lookup(EnvName(key))
	return strings.TrimSpace(val), nil
}

// EnvName converts a setting key into its environment variable name
func EnvName(key string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Variables that are already set are left untouched, and missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		log.Debug().Str("path", path).Msg("Loaded environment file")
	}
	return nil
}
