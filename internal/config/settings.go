package config

import (
	"strconv"
	"time"
)

// SettingsGetter is an interface for retrieving raw setting values
type SettingsGetter interface {
	GetSetting(key string) (string, error)
}

// Loader provides typed access to settings with default values
type Loader struct {
	src SettingsGetter
}

// NewLoader creates a new settings loader
func NewLoader(src SettingsGetter) *Loader {
	return &Loader{src: src}
}

// String returns a string setting, or defaultVal if unset or empty
func (l *Loader) String(key, defaultVal string) string {
	if val, _ := l.src.GetSetting(key); val != "" {
		return val
	}
	return defaultVal
}

// Int returns an integer setting, or defaultVal if unset or invalid
func (l *Loader) Int(key string, defaultVal int) int {
	if val, _ := l.src.GetSetting(key); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			return v
		}
	}
	return defaultVal
}

// Bool returns a boolean setting, or defaultVal if unset or unparsable.
// Accepts anything strconv.ParseBool does ("1", "t", "true", "FALSE", ...).
func (l *Loader) Bool(key string, defaultVal bool) bool {
	if val, _ := l.src.GetSetting(key); val != "" {
		if v, err := strconv.ParseBool(val); err == nil {
			return v
		}
	}
	return defaultVal
}

// Duration returns a duration setting in Go duration format ("5s", "1m30s"),
// or defaultVal if unset or invalid
func (l *Loader) Duration(key string, defaultVal time.Duration) time.Duration {
	if val, _ := l.src.GetSetting(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
