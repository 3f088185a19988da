package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownKey is wrapped by CheckKey for unsupported keys.
var ErrUnknownKey = errors.New("unknown config key")

// validValues maps known keys to their allowed values.
// An empty slice means any string is accepted.
var validValues = map[string][]string{
	KeyLogLevel: {"debug", "info", "warn", "error"},
}

// CheckKey returns an error wrapping ErrUnknownKey when key is not supported.
func CheckKey(key string) error {
	if IsKnown(key) {
		return nil
	}
	return fmt.Errorf("%w %q (supported: %s)", ErrUnknownKey, key, strings.Join(Keys, ", "))
}

// ValidateValue checks a single value for key.
func ValidateValue(key, val string) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	if allowed := validValues[key]; len(allowed) > 0 && !contains(allowed, val) {
		return fmt.Errorf("%s: invalid value %q (allowed: %s)", key, val, strings.Join(allowed, ", "))
	}

	// Keys with no enumerated values have type-specific checks.
	switch key {
	case KeyGitHubAutoLabels:
		if _, err := strconv.ParseBool(val); err != nil {
			return fmt.Errorf("%s: must be true or false, got %q", key, val)
		}
	case KeyUserEmail:
		if val != "" && !strings.Contains(val, "@") {
			return fmt.Errorf("%s: %q is not an email address", key, val)
		}
	}
	return nil
}

// Validate checks all values in s for known keys. It returns an error
// describing every invalid value found, or nil if all values are valid.
// Unknown keys are ignored so that older files still load.
func Validate(s Store) error {
	all := s.All()
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []string
	for _, key := range keys {
		if !IsKnown(key) {
			continue
		}
		if err := ValidateValue(key, all[key]); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
