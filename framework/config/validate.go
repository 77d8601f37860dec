package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// rules maps each setting to a pipe-separated rule string, e.g.
// "required|in:sqlite,mysql". Rules run left to right and stop at the first
// failure for a key.
var rules = map[string]string{
	"APP_NAME":         "required",
	"APP_ENV":          "required|in:local,production,testing",
	"APP_PORT":         "required|integer|between:1,65535",
	"LOG_LEVEL":        "required|in:debug,info,warn,error",
	"LOG_FORMAT":       "required|in:json,console",
	"DB_DRIVER":        "required|in:sqlite,mysql",
	"DB_DSN":           "required",
	"HEALTH_PATH":      "required|prefix:/",
	"HEALTH_TIMEOUT":   "positive",
	"SHUTDOWN_TIMEOUT": "positive",
}

// ValidationError lists every setting that broke a rule.
type ValidationError struct {
	Fields map[string][]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, strings.Join(e.Fields[k], " "))
	}
	return "config: " + strings.Join(msgs, "; ")
}

// First returns the first message recorded for key.
func (e *ValidationError) First(key string) string {
	if msgs := e.Fields[key]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (e *ValidationError) add(key, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[key] = append(e.Fields[key], msg)
}

// Validate checks the loaded settings. It returns a *ValidationError
// describing every invalid key, or nil.
func (c *Config) Validate() error {
	values := map[string]string{
		"APP_NAME":         c.App.Name,
		"APP_ENV":          c.App.Env,
		"APP_PORT":         c.App.Port,
		"LOG_LEVEL":        c.Log.Level,
		"LOG_FORMAT":       c.Log.Encoding,
		"DB_DRIVER":        c.DB.Driver,
		"DB_DSN":           c.DB.DSN,
		"HEALTH_PATH":      c.Health.Path,
		"HEALTH_TIMEOUT":   c.Health.Timeout.String(),
		"SHUTDOWN_TIMEOUT": c.App.ShutdownTimeout.String(),
	}

	verr := &ValidationError{}
	for key, ruleStr := range rules {
		for _, rule := range strings.Split(ruleStr, "|") {
			name, param, _ := strings.Cut(rule, ":")
			if msg, ok := check(key, values[key], name, param); !ok {
				verr.add(key, msg)
				break
			}
		}
	}
	if len(verr.Fields) == 0 {
		return nil
	}
	return verr
}

// check returns a message and false when value breaks the rule.
func check(key, value, rule, param string) (string, bool) {
	switch rule {
	case "required":
		if strings.TrimSpace(value) == "" {
			return fmt.Sprintf("%s is required.", key), false
		}

	case "integer":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Sprintf("%s must be an integer.", key), false
		}

	case "between":
		a, b, _ := strings.Cut(param, ",")
		lo, _ := strconv.Atoi(a)
		hi, _ := strconv.Atoi(b)
		n, _ := strconv.Atoi(value)
		if n < lo || n > hi {
			return fmt.Sprintf("%s must be between %d and %d.", key, lo, hi), false
		}

	case "in":
		for _, allowed := range strings.Split(param, ",") {
			if allowed == value {
				return "", true
			}
		}
		return fmt.Sprintf("%s must be one of %s.", key, param), false

	case "prefix":
		if !strings.HasPrefix(value, param) {
			return fmt.Sprintf("%s must start with %q.", key, param), false
		}

	case "positive":
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			return fmt.Sprintf("%s must be a positive duration.", key), false
		}
	}
	return "", true
}
