package loader

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultEnvPrefix is the prefix of the emulator's environment variables.
const DefaultEnvPrefix = "REFLEX_EMU_"

// EnvLoader maps environment variables onto configuration keys.
//
// Explicitly mapped variables go to their mapped path. Other variables
// carrying the prefix map by convention: REFLEX_EMU_EVENTS_CHANNEL becomes
// events.channel and REFLEX_EMU_WATCH_DEBOUNCE_MS becomes
// watch.debounceMs.
//
// Without a template, booleans and integers are converted and everything
// else stays a string. With a template, each value takes the type of the
// template value at its path, and variables whose path the template lacks
// are skipped with a warning.
type EnvLoader struct {
	prefix   string
	mapping  map[string]string
	template map[string]any
	logger   *log.Logger
	environ  func() []string
}

// EnvOption configures an EnvLoader.
type EnvOption func(*EnvLoader)

// WithTemplate types values against template, a configuration map holding
// a value for every known path.
func WithTemplate(template map[string]any) EnvOption {
	return func(l *EnvLoader) {
		l.template = template
	}
}

// WithEnvLogger sets the logger that reports skipped variables.
func WithEnvLogger(logger *log.Logger) EnvOption {
	return func(l *EnvLoader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// EnvError reports a variable whose value does not fit its configuration key.
type EnvError struct {
	Var  string
	Path string
	Err  error
}

func (e *EnvError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Var, e.Path, e.Err)
}

func (e *EnvError) Unwrap() error {
	return e.Err
}

// NewEnvLoader creates a loader for prefix with the default mapping.
func NewEnvLoader(prefix string, opts ...EnvOption) *EnvLoader {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	return NewEnvLoaderWithMapping(prefix, defaultEnvMapping(prefix), opts...)
}

// NewEnvLoaderWithMapping creates a loader with a custom mapping.
func NewEnvLoaderWithMapping(prefix string, mapping map[string]string, opts ...EnvOption) *EnvLoader {
	l := &EnvLoader{
		prefix:  prefix,
		mapping: mapping,
		logger:  log.New(io.Discard),
		environ: os.Environ,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func defaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "LOG_LEVEL": "log.level",
		prefix + "BACKEND":   "storage.backend",
		prefix + "PATH":      "storage.path",
		prefix + "KEY":       "storage.key",
		prefix + "REDIS_URL": "redis.url",
	}
}

// AddMapping maps envVar to a dotted configuration path.
func (l *EnvLoader) AddMapping(envVar, path string) {
	if l.mapping == nil {
		l.mapping = make(map[string]string)
	}
	l.mapping[envVar] = path
}

// Load implements Loader. Empty values count as set.
func (l *EnvLoader) Load() (map[string]any, error) {
	out := make(map[string]any)
	for _, kv := range l.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		path, mapped := l.mapping[name]
		if !mapped {
			path = l.envToPath(name)
		}
		if path == "" {
			continue
		}
		if l.template == nil {
			setByPath(out, path, parseValue(value))
			continue
		}

		want, known := lookupPath(l.template, path)
		if !known {
			l.logger.Warn("ignoring unknown environment variable", "var", name, "path", path)
			continue
		}
		v, err := coerceValue(value, want)
		if err != nil {
			return nil, &EnvError{Var: name, Path: path, Err: err}
		}
		setByPath(out, path, v)
	}
	return out, nil
}

// envToPath converts PREFIX_SECTION_SOME_NAME to section.someName.
func (l *EnvLoader) envToPath(env string) string {
	parts := strings.Split(strings.TrimPrefix(env, l.prefix), "_")
	if len(parts) < 2 || parts[0] == "" {
		return ""
	}

	var name strings.Builder
	name.WriteString(strings.ToLower(parts[1]))
	for _, p := range parts[2:] {
		if p == "" {
			continue
		}
		name.WriteString(strings.ToUpper(p[:1]))
		name.WriteString(strings.ToLower(p[1:]))
	}
	return strings.ToLower(parts[0]) + "." + name.String()
}

// parseValue converts booleans and integers; everything else stays a
// string. Loaders with a template use coerceValue instead.
func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	return s
}

// coerceValue converts s to the type of want.
func coerceValue(s string, want any) (any, error) {
	switch want.(type) {
	case string:
		return s, nil
	case bool:
		return strconv.ParseBool(s)
	case int, int64, float64:
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		return strconv.ParseFloat(s, 64)
	default:
		return parseValue(s), nil
	}
}

// lookupPath returns the leaf value at a dot-separated path. Sections are
// not leaves.
func lookupPath(data map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	v, ok := current[parts[len(parts)-1]]
	if !ok {
		return nil, false
	}
	if _, section := v.(map[string]any); section {
		return nil, false
	}
	return v, true
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
