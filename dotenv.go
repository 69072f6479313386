package snapconfig

import (
	"os"
	"strconv"

	"github.com/hupe1980/snapconfig/value"
	"github.com/hupe1980/snapconfig/zerocopy"
)

// LoadEnv loads a dotenv file through the cache, like Load but defaulting
// to ".env" and forcing the dotenv format regardless of file name.
func LoadEnv(path string, opts ...Option) (*Config, error) {
	if path == "" {
		path = ".env"
	}
	return Load(path, append(opts, WithFormat("env"))...)
}

// LoadDotenv loads a dotenv file and populates the process environment,
// returning the number of variables set.
//
// Only this operation touches os.Environ; a plain Load or LoadEnv never
// does. Existing variables are kept unless override is true. Nested values are skipped; scalars are
// stringified the way a shell would read them.
func LoadDotenv(path string, override bool, opts ...Option) (int, error) {
	cfg, err := LoadEnv(path, opts...)
	if err != nil {
		return 0, err
	}
	defer cfg.Close()

	count := 0
	for key, v := range cfg.Root().All() {
		if _, exists := os.LookupEnv(key); exists && !override {
			continue
		}
		s, ok := envString(v)
		if !ok {
			continue
		}
		if err := os.Setenv(key, s); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// envString renders a scalar view as an environment variable value.
func envString(v zerocopy.View) (string, bool) {
	switch v.Kind() {
	case value.KindString:
		s, err := v.AsString()
		return s, err == nil
	case value.KindInt:
		i, err := v.AsInt()
		if err != nil {
			return "", false
		}
		return strconv.FormatInt(i, 10), true
	case value.KindFloat:
		f, err := v.AsFloat()
		if err != nil {
			return "", false
		}
		return strconv.FormatFloat(f, 'g', -1, 64), true
	case value.KindBool:
		b, err := v.AsBool()
		if err != nil {
			return "", false
		}
		if b {
			return "true", true
		}
		return "false", true
	case value.KindNull:
		return "", true
	default:
		return "", false
	}
}
