package snapconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvForcesDotenvFormat(t *testing.T) {
	dir := t.TempDir()
	// A .json name would normally select the JSON codec; LoadEnv must not
	// care about extensions.
	source := writeFile(t, dir, "vars.json", "HOST=localhost\nPORT=5432\n")

	cfg, err := LoadEnv(source)
	require.NoError(t, err)
	defer cfg.Close()

	host, ok := cfg.Get("HOST")
	require.True(t, ok)
	s, err := host.AsString()
	require.NoError(t, err)
	assert.Equal(t, "localhost", s)

	port, ok := cfg.Get("PORT")
	require.True(t, ok)
	n, err := port.AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(5432), n)
}

func TestLoadEnvMissingFile(t *testing.T) {
	_, err := LoadEnv(filepath.Join(t.TempDir(), ".env"))
	require.ErrorIs(t, err, ErrSourceNotFound)
}

func TestLoadDotenvSetsEnvironment(t *testing.T) {
	dir := t.TempDir()
	source := writeFile(t, dir, ".env",
		"SNAPTEST_NEW=hello\n"+
			"SNAPTEST_NUM=42\n"+
			"SNAPTEST_FLAG=true\n"+
			"SNAPTEST_EMPTY=null\n"+
			"SNAPTEST_KEPT=from-file\n")

	t.Setenv("SNAPTEST_KEPT", "from-process")
	for _, key := range []string{"SNAPTEST_NEW", "SNAPTEST_NUM", "SNAPTEST_FLAG", "SNAPTEST_EMPTY"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	n, err := LoadDotenv(source, false)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	assert.Equal(t, "hello", os.Getenv("SNAPTEST_NEW"))
	assert.Equal(t, "42", os.Getenv("SNAPTEST_NUM"))
	assert.Equal(t, "true", os.Getenv("SNAPTEST_FLAG"))

	// Null renders as an empty, but set, variable.
	v, exists := os.LookupEnv("SNAPTEST_EMPTY")
	assert.True(t, exists)
	assert.Equal(t, "", v)

	// Without override the process value wins.
	assert.Equal(t, "from-process", os.Getenv("SNAPTEST_KEPT"))

	n, err = LoadDotenv(source, true)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "from-file", os.Getenv("SNAPTEST_KEPT"))
}

func TestLoadDotenvMissingFile(t *testing.T) {
	_, err := LoadDotenv(filepath.Join(t.TempDir(), "absent.env"), false)
	require.ErrorIs(t, err, ErrSourceNotFound)
}
