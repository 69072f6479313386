package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/snapconfig/value"
)

func mustKeys(t *testing.T, v value.Value) []string {
	t.Helper()

	members, ok := v.Members()
	require.True(t, ok, "expected an object, got %s", v.Kind())

	keys := make([]string, 0, len(members))
	for _, m := range members {
		keys = append(keys, m.Key)
	}
	return keys
}

func mustGet(t *testing.T, v value.Value, key string) value.Value {
	t.Helper()

	got, ok := v.Get(key)
	require.True(t, ok, "missing key %q", key)
	return got
}

func TestJSONPreservesKeyOrder(t *testing.T) {
	root, err := JSON{}.Parse([]byte(`{"zeta": 1, "alpha": {"b": true}, "mid": [1, 2.5, "x", null]}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, mustKeys(t, root))

	n, _ := mustGet(t, root, "zeta").AsInt()
	assert.Equal(t, int64(1), n)

	b, _ := mustGet(t, mustGet(t, root, "alpha"), "b").AsBool()
	assert.True(t, b)

	elems, ok := mustGet(t, root, "mid").Elems()
	require.True(t, ok)
	require.Len(t, elems, 4)
	assert.Equal(t, value.KindInt, elems[0].Kind())
	assert.Equal(t, value.KindFloat, elems[1].Kind())
	assert.Equal(t, value.KindString, elems[2].Kind())
	assert.Equal(t, value.KindNull, elems[3].Kind())
}

func TestJSONDuplicateKeysLastWins(t *testing.T) {
	root, err := JSON{}.Parse([]byte(`{"a": 1, "b": 0, "a": 2}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, mustKeys(t, root))
	n, _ := mustGet(t, root, "a").AsInt()
	assert.Equal(t, int64(2), n)
}

func TestJSONRejectsBadInput(t *testing.T) {
	_, err := JSON{}.Parse([]byte(`{"a": `))
	require.Error(t, err)

	_, err = JSON{}.Parse([]byte(`{"a": 1} trailing`))
	require.Error(t, err)
}

func TestYAMLMappingOrderAndScalars(t *testing.T) {
	src := []byte(`
zeta: 1
alpha:
  enabled: true
  ratio: 0.25
  label: plain
  nothing: null
mid:
  - one
  - 2
`)
	root, err := YAML{}.Parse(src)
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, mustKeys(t, root))

	alpha := mustGet(t, root, "alpha")
	b, _ := mustGet(t, alpha, "enabled").AsBool()
	assert.True(t, b)
	f, _ := mustGet(t, alpha, "ratio").AsFloat()
	assert.Equal(t, 0.25, f)
	s, _ := mustGet(t, alpha, "label").AsString()
	assert.Equal(t, "plain", s)
	assert.Equal(t, value.KindNull, mustGet(t, alpha, "nothing").Kind())

	elems, ok := mustGet(t, root, "mid").Elems()
	require.True(t, ok)
	require.Len(t, elems, 2)
	one, _ := elems[0].AsString()
	assert.Equal(t, "one", one)
	two, _ := elems[1].AsInt()
	assert.Equal(t, int64(2), two)
}

func TestYAMLEmptyDocument(t *testing.T) {
	root, err := YAML{}.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, value.KindNull, root.Kind())
}

func TestYAMLRejectsBadInput(t *testing.T) {
	_, err := YAML{}.Parse([]byte("key: [unclosed"))
	require.Error(t, err)
}

func TestYAMLAliasReuse(t *testing.T) {
	src := []byte(`
base: &b
  k: 1
copy: *b
`)
	root, err := YAML{}.Parse(src)
	require.NoError(t, err)

	base := mustGet(t, root, "base")
	cp := mustGet(t, root, "copy")
	assert.True(t, base.Equal(cp))
}

func TestYAMLAliasCycle(t *testing.T) {
	// yaml.v3 parses a self-referential alias without error and returns a
	// cyclic node graph; expansion must fail instead of recursing forever.
	for _, src := range []string{
		"a: &x [*x]",
		"a: &x {k: *x}",
		"a: &x [1, [*x]]",
	} {
		_, err := YAML{}.Parse([]byte(src))
		require.Error(t, err, src)
		assert.Contains(t, err.Error(), "alias cycle", src)
	}
}

func TestTOMLTablesAndOrder(t *testing.T) {
	src := []byte(`
title = "demo"
count = 3

[server]
host = "localhost"
port = 5432
ratio = 1.5

[client]
retries = 2
`)
	root, err := TOML{}.Parse(src)
	require.NoError(t, err)

	assert.Equal(t, []string{"title", "count", "server", "client"}, mustKeys(t, root))

	server := mustGet(t, root, "server")
	assert.Equal(t, []string{"host", "port", "ratio"}, mustKeys(t, server))
	host, _ := mustGet(t, server, "host").AsString()
	assert.Equal(t, "localhost", host)
	port, _ := mustGet(t, server, "port").AsInt()
	assert.Equal(t, int64(5432), port)
	ratio, _ := mustGet(t, server, "ratio").AsFloat()
	assert.Equal(t, 1.5, ratio)
}

func TestTOMLArraysAndDatetime(t *testing.T) {
	src := []byte(`
tags = ["a", "b"]
when = 2024-05-01T12:00:00Z
`)
	root, err := TOML{}.Parse(src)
	require.NoError(t, err)

	elems, ok := mustGet(t, root, "tags").Elems()
	require.True(t, ok)
	require.Len(t, elems, 2)

	// Datetimes have no canonical kind; they flatten to RFC 3339 strings.
	when, ok := mustGet(t, root, "when").AsString()
	require.True(t, ok)
	assert.Contains(t, when, "2024-05-01T12:00:00")
}

func TestTOMLRejectsBadInput(t *testing.T) {
	_, err := TOML{}.Parse([]byte(`key = `))
	require.Error(t, err)
}

func TestINISectionsAndCoercion(t *testing.T) {
	src := []byte(`
top = yes

[server]
host = localhost
port = 5432
debug = true
timeout = 1.5
empty =
`)
	root, err := INI{}.Parse(src)
	require.NoError(t, err)

	assert.Equal(t, []string{"default", "server"}, mustKeys(t, root))

	server := mustGet(t, root, "server")
	host, _ := mustGet(t, server, "host").AsString()
	assert.Equal(t, "localhost", host)
	port, _ := mustGet(t, server, "port").AsInt()
	assert.Equal(t, int64(5432), port)
	debug, _ := mustGet(t, server, "debug").AsBool()
	assert.True(t, debug)
	timeout, _ := mustGet(t, server, "timeout").AsFloat()
	assert.Equal(t, 1.5, timeout)
	empty, _ := mustGet(t, server, "empty").AsString()
	assert.Equal(t, "", empty)
}

func TestINIWithoutTopLevelKeys(t *testing.T) {
	root, err := INI{}.Parse([]byte("[only]\nk = v\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"only"}, mustKeys(t, root))
}

func TestDotenvParsing(t *testing.T) {
	src := []byte(`
# a comment
export HOST=localhost
PORT=5432
DEBUG=true
RATIO=0.5
QUOTED="8080"
SINGLE='keep me'
EMPTY=
not a pair
=novalue
`)
	root, err := Dotenv{}.Parse(src)
	require.NoError(t, err)

	assert.Equal(t, []string{"HOST", "PORT", "DEBUG", "RATIO", "QUOTED", "SINGLE", "EMPTY"}, mustKeys(t, root))

	host, _ := mustGet(t, root, "HOST").AsString()
	assert.Equal(t, "localhost", host)
	port, _ := mustGet(t, root, "PORT").AsInt()
	assert.Equal(t, int64(5432), port)
	debug, _ := mustGet(t, root, "DEBUG").AsBool()
	assert.True(t, debug)
	ratio, _ := mustGet(t, root, "RATIO").AsFloat()
	assert.Equal(t, 0.5, ratio)

	// Quoting suppresses scalar coercion.
	quoted, ok := mustGet(t, root, "QUOTED").AsString()
	require.True(t, ok)
	assert.Equal(t, "8080", quoted)
	single, _ := mustGet(t, root, "SINGLE").AsString()
	assert.Equal(t, "keep me", single)

	empty, _ := mustGet(t, root, "EMPTY").AsString()
	assert.Equal(t, "", empty)
}

func TestDotenvNeverFails(t *testing.T) {
	root, err := Dotenv{}.Parse([]byte("%%% total garbage %%%"))
	require.NoError(t, err)
	assert.Equal(t, 0, root.Len())
}

func TestByName(t *testing.T) {
	for name, want := range map[string]string{
		"json":   "json",
		"JSON":   "json",
		"yaml":   "yaml",
		"yml":    "yaml",
		"toml":   "toml",
		"ini":    "ini",
		"cfg":    "ini",
		"env":    "dotenv",
		"dotenv": "dotenv",
	} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, want, c.Name(), name)
	}

	_, ok := ByName("xml")
	assert.False(t, ok)
}

func TestByPath(t *testing.T) {
	for path, want := range map[string]string{
		"app.json":          "json",
		"app.yaml":          "yaml",
		"app.yml":           "yaml",
		"app.toml":          "toml",
		"app.ini":           "ini",
		"app.cfg":           "ini",
		"app.conf":          "ini",
		".env":              "dotenv",
		".env.local":        "dotenv",
		"/etc/svc/app.toml": "toml",
		"no-extension":      "dotenv",
	} {
		assert.Equal(t, want, ByPath(path).Name(), path)
	}
}
