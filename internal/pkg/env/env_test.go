package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv_PrefersLoadedMap(t *testing.T) {
	t.Setenv("CERTIFOX_TEST_KEY", "from-os")
	Env = map[string]string{"CERTIFOX_TEST_KEY": "from-file"}
	defer func() { Env = nil }()

	assert.Equal(t, "from-file", GetEnv("CERTIFOX_TEST_KEY", "def"))
}

func TestGetEnv_FallsBackToOSAndDefault(t *testing.T) {
	Env = map[string]string{}
	defer func() { Env = nil }()

	t.Setenv("CERTIFOX_TEST_KEY", "from-os")
	assert.Equal(t, "from-os", GetEnv("CERTIFOX_TEST_KEY", "def"))
	assert.Equal(t, "def", GetEnv("CERTIFOX_MISSING_KEY", "def"))
}

func TestGetEnvInt(t *testing.T) {
	Env = map[string]string{"N": "12", "BAD": "abc"}
	defer func() { Env = nil }()

	assert.Equal(t, 12, GetEnvInt("N", 3))
	assert.Equal(t, 3, GetEnvInt("BAD", 3))
	assert.Equal(t, 3, GetEnvInt("NOPE", 3))
}

func TestGetEnvBool(t *testing.T) {
	Env = map[string]string{"A": "true", "B": "0", "C": "maybe"}
	defer func() { Env = nil }()

	assert.True(t, GetEnvBool("A", false))
	assert.False(t, GetEnvBool("B", true))
	assert.True(t, GetEnvBool("C", true))
	assert.False(t, GetEnvBool("D", false))
}
