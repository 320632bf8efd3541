package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidProvider(t *testing.T) {
	for _, p := range ValidProviders() {
		assert.True(t, IsValidProvider(p), "provider %s should be valid", p)
	}

	assert.False(t, IsValidProvider("square"))
	assert.False(t, IsValidProvider(""))
	assert.False(t, IsValidProvider("PayPal"))
}

func TestIsValidEnvironment(t *testing.T) {
	assert.True(t, IsValidEnvironment(EnvironmentLive))
	assert.True(t, IsValidEnvironment(EnvironmentTest))

	// auto is a request-side value, never an effective environment.
	assert.False(t, IsValidEnvironment(EnvironmentAuto))
	assert.False(t, IsValidEnvironment(""))
	assert.False(t, IsValidEnvironment("sandbox"))
}
