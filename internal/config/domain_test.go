package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDomainSet(t *testing.T) {
	dom, err := ParseDomain("{0, 1, 2}")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, dom.Values)
	assert.False(t, dom.Empty())
}

func TestParseDomainSetKeepsDeclarationOrder(t *testing.T) {
	dom, err := ParseDomain("{5,1,3}")
	require.NoError(t, err)
	assert.Equal(t, []int{5, 1, 3}, dom.Values)
}

func TestParseDomainRange(t *testing.T) {
	dom, err := ParseDomain("1..5")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, dom.Values)
}

func TestParseDomainSingleton(t *testing.T) {
	dom, err := ParseDomain("7")
	require.NoError(t, err)
	assert.Equal(t, []int{7}, dom.Values)
}

func TestParseDomainHex(t *testing.T) {
	dom, err := ParseDomain("{0x10, 0xff}")
	require.NoError(t, err)
	assert.Equal(t, []int{16, 255}, dom.Values)
}

func TestParseDomainEmptyRange(t *testing.T) {
	_, err := ParseDomain("5..1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestParseDomainRangeLimit(t *testing.T) {
	_, err := ParseDomain("0..100000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")
}

func TestParseDomainMalformed(t *testing.T) {
	for _, expr := range []string{"", "{}", "{1,}", "1..", "abc", "{1 2}"} {
		_, err := ParseDomain(expr)
		assert.Error(t, err, "expression %q", expr)
	}
}
