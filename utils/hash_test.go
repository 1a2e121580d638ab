package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestU64(t *testing.T) {
	assert.Equal(t, U64("SELECT 1"), U64("SELECT 1"))
	assert.NotEqual(t, U64("SELECT 1"), U64("SELECT 2"))
}

func TestMix64(t *testing.T) {
	a, b := U64("a"), U64("b")
	assert.Equal(t, Mix64(a, b), Mix64(a, b))
	assert.NotEqual(t, Mix64(a, b), Mix64(b, a))
}
