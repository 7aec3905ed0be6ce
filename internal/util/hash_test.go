package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashIsStable(t *testing.T) {
	assert.Equal(t, Hash("Hello"), Hash("Hello"))
	assert.NotEqual(t, Hash("Hello"), Hash("hello"))
	assert.Len(t, Hash("anything"), 32)
}

func TestStripPort(t *testing.T) {
	assert.Equal(t, "es.example.com", StripPort("es.example.com:8080"))
	assert.Equal(t, "es.example.com", StripPort("es.example.com"))
	assert.Equal(t, "localhost", StripPort("localhost:3000"))
}

func TestNormalisePath(t *testing.T) {
	assert.Equal(t, "/", NormalisePath(""))
	assert.Equal(t, "/", NormalisePath("/"))
	assert.Equal(t, "/about", NormalisePath("/about/"))
	assert.Equal(t, "/about", NormalisePath("/about"))
}
