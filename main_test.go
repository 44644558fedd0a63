package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultArgs(t *testing.T) {
	assert.Equal(t, []string{"serve"}, defaultArgs(nil))
	assert.Equal(t, []string{"serve", "-c", "config.yaml", "-p", "9090"}, defaultArgs([]string{"-c", "config.yaml", "-p", "9090"}))
	assert.Equal(t, []string{"version"}, defaultArgs([]string{"-v"}))
	assert.Equal(t, []string{"report", "-start", "2024-01-01"}, defaultArgs([]string{"report", "-start", "2024-01-01"}))
}
