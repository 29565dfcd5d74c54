package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_ExitCodes(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")

	assert.Equal(t, 2, run(nil), "missing command")
	assert.Equal(t, 2, run([]string{"schema"}), "usage error")
	assert.Equal(t, 1, run([]string{"schema", "nope"}), "command error returns after cleanup")
	assert.Equal(t, 0, run([]string{"schema", "quote"}))
}

func TestRun_InvalidLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "chatty")
	assert.Equal(t, 1, run([]string{"schema", "quote"}))
}
