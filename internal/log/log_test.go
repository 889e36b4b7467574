package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInit_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Stderr: &buf})

	Debug("hidden")
	Info("also hidden")
	Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestInit_Verbose(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Verbose: true, Stderr: &buf})

	Debug("debug line", "pid", 42)

	assert.Contains(t, buf.String(), "debug line")
	assert.Contains(t, buf.String(), "pid=42")
}

func TestInit_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Verbose: true, JSONFormat: true, Stderr: &buf})

	Info("hello", "key", "value")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"key":"value"`)
}

func TestSetRunID(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Verbose: true, Stderr: &buf})

	SetRunID("0190-test")
	Warn("anomaly")

	assert.Contains(t, buf.String(), "run_id=0190-test")
}

func TestLoggerNeverNil(t *testing.T) {
	assert.NotNil(t, Logger())
}
