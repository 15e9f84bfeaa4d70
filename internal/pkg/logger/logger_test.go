package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(DEBUG)
	SetRedactPII(true)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(INFO)
		SetService("")
	})
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]string {
	t.Helper()
	var entry map[string]string
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestLog_RedactsPII(t *testing.T) {
	buf := capture(t)

	Info("confirmation sent", "email", "john.doe@example.com", "hash", "abc123", "note", "to ab@x.org")
	entry := decodeLine(t, buf)

	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "confirmation sent", entry["msg"])
	assert.Equal(t, "jo***@example.com", entry["email"])
	assert.Equal(t, "[redacted]", entry["hash"])
	assert.Equal(t, "to ***@x.org", entry["note"])
}

func TestLog_LevelFilter(t *testing.T) {
	buf := capture(t)
	SetLevel(WARN)

	Info("dropped")
	assert.Zero(t, buf.Len())

	Error("kept", "error", "boom")
	assert.True(t, strings.Contains(buf.String(), `"boom"`))
}

func TestLog_ServiceField(t *testing.T) {
	buf := capture(t)
	SetService("consent-notifications")

	Debug("hello", "dangling")
	entry := decodeLine(t, buf)
	assert.Equal(t, "consent-notifications", entry["service"])
	_, hasDangling := entry["dangling"]
	assert.False(t, hasDangling)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel(" Warning "))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "jo***@example.com", RedactEmail("john.doe@example.com"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-email"))
}
