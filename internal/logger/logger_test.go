package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureStdout runs f with os.Stdout redirected to a pipe and returns the output.
func captureStdout(t *testing.T, f func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	f()

	_ = w.Close()
	b, _ := io.ReadAll(r)
	_ = r.Close()
	return string(b)
}

func lastNonEmptyLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return lines[i]
		}
	}
	return ""
}

func TestLogger_IncludesStackAndServiceOnError(t *testing.T) {
	out := captureStdout(t, func() {
		log := New("test-service")
		log.Error().Stack().Err(errors.New("boom")).Msg("something failed")
	})

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(lastNonEmptyLine(out)), &payload))
	assert.Equal(t, "test-service", payload["service"])
	assert.Equal(t, "error", payload["level"])
	assert.Contains(t, payload, "stack")
}

func TestNewWithFile_WritesBothSinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.log")
	out := captureStdout(t, func() {
		log := NewWithFile("file-service", FileOptions{Path: path})
		log.Info().Str("k", "v").Msg("hello")
	})
	assert.Contains(t, out, `"hello"`)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	sc := bufio.NewScanner(f)
	require.True(t, sc.Scan())
	var payload map[string]any
	require.NoError(t, json.Unmarshal(sc.Bytes(), &payload))
	assert.Equal(t, "file-service", payload["service"])
	assert.Equal(t, "v", payload["k"])
}
