// SPDX-License-Identifier: AGPL-3.0-only
package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Warn, Output: &buf})

	l.Debugf("debug %d", 1)
	l.Infof("info %d", 2)
	l.Warnf("warn %d", 3)
	l.Errorf("error %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "debug 1")
	assert.NotContains(t, out, "info 2")
	assert.Contains(t, out, "[WARN] warn 3")
	assert.Contains(t, out, "[ERROR] error 4")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, Debug, ParseLevel("debug"))
	assert.Equal(t, Warn, ParseLevel(" WARNING "))
	assert.Equal(t, Fatal, ParseLevel("fatal"))
	assert.Equal(t, Info, ParseLevel("bogus"))
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasklist.log")
	l, err := FileLogger(path, Debug)
	require.NoError(t, err)
	l.Debugf("written to %s", "file")
	require.NoError(t, l.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "[DEBUG] written to file")
}

func TestDefaultLogger(t *testing.T) {
	prev := GetDefaultLogger()
	defer SetDefaultLogger(prev)

	var buf bytes.Buffer
	SetDefaultLogger(New(Options{Level: Info, Output: &buf}))
	GetDefaultLogger().Infof("hello")
	assert.Contains(t, buf.String(), "hello")

	SetDefaultLogger(nil)
	assert.NotNil(t, GetDefaultLogger())
}
