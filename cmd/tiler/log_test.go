package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoninZc/tiler/config"
)

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()
	l, err := newLogger(config.Output{LogDir: dir, LogLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	l.Debug("tile split")
	data, err := os.ReadFile(filepath.Join(dir, time.Now().Format("2006-01-02.log")))
	require.NoError(t, err)
	assert.Contains(t, string(data), "tile split")
	assert.Contains(t, string(data), "[DEBUG]")

	l, err = newLogger(config.Output{LogLevel: "nope"})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}
