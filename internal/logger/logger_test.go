package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	Init(Options{Level: "debug", Format: "json", File: path})
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})

	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	logrus.WithField("ticker", "AAPL").Debug("fetch: test line")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ticker":"AAPL"`)
	assert.Contains(t, string(data), `"msg":"fetch: test line"`)
}

func TestInit_UnknownLevelFallsBackToInfo(t *testing.T) {
	Init(Options{Level: "loud"})
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
	assert.Equal(t, os.Stdout, writer(Options{}))
}
