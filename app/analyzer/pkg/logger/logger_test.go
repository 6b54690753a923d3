package logger

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomFormatter_Format(t *testing.T) {
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "upstream slow",
		Caller:  &runtime.Frame{File: "/src/app/analyzer.go", Line: 42},
		Data:    logrus.Fields{},
	}
	entry.Logger.SetReportCaller(true)

	out, err := (&CustomFormatter{}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "[2025-03-01 08:30:00] [WARN] [analyzer.go:42] upstream slow\n", string(out))
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "analyzer.log")

	l, err := New("debug", path)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	l.Info("hello file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "hello file"))
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	l, err := New("loud", "")
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}
