package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, parseLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, logrus.InfoLevel, parseLevel("nonsense"))

	t.Setenv("LOG_LEVEL", "error")
	assert.Equal(t, logrus.ErrorLevel, parseLevel(""))
}

func TestNewLogger_RejectsPathOutsideLogsDir(t *testing.T) {
	_, _, err := NewLogger(Config{File: "../escape.log"})
	assert.Error(t, err)
}

func TestAsyncFileWriter_FlushesOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.log")
	w, err := NewAsyncFileWriter(path, 1024)
	require.NoError(t, err)

	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)
	w.Close()
	w.Close()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(content))
	assert.Equal(t, int64(0), w.Dropped())
}

func TestAsyncConsoleHook_WritesJSONEntries(t *testing.T) {
	var out bytes.Buffer
	hook := newAsyncConsoleHook(&out, 10)

	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	log.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{logrus.FieldKeyMsg: "msg"},
	})
	log.AddHook(hook)
	log.WithField("module", "postgres").Warn("attack detected")
	hook.Close()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &entry))
	assert.Equal(t, "attack detected", entry["msg"])
	assert.Equal(t, "postgres", entry["module"])
}
