package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePoster struct {
	mu    sync.Mutex
	tags  []string
	posts []map[string]interface{}
}

func (p *fakePoster) Post(tag string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tags = append(p.tags, tag)
	p.posts = append(p.posts, message.(map[string]interface{}))
	return nil
}

func TestNewLoggerJSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := NewLogger(Config{Environment: "production", Level: "warn", Writer: &buf})
	require.NoError(t, err)
	defer closer.Close()

	log.Info("dropped")
	log.Warn("kept", slog.String("listing_id", "abc"))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "abc", line["listing_id"])
}

func TestFluentHandler(t *testing.T) {
	p := &fakePoster{}
	log := slog.New(NewFluentHandler(p, slog.LevelInfo)).With(slog.String("component", "worker"))

	log.Debug("ignored")
	log.WithGroup("booking").Error("transition failed", slog.String("id", "b1"))

	require.Len(t, p.posts, 1)
	assert.Equal(t, "error", p.tags[0])
	assert.Equal(t, "transition failed", p.posts[0]["message"])
	assert.Equal(t, "worker", p.posts[0]["component"])
	assert.Equal(t, "b1", p.posts[0]["booking.id"])
}

func TestFanout(t *testing.T) {
	var buf bytes.Buffer
	p := &fakePoster{}
	h := Fanout(slog.NewJSONHandler(&buf, nil), NewFluentHandler(p, slog.LevelInfo))

	slog.New(h).Info("booking created")

	assert.Contains(t, buf.String(), "booking created")
	assert.Len(t, p.posts, 1)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}
