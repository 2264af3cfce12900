package sentry

import (
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactEvent(t *testing.T) {
	event := &sentry.Event{
		Message:   "failed to read /home/alice/planes/a.json",
		Exception: []sentry.Exception{{Value: "open /home/alice/planes/a.json: permission denied"}},
		Tags:      map[string]string{"doc_path": "/home/alice/planes/a.json"},
		Extra:     map[string]interface{}{"doc_path": "/home/alice/planes/a.json", "count": 3},
	}
	got := redactEvent(event, "/home/alice")
	assert.Equal(t, "failed to read ~/planes/a.json", got.Message)
	assert.Equal(t, "open ~/planes/a.json: permission denied", got.Exception[0].Value)
	assert.Equal(t, "~/planes/a.json", got.Tags["doc_path"])
	assert.Equal(t, "~/planes/a.json", got.Extra["doc_path"])
	assert.Equal(t, 3, got.Extra["count"])
}

func TestRecoverTo(t *testing.T) {
	run := func() (err error) {
		defer RecoverTo(&err)
		panic(errors.New("boom"))
	}
	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestInit_EmptyDSN(t *testing.T) {
	require.NoError(t, Init("", "test", "3.4.0"))
	assert.False(t, IsInitialized())
}
