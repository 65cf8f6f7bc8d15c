package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWatchStopIdempotent(t *testing.T) {
	released := 0
	w := NewWatch(KindMock, func() { released++ })

	assert.False(t, w.Stopped())

	w.Stop()
	assert.True(t, w.Stopped())
	assert.Equal(t, 1, released)

	w.Stop()
	assert.Equal(t, 1, released, "release must run exactly once")
}

func TestWatchNilSafe(t *testing.T) {
	var w *Watch

	w.Stop() // must not panic
	assert.False(t, w.Stopped())
}

func TestWatchKind(t *testing.T) {
	w := NewWatch(KindSerial, nil)
	assert.Equal(t, KindSerial, w.Kind())
	w.Stop() // nil release must not panic
}
