package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOfflineDetectorStartsOnline(t *testing.T) {
	d := NewOfflineDetector()
	assert.True(t, d.Online())
}

func TestOfflineDetectorTransitions(t *testing.T) {
	d := NewOfflineDetector()
	fired := 0
	d.OnOnline(func() { fired++ })

	// Already online: no transition, no callback.
	d.MarkOnline()
	assert.Equal(t, 0, fired)

	d.MarkOffline()
	assert.False(t, d.Online())
	d.MarkOffline() // idempotent

	d.MarkOnline()
	assert.True(t, d.Online())
	assert.Equal(t, 1, fired)

	// Each offline episode fires exactly one recovery.
	d.MarkOffline()
	d.MarkOnline()
	assert.Equal(t, 2, fired)
}
