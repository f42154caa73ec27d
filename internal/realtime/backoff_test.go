package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultBackoffSequence(t *testing.T) {
	p := DefaultBackoff()

	expected := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second, // 封顶
		30 * time.Second,
	}
	for attempt, want := range expected {
		wait, ok := p.Next(attempt)
		assert.True(t, ok)
		assert.Equal(t, want, wait, "attempt %d", attempt)
	}
}

func TestBackoffMaxAttempts(t *testing.T) {
	p := BackoffPolicy{Initial: time.Second, Max: 30 * time.Second, Multiplier: 2, MaxAttempts: 3}

	for attempt := 0; attempt < 3; attempt++ {
		_, ok := p.Next(attempt)
		assert.True(t, ok)
	}
	_, ok := p.Next(3)
	assert.False(t, ok)
}

// Multiplier 为 1 时退化为固定间隔
func TestBackoffFixedInterval(t *testing.T) {
	p := BackoffPolicy{Initial: 5 * time.Second, Max: 30 * time.Second, Multiplier: 1}

	for attempt := 0; attempt < 4; attempt++ {
		wait, ok := p.Next(attempt)
		assert.True(t, ok)
		assert.Equal(t, 5*time.Second, wait)
	}
}

// 零值策略按默认参数工作
func TestBackoffZeroValueDefaults(t *testing.T) {
	var p BackoffPolicy

	wait, ok := p.Next(0)
	assert.True(t, ok)
	assert.Equal(t, time.Second, wait)

	wait, ok = p.Next(10)
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, wait)
}
