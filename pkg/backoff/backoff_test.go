package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponential(t *testing.T) {
	tests := []struct {
		name     string
		base     time.Duration
		attempt  int
		expected time.Duration
	}{
		{name: "attempt 0", base: 25 * time.Millisecond, attempt: 0, expected: 25 * time.Millisecond},
		{name: "attempt 1", base: 25 * time.Millisecond, attempt: 1, expected: 50 * time.Millisecond},
		{name: "attempt 3", base: 25 * time.Millisecond, attempt: 3, expected: 200 * time.Millisecond},
		{name: "negative attempt", base: 25 * time.Millisecond, attempt: -1, expected: 25 * time.Millisecond},
		{name: "zero base", base: 0, attempt: 5, expected: 0},
		{name: "negative base", base: -time.Second, attempt: 2, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Exponential(tt.base, tt.attempt))
		})
	}
}

func TestExponentialSaturates(t *testing.T) {
	got := Exponential(time.Hour, 100)
	assert.Greater(t, got, time.Duration(0))
}

func TestFullJitter(t *testing.T) {
	assert.Equal(t, time.Duration(0), FullJitter(0))
	assert.Equal(t, time.Duration(0), FullJitter(-time.Second))

	delay := 10 * time.Millisecond
	for i := 0; i < 100; i++ {
		got := FullJitter(delay)
		assert.GreaterOrEqual(t, got, time.Duration(0))
		assert.Less(t, got, delay)
	}
}

func TestExponentialWithJitter(t *testing.T) {
	base := 25 * time.Millisecond
	for attempt := 0; attempt < 4; attempt++ {
		got := ExponentialWithJitter(base, attempt)
		assert.GreaterOrEqual(t, got, time.Duration(0))
		assert.Less(t, got, Exponential(base, attempt))
	}
}
