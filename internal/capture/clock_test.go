package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStepClock_AdvancesInExactFrameIncrements(t *testing.T) {
	// Arrange
	c := NewStepClock(30)

	// Act & Assert
	assert.Equal(t, 0.0, c.Now())
	assert.Equal(t, 0, c.Frame())

	c.Advance()
	assert.InDelta(t, 1.0/30.0, c.Now(), 1e-12)

	for i := 0; i < 29; i++ {
		c.Advance()
	}
	assert.Equal(t, 30, c.Frame())
	assert.InDelta(t, 1.0, c.Now(), 1e-12)
}

func TestStepClock_DeterministicTimestamps(t *testing.T) {
	// Arrange: two clocks stepped identically report identical times.
	a := NewStepClock(24)
	b := NewStepClock(24)

	// Act & Assert
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Now(), b.Now(), "frame %d", i)
		a.Advance()
		b.Advance()
	}
}

func TestRealTimeClock_ZeroBeforeStart(t *testing.T) {
	// Arrange
	c := NewRealTimeClock()

	// Act & Assert
	assert.Equal(t, 0.0, c.Now())
}

func TestRealTimeClock_AdvancesAfterStart(t *testing.T) {
	// Arrange
	c := NewRealTimeClock()
	c.Start()

	// Act
	time.Sleep(15 * time.Millisecond)

	// Assert
	assert.Greater(t, c.Now(), 0.0)
	assert.Less(t, c.Now(), 5.0)
}
