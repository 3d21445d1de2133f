package capture

import "time"

// Clock reports the current audio-timeline position in seconds. Frame
// drawing is always paced by a Clock, never by wall-clock arithmetic in
// the draw path, so rendered frame timing cannot drift from the audio
// being captured.
type Clock interface {
	Now() float64
}

// RealTimeClock follows elapsed wall time from Start. It paces the live
// preview, standing in for the playing audio element's position.
type RealTimeClock struct {
	start time.Time
}

// NewRealTimeClock creates an unstarted real-time clock
func NewRealTimeClock() *RealTimeClock {
	return &RealTimeClock{}
}

// Start resets the clock origin to now
func (c *RealTimeClock) Start() {
	c.start = time.Now()
}

// Now returns seconds elapsed since Start, or zero before Start
func (c *RealTimeClock) Now() float64 {
	if c.start.IsZero() {
		return 0
	}
	return time.Since(c.start).Seconds()
}

// StepClock advances in exact frame increments. Export uses it so every
// frame lands on a deterministic audio timestamp regardless of how long
// drawing takes.
type StepClock struct {
	frameRate int
	frame     int
}

// NewStepClock creates a step clock at the given frame rate
func NewStepClock(frameRate int) *StepClock {
	return &StepClock{frameRate: frameRate}
}

// Now returns the audio timestamp of the current frame
func (c *StepClock) Now() float64 {
	return float64(c.frame) / float64(c.frameRate)
}

// Advance moves to the next frame
func (c *StepClock) Advance() {
	c.frame++
}

// Frame returns the current frame index
func (c *StepClock) Frame() int {
	return c.frame
}
