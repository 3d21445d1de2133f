package capture

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// FrameCallback draws one preview frame for the given audio time
type FrameCallback func(t float64)

// PreviewConfig holds the live preview pacing settings.
type PreviewConfig struct {
	// FrameRate used while the preview is in the foreground.
	FrameRate int
	// BackgroundFrameRate used while hidden, so playhead tracking
	// continues without burning resources.
	BackgroundFrameRate int
	// WatchdogInterval between stall checks on the frame stream.
	WatchdogInterval time.Duration
}

// DefaultPreviewConfig returns the live preview pacing settings
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{
		FrameRate:           30,
		BackgroundFrameRate: 4,
		WatchdogInterval:    2 * time.Second,
	}
}

// Preview paces live frame drawing against a real-time clock. When marked
// hidden it drops to a reduced-rate timer, and a watchdog nudges the audio
// side back to life if playback is active but frames have stalled.
type Preview struct {
	cfg    PreviewConfig
	clock  *RealTimeClock
	draw   FrameCallback
	nudge  func() // Invoked when the watchdog detects a stall
	logger *zap.Logger

	hidden    atomic.Bool
	lastFrame time.Time
}

// NewPreview creates a live preview driver. nudge may be nil when there is
// no audio graph to resume.
func NewPreview(cfg PreviewConfig, draw FrameCallback, nudge func(), logger *zap.Logger) *Preview {
	if logger == nil {
		logger = zap.NewNop() // Use no-op logger if nil is passed
	}
	return &Preview{
		cfg:    cfg,
		clock:  NewRealTimeClock(),
		draw:   draw,
		nudge:  nudge,
		logger: logger,
	}
}

// SetHidden switches between the full-rate and reduced-rate pacing
// regimes. Safe to call from any goroutine while Run is live.
func (p *Preview) SetHidden(hidden bool) {
	p.hidden.Store(hidden)
	p.logger.Debug("preview visibility changed",
		zap.Bool("hidden", hidden))
}

// Run drives the frame callback until the context is cancelled
func (p *Preview) Run(ctx context.Context) {
	p.clock.Start()
	p.lastFrame = time.Now()

	ticker := time.NewTicker(p.interval())
	defer ticker.Stop()

	watchdog := time.NewTicker(p.cfg.WatchdogInterval)
	defer watchdog.Stop()

	currentHidden := p.hidden.Load()

	p.logger.Info("preview loop started",
		zap.Int("frame_rate", p.cfg.FrameRate))

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("preview loop stopped")
			return

		case <-ticker.C:
			if hidden := p.hidden.Load(); hidden != currentHidden {
				currentHidden = hidden
				ticker.Reset(p.interval())
			}
			p.draw(p.clock.Now())
			p.lastFrame = time.Now()

		case <-watchdog.C:
			if time.Since(p.lastFrame) > p.cfg.WatchdogInterval && p.nudge != nil {
				p.logger.Warn("preview frames stalled, nudging audio graph",
					zap.Duration("since_last_frame", time.Since(p.lastFrame)))
				p.nudge()
			}
		}
	}
}

// interval returns the tick interval for the current visibility regime
func (p *Preview) interval() time.Duration {
	rate := p.cfg.FrameRate
	if p.hidden.Load() {
		rate = p.cfg.BackgroundFrameRate
	}
	if rate <= 0 {
		rate = 1
	}
	return time.Second / time.Duration(rate)
}
