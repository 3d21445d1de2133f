package capture

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"audiogram/internal/audio"
	"audiogram/internal/render"
	"audiogram/internal/transcode"
)

// MinCaptureBytes is the smallest captured clip treated as real. A capture
// below this is a silently broken recording even when the encoder exited
// cleanly.
const MinCaptureBytes = 1024

// ProgressFunc receives export progress as a percentage. Reported values
// are monotonically non-decreasing and stay below 100 until the deliverable
// bytes exist.
type ProgressFunc func(percent int)

// ExportJob describes one non-real-time render to video bytes.
type ExportJob struct {
	// State is the frame snapshot to render; Bars is filled per frame
	// from the job's audio.
	State *render.FrameState
	// AudioPCM is the 16-bit mono PCM soundtrack.
	AudioPCM   []byte
	SampleRate int
	// Duration of the clip in seconds.
	Duration float64
	// TargetFormat is the delivery container handed to the transcoder.
	TargetFormat string
	// Progress is optional.
	Progress ProgressFunc
}

// ExporterConfig holds the output raster parameters.
type ExporterConfig struct {
	Width     int
	Height    int
	FrameRate int
	// BarCount is the number of waveform bins analyzed per frame.
	BarCount int
}

// DefaultExporterConfig returns the portrait short-form output settings
func DefaultExporterConfig() ExporterConfig {
	return ExporterConfig{
		Width:     1080,
		Height:    1920,
		FrameRate: 30,
		BarCount:  audio.DefaultAnalyzerConfig().BarCount,
	}
}

// Exporter drives the renderer against a deterministic frame clock,
// captures frames plus audio through the muxer, and hands the clip to the
// transcoder for the final deliverable.
type Exporter struct {
	cfg        ExporterConfig
	renderer   *render.Renderer
	transcoder *transcode.Transcoder
	logger     *zap.Logger
}

// NewExporter creates an Exporter
func NewExporter(cfg ExporterConfig, renderer *render.Renderer, transcoder *transcode.Transcoder) *Exporter {
	return NewExporterWithLogger(cfg, renderer, transcoder, nil)
}

// NewExporterWithLogger creates an Exporter with the given logger
func NewExporterWithLogger(cfg ExporterConfig, renderer *render.Renderer, transcoder *transcode.Transcoder, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop() // Use no-op logger if nil is passed
	}
	return &Exporter{
		cfg:        cfg,
		renderer:   renderer,
		transcoder: transcoder,
		logger:     logger,
	}
}

// Render produces the final deliverable video bytes for the job. The
// capability check runs before any frame is drawn; muxer resources are
// released on every exit path.
func (e *Exporter) Render(ctx context.Context, job ExportJob) ([]byte, error) {
	if job.Duration <= 0 {
		return nil, fmt.Errorf("export duration must be positive")
	}
	if len(job.AudioPCM) == 0 {
		return nil, fmt.Errorf("export audio is empty")
	}

	profile, err := SelectProfile(ctx, "ffmpeg")
	if err != nil {
		return nil, err
	}

	e.logger.Info("starting export",
		zap.Float64("duration", job.Duration),
		zap.Int("width", e.cfg.Width),
		zap.Int("height", e.cfg.Height),
		zap.Int("frame_rate", e.cfg.FrameRate),
		zap.String("target_format", job.TargetFormat))

	analyzer := audio.NewAnalyzerWithLogger(job.AudioPCM, audio.AnalyzerConfig{
		SampleRate: job.SampleRate,
		BarCount:   e.barCount(job.State),
		Window:     audio.DefaultAnalyzerConfig().Window,
		Decay:      audio.DefaultAnalyzerConfig().Decay,
	}, e.logger)

	canvas := render.NewImageCanvas(e.cfg.Width, e.cfg.Height)
	muxer := NewMuxer(profile, e.logger)
	defer muxer.Close() // Guaranteed cleanup on every path

	if err := muxer.Start(ctx, MuxerConfig{
		Width:      e.cfg.Width,
		Height:     e.cfg.Height,
		FrameRate:  e.cfg.FrameRate,
		SampleRate: job.SampleRate,
	}, job.AudioPCM); err != nil {
		return nil, err
	}

	clock := NewStepClock(e.cfg.FrameRate)
	lastPercent := 0

	for clock.Now() < job.Duration {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("export cancelled: %w", ctx.Err())
		default:
		}

		t := clock.Now()
		job.State.Bars = analyzer.Bars(t)
		e.renderer.DrawFrame(canvas, t, job.State)

		if err := muxer.WriteFrame(canvas.FrameBytes()); err != nil {
			return nil, err
		}

		if job.Progress != nil {
			percent := int(t / job.Duration * 100)
			if percent > 99 {
				percent = 99 // Finalization has not happened yet
			}
			if percent > lastPercent {
				lastPercent = percent
				job.Progress(percent)
			}
		}

		clock.Advance()
	}

	captured, err := muxer.Finalize()
	if err != nil {
		return nil, err
	}
	if len(captured) < MinCaptureBytes {
		return nil, fmt.Errorf("captured clip is suspiciously small (%d bytes)", len(captured))
	}

	deliverable, err := e.transcoder.Transcode(ctx, captured, job.TargetFormat)
	if err != nil {
		return nil, err
	}

	if job.Progress != nil {
		job.Progress(100)
	}

	e.logger.Info("export completed",
		zap.Int("frame_count", clock.Frame()),
		zap.Int("deliverable_bytes", len(deliverable)))

	return deliverable, nil
}

// barCount returns the bar bin count for a job: an existing bar array
// fixes it, then the configured count, then the analyzer default
func (e *Exporter) barCount(state *render.FrameState) int {
	if state != nil && len(state.Bars) > 0 {
		return len(state.Bars)
	}
	if e.cfg.BarCount > 0 {
		return e.cfg.BarCount
	}
	return audio.DefaultAnalyzerConfig().BarCount
}
