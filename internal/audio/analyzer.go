package audio

import (
	"encoding/binary"
	"math"

	"go.uber.org/zap"
)

// AnalyzerConfig holds the waveform analysis settings.
type AnalyzerConfig struct {
	// SampleRate of the decoded PCM stream in Hz.
	SampleRate int
	// BarCount is the number of visual bins produced per frame.
	BarCount int
	// Window is the analysis window length in seconds centered on the
	// playhead.
	Window float64
	// Decay controls how quickly the rolling loudness ceiling relaxes,
	// per analyzed frame.
	Decay float64
}

// DefaultAnalyzerConfig returns the waveform analysis settings
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		SampleRate: 16000,
		BarCount:   64,
		Window:     0.1,
		Decay:      0.985,
	}
}

// Analyzer derives per-frame amplitude bar arrays from 16-bit mono PCM.
// Raw RMS values are normalized against a rolling loudness maximum with
// decay and compressed with a square root so the bars stay visually lively
// instead of pegging at full scale or vanishing on quiet audio.
type Analyzer struct {
	cfg     AnalyzerConfig
	samples []float64
	logger  *zap.Logger

	rollingMax float64
}

// NewAnalyzer creates an Analyzer over a decoded 16-bit little-endian mono
// PCM buffer
func NewAnalyzer(pcm []byte, cfg AnalyzerConfig) *Analyzer {
	return NewAnalyzerWithLogger(pcm, cfg, nil)
}

// NewAnalyzerWithLogger creates an Analyzer with the given logger
func NewAnalyzerWithLogger(pcm []byte, cfg AnalyzerConfig, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop() // Use no-op logger if nil is passed
	}

	samples := make([]float64, len(pcm)/2)
	for i := range samples {
		samples[i] = float64(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768.0
	}

	logger.Debug("decoded pcm for amplitude analysis",
		zap.Int("sample_count", len(samples)),
		zap.Int("sample_rate", cfg.SampleRate))

	return &Analyzer{
		cfg:        cfg,
		samples:    samples,
		logger:     logger,
		rollingMax: 0.05, // Small floor so silence does not divide by zero
	}
}

// Duration returns the total audio duration in seconds
func (a *Analyzer) Duration() float64 {
	if a.cfg.SampleRate <= 0 {
		return 0
	}
	return float64(len(a.samples)) / float64(a.cfg.SampleRate)
}

// Bars returns the normalized amplitude bins for the frame at time t.
// Every value lies in [0, 1]. Calling Bars in playback order yields the
// perceptual normalization; the rolling ceiling carries across calls.
func (a *Analyzer) Bars(t float64) []float64 {
	bars := make([]float64, a.cfg.BarCount)
	if len(a.samples) == 0 || a.cfg.BarCount <= 0 {
		return bars
	}

	windowSamples := int(a.cfg.Window * float64(a.cfg.SampleRate))
	if windowSamples < a.cfg.BarCount {
		windowSamples = a.cfg.BarCount
	}

	center := int(t * float64(a.cfg.SampleRate))
	start := center - windowSamples/2
	if start < 0 {
		start = 0
	}
	if start+windowSamples > len(a.samples) {
		start = len(a.samples) - windowSamples
		if start < 0 {
			start = 0
			windowSamples = len(a.samples)
		}
	}

	perBin := windowSamples / a.cfg.BarCount
	if perBin < 1 {
		perBin = 1
	}

	frameMax := 0.0
	raw := make([]float64, a.cfg.BarCount)
	for b := 0; b < a.cfg.BarCount; b++ {
		from := start + b*perBin
		to := from + perBin
		// Buffers shorter than the bin count run out of samples before the
		// bins do; the remaining bins read as silence.
		if from > len(a.samples) {
			from = len(a.samples)
		}
		if to > len(a.samples) {
			to = len(a.samples)
		}
		raw[b] = rms(a.samples[from:to])
		if raw[b] > frameMax {
			frameMax = raw[b]
		}
	}

	// Rolling loudness ceiling: jump up instantly, relax slowly.
	a.rollingMax *= a.cfg.Decay
	if frameMax > a.rollingMax {
		a.rollingMax = frameMax
	}
	if a.rollingMax < 0.01 {
		a.rollingMax = 0.01
	}

	for b := range raw {
		v := raw[b] / a.rollingMax
		if v > 1 {
			v = 1
		}
		bars[b] = math.Sqrt(v)
	}

	return bars
}

// rms computes the root mean square of a sample window
func rms(window []float64) float64 {
	if len(window) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range window {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(window)))
}

// DurationOfPCM returns the duration in seconds of a 16-bit mono PCM
// buffer at the given sample rate
func DurationOfPCM(pcm []byte, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(len(pcm)/2) / float64(sampleRate)
}
