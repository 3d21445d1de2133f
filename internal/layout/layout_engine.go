package layout

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"

	"audiogram/internal/segment"
)

// Metrics is the single font size and line height chosen for a whole
// caption segment set. One uniform size is used for every frame so caption
// text never jitters between segments.
type Metrics struct {
	Size       float64 `json:"size"`
	LineHeight float64 `json:"line_height"`
}

// MeasureFunc reports the rendered width of text at a font size. The
// concrete text rasterizer behind it is a platform detail.
type MeasureFunc func(text string, size float64) float64

// Config holds the font sizing bounds and line budget for caption layout.
type Config struct {
	MinSize  float64
	MaxSize  float64
	MaxLines int
}

// DefaultConfig returns the caption sizing bounds
func DefaultConfig() Config {
	return Config{
		MinSize:  56,
		MaxSize:  220,
		MaxLines: 4,
	}
}

// Engine computes uniform caption metrics for a segment set. Sizing
// involves many text measurements, so results are memoized per
// segment-set/box combination until segments or dimensions change.
type Engine struct {
	measure MeasureFunc
	cfg     Config
	logger  *zap.Logger

	mu    sync.Mutex
	cache map[uint64]Metrics
}

// NewEngine creates a new layout Engine using the given text measurer
func NewEngine(measure MeasureFunc, cfg Config) *Engine {
	return NewEngineWithLogger(measure, cfg, nil)
}

// NewEngineWithLogger creates a new layout Engine with the given logger
func NewEngineWithLogger(measure MeasureFunc, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop() // Use no-op logger if nil is passed
	}
	return &Engine{
		measure: measure,
		cfg:     cfg,
		logger:  logger,
		cache:   make(map[uint64]Metrics),
	}
}

// LineHeightFor returns the line height paired with a font size
func LineHeightFor(size float64) float64 {
	return math.Round(size * 1.14)
}

// WrapText greedily packs words into lines whose measured width stays
// within boxWidth. A line always receives at least one word, even when
// that word alone overflows.
func (e *Engine) WrapText(text string, size, boxWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]

	for _, word := range words[1:] {
		candidate := current + " " + word
		if e.measure(candidate, size) <= boxWidth {
			current = candidate
		} else {
			lines = append(lines, current)
			current = word
		}
	}
	lines = append(lines, current)

	return lines
}

// FitSize binary-searches the largest font size within the configured
// range at which text wraps to at most MaxLines lines and the wrapped
// block height fits boxHeight
func (e *Engine) FitSize(text string, boxWidth, boxHeight float64) float64 {
	lo, hi := e.cfg.MinSize, e.cfg.MaxSize
	best := lo

	for hi-lo > 0.5 {
		mid := (lo + hi) / 2
		if e.fits(text, mid, boxWidth, boxHeight) {
			best = mid
			lo = mid
		} else {
			hi = mid
		}
	}

	return math.Floor(best)
}

// fits reports whether text wrapped at the given size respects the line
// budget and box height
func (e *Engine) fits(text string, size, boxWidth, boxHeight float64) bool {
	lines := e.WrapText(text, size, boxWidth)
	if len(lines) > e.cfg.MaxLines {
		return false
	}
	blockHeight := float64(len(lines)-1) * LineHeightFor(size)
	return blockHeight <= boxHeight
}

// UniformMetrics returns the one font size guaranteed to fit every
// segment's text: the minimum across all per-segment maximum sizes. The
// fallback text is sized instead when the segment set is empty.
func (e *Engine) UniformMetrics(segments []segment.CaptionSegment, fallbackText string, boxWidth, boxHeight float64) Metrics {
	key := cacheKey(segments, fallbackText, boxWidth, boxHeight)

	e.mu.Lock()
	if m, ok := e.cache[key]; ok {
		e.mu.Unlock()
		return m
	}
	e.mu.Unlock()

	size := e.cfg.MaxSize

	if len(segments) == 0 {
		size = e.FitSize(fallbackText, boxWidth, boxHeight)
	} else {
		for i := range segments {
			if s := e.FitSize(segments[i].Text, boxWidth, boxHeight); s < size {
				size = s
			}
		}
	}

	m := Metrics{Size: size, LineHeight: LineHeightFor(size)}

	e.logger.Debug("computed uniform caption metrics",
		zap.Int("segment_count", len(segments)),
		zap.Float64("size", m.Size),
		zap.Float64("line_height", m.LineHeight))

	e.mu.Lock()
	e.cache[key] = m
	e.mu.Unlock()

	return m
}

// InvalidateCache drops all memoized metrics. Called when the transcript
// or output format changes wholesale.
func (e *Engine) InvalidateCache() {
	e.mu.Lock()
	e.cache = make(map[uint64]Metrics)
	e.mu.Unlock()
}

// cacheKey hashes the segment texts and box dimensions into a memoization key
func cacheKey(segments []segment.CaptionSegment, fallbackText string, boxWidth, boxHeight float64) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%.1fx%.1f|%s", boxWidth, boxHeight, fallbackText)
	for i := range segments {
		h.Write([]byte{0})
		h.Write([]byte(segments[i].Text))
	}
	return h.Sum64()
}
