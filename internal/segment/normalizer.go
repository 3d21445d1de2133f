package segment

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// NormalizerConfig holds the tuned policy constants for normalization.
// Different caption-density goals want different values, so these are
// configuration rather than hard-coded law.
type NormalizerConfig struct {
	// MinDuration is the coalesce threshold: two consecutive spans are
	// merged when both last less than this many seconds.
	MinDuration float64
	// MaxWords is the tighten ceiling: segments with more words are split
	// into equal-duration chunks along word boundaries.
	MaxWords int
}

// DefaultNormalizerConfig returns the normalizer settings used for live
// dictation flows
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		MinDuration: 0.4,
		MaxWords:    18,
	}
}

// Normalizer turns raw timed spans from transcription or TTS duration
// estimates into a clean, gap-preserving caption segment sequence
type Normalizer struct {
	cfg    NormalizerConfig
	logger *zap.Logger
}

// NewNormalizer creates a new Normalizer with the given configuration
func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	return &Normalizer{
		cfg:    cfg,
		logger: zap.NewNop(), // Default to no-op logger
	}
}

// NewNormalizerWithLogger creates a new Normalizer with the given configuration and logger
func NewNormalizerWithLogger(cfg NormalizerConfig, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop() // Use no-op logger if nil is passed
	}
	return &Normalizer{
		cfg:    cfg,
		logger: logger,
	}
}

// Normalize converts raw spans into an ordered, non-overlapping caption
// segment sequence. totalDurationHint, when positive and beyond the last
// span, extends the final segment so captions cover the full audio.
// Empty input yields empty output; the caller supplies any fallback text.
func (n *Normalizer) Normalize(raw []TimedSpan, totalDurationHint float64) []CaptionSegment {
	n.logger.Debug("normalizing raw spans",
		zap.Int("raw_count", len(raw)),
		zap.Float64("total_duration_hint", totalDurationHint))

	spans := n.sanitize(raw)
	spans = n.coalesce(spans)
	segments := n.tighten(spans)
	segments = n.deoverlap(segments)
	segments = n.extendTail(segments, totalDurationHint)

	n.logger.Debug("normalization complete",
		zap.Int("raw_count", len(raw)),
		zap.Int("segment_count", len(segments)))

	return segments
}

// sanitize clamps negative times to zero, trims text, drops degenerate
// spans, and sorts ascending by start
func (n *Normalizer) sanitize(raw []TimedSpan) []TimedSpan {
	spans := make([]TimedSpan, 0, len(raw))

	for _, s := range raw {
		s.Text = strings.TrimSpace(s.Text)
		if s.Start < 0 {
			s.Start = 0
		}
		if s.End < 0 {
			s.End = 0
		}
		if s.Text == "" || s.End <= s.Start {
			n.logger.Debug("dropping degenerate span",
				zap.Float64("start", s.Start),
				zap.Float64("end", s.End),
				zap.String("text", s.Text))
			continue
		}
		spans = append(spans, s)
	}

	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Start < spans[j].Start
	})

	return spans
}

// coalesce merges a span into its predecessor when both are below the
// minimum duration threshold. Genuine silences at or above the threshold
// are never bridged, and a merge never pushes the combined text past the
// word ceiling, so tightened output survives a second pass unchanged.
func (n *Normalizer) coalesce(spans []TimedSpan) []TimedSpan {
	if len(spans) == 0 {
		return spans
	}

	out := make([]TimedSpan, 0, len(spans))
	out = append(out, spans[0])

	for _, cur := range spans[1:] {
		prev := &out[len(out)-1]
		prevDuration := prev.End - prev.Start
		curDuration := cur.End - cur.Start
		gap := cur.Start - prev.End

		mergedWords := len(strings.Fields(prev.Text)) + len(strings.Fields(cur.Text))

		if prevDuration < n.cfg.MinDuration &&
			curDuration < n.cfg.MinDuration &&
			gap < n.cfg.MinDuration &&
			mergedWords <= n.cfg.MaxWords {
			prev.Text = prev.Text + " " + cur.Text
			prev.End = cur.End
			continue
		}

		out = append(out, cur)
	}

	return out
}

// tighten splits any span whose word count exceeds the ceiling into
// equal-duration sub-segments along word-count boundaries
func (n *Normalizer) tighten(spans []TimedSpan) []CaptionSegment {
	segments := make([]CaptionSegment, 0, len(spans))

	for _, s := range spans {
		words := strings.Fields(s.Text)
		if n.cfg.MaxWords <= 0 || len(words) <= n.cfg.MaxWords {
			segments = append(segments, CaptionSegment{Start: s.Start, End: s.End, Text: s.Text})
			continue
		}

		chunks := splitWords(words, n.cfg.MaxWords)
		segments = append(segments, distributeChunks(chunks, s.Start, s.End)...)

		n.logger.Debug("split oversized span",
			zap.Int("word_count", len(words)),
			zap.Int("chunk_count", len(chunks)))
	}

	return segments
}

// deoverlap pulls an overlapping start forward to the previous end.
// Gaps between segments represent silence and are left untouched.
func (n *Normalizer) deoverlap(segments []CaptionSegment) []CaptionSegment {
	out := segments[:0]

	for i := range segments {
		s := segments[i]
		if len(out) > 0 {
			prevEnd := out[len(out)-1].End
			if s.Start < prevEnd {
				s.Start = prevEnd
			}
		}
		if s.End <= s.Start {
			continue
		}
		out = append(out, s)
	}

	return out
}

// extendTail stretches the last segment to cover the known total duration
// so captions do not disappear before the audio finishes
func (n *Normalizer) extendTail(segments []CaptionSegment, totalDuration float64) []CaptionSegment {
	if len(segments) == 0 || totalDuration <= 0 {
		return segments
	}

	last := &segments[len(segments)-1]
	if totalDuration > last.End {
		n.logger.Debug("extending final segment to total duration",
			zap.Float64("previous_end", last.End),
			zap.Float64("total_duration", totalDuration))
		last.End = totalDuration
	}

	return segments
}

// ChunkText splits plain text into a fixed-words-per-chunk caption sequence
// of equal-duration segments summing exactly to totalDuration. This is the
// synthesized-speech path, where no per-word timing exists and a uniform
// caption density is wanted.
func ChunkText(text string, wordsPerChunk int, totalDuration float64) []CaptionSegment {
	words := strings.Fields(strings.TrimSpace(text))
	if len(words) == 0 || wordsPerChunk <= 0 || totalDuration <= 0 {
		return nil
	}

	chunks := splitWordsFixed(words, wordsPerChunk)
	return distributeChunks(chunks, 0, totalDuration)
}

// splitWords divides words into ceil(len/maxWords) chunks of near-equal size
func splitWords(words []string, maxWords int) []string {
	count := int(math.Ceil(float64(len(words)) / float64(maxWords)))
	perChunk := int(math.Ceil(float64(len(words)) / float64(count)))
	return splitWordsFixed(words, perChunk)
}

// splitWordsFixed divides words into consecutive chunks of at most perChunk words
func splitWordsFixed(words []string, perChunk int) []string {
	var chunks []string
	for i := 0; i < len(words); i += perChunk {
		end := i + perChunk
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}

// distributeChunks assigns each chunk an equal share of the [start, end]
// interval. The final chunk ends exactly at end so float accumulation never
// leaves residual uncovered time.
func distributeChunks(chunks []string, start, end float64) []CaptionSegment {
	segments := make([]CaptionSegment, 0, len(chunks))
	per := (end - start) / float64(len(chunks))

	for i, chunk := range chunks {
		cs := CaptionSegment{
			Start: start + float64(i)*per,
			End:   start + float64(i+1)*per,
			Text:  chunk,
		}
		if i == len(chunks)-1 {
			cs.End = end
		}
		segments = append(segments, cs)
	}

	return segments
}
