package speaker

import (
	"go.uber.org/zap"

	"audiogram/internal/script"
	"audiogram/internal/segment"
)

// Timing maps one spoken script line to a concrete interval in the
// rendered audio. Timings are either supplied authoritatively by the TTS
// backend, which measured each synthesized line, or estimated locally from
// script line lengths.
type Timing struct {
	Speaker   string  `json:"speaker"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// MapperConfig holds the silence constants used when reconstructing an
// estimated speaker timeline.
type MapperConfig struct {
	// LeadingSilence is the assumed quiet interval before the first line.
	LeadingSilence float64
	// SpeakerPause is the assumed quiet interval inserted at every
	// speaker change.
	SpeakerPause float64
}

// DefaultMapperConfig returns the silence constants matching the dialogue
// synthesis path
func DefaultMapperConfig() MapperConfig {
	return MapperConfig{
		LeadingSilence: 0.2,
		SpeakerPause:   1.0,
	}
}

// Mapper assigns a speaker to each caption segment, preferring
// authoritative per-line timing from the TTS backend over local estimation
type Mapper struct {
	cfg    MapperConfig
	logger *zap.Logger
}

// NewMapper creates a new Mapper with the given configuration
func NewMapper(cfg MapperConfig) *Mapper {
	return &Mapper{
		cfg:    cfg,
		logger: zap.NewNop(), // Default to no-op logger
	}
}

// NewMapperWithLogger creates a new Mapper with the given configuration and logger
func NewMapperWithLogger(cfg MapperConfig, logger *zap.Logger) *Mapper {
	if logger == nil {
		logger = zap.NewNop() // Use no-op logger if nil is passed
	}
	return &Mapper{
		cfg:    cfg,
		logger: logger,
	}
}

// Assign returns the segments with a speaker set on each. Authoritative
// timings win when present; otherwise the timeline is estimated from the
// script and total audio duration. Proportional-by-character-count
// estimation drifts for uneven speaking rates, which is why measured
// backend timing is always preferred.
func (m *Mapper) Assign(segments []segment.CaptionSegment, parsed script.ParsedScript, timings []Timing, totalDuration float64) []segment.CaptionSegment {
	if len(segments) == 0 || len(parsed.Characters) == 0 {
		return segments
	}

	if len(timings) == 0 {
		m.logger.Debug("no authoritative timings, estimating from script",
			zap.Int("line_count", len(parsed.Lines)),
			zap.Float64("total_duration", totalDuration))
		timings = m.EstimateTimings(parsed, totalDuration)
	} else {
		m.logger.Debug("using authoritative speaker timings",
			zap.Int("timing_count", len(timings)))
	}

	out := make([]segment.CaptionSegment, len(segments))
	copy(out, segments)

	for i := range out {
		out[i].Speaker = m.speakerAt(out[i].Midpoint(), timings, parsed.Characters)
	}

	return out
}

// speakerAt resolves a time to the speaker whose interval contains it.
// When no interval matches, the first known character is the fallback so a
// segment is never left unattributed while characters exist.
func (m *Mapper) speakerAt(t float64, timings []Timing, characters []string) string {
	for i := range timings {
		if t >= timings[i].StartTime && t < timings[i].EndTime {
			return timings[i].Speaker
		}
	}

	m.logger.Debug("no timing interval contains midpoint, using fallback speaker",
		zap.Float64("midpoint", t),
		zap.String("fallback", characters[0]))

	return characters[0]
}

// EstimateTimings reconstructs a speaker timeline when the backend supplied
// none: a leading-silence offset, a fixed pause at every speaker change,
// and per-line durations proportional to character count over the
// remaining speaking time.
func (m *Mapper) EstimateTimings(parsed script.ParsedScript, totalDuration float64) []Timing {
	if len(parsed.Lines) == 0 {
		return nil
	}

	totalChars := 0
	changes := 0
	for i, line := range parsed.Lines {
		totalChars += len(line.Text)
		if i > 0 && line.Speaker != parsed.Lines[i-1].Speaker {
			changes++
		}
	}

	speakingTime := totalDuration - float64(changes)*m.cfg.SpeakerPause - m.cfg.LeadingSilence
	if speakingTime < 0 {
		speakingTime = 0
	}

	timings := make([]Timing, 0, len(parsed.Lines))
	cursor := m.cfg.LeadingSilence

	for i, line := range parsed.Lines {
		if i > 0 && line.Speaker != parsed.Lines[i-1].Speaker {
			cursor += m.cfg.SpeakerPause
		}

		duration := 0.0
		if totalChars > 0 {
			duration = float64(len(line.Text)) / float64(totalChars) * speakingTime
		}

		timings = append(timings, Timing{
			Speaker:   line.Speaker,
			StartTime: cursor,
			EndTime:   cursor + duration,
		})
		cursor += duration
	}

	m.logger.Debug("estimated speaker timeline",
		zap.Int("line_count", len(timings)),
		zap.Int("speaker_changes", changes),
		zap.Float64("speaking_time", speakingTime))

	return timings
}
