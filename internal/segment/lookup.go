package segment

// NoActiveSegment is returned by IndexAt when the playhead sits inside a
// genuine silence gap and no caption should be visible.
const NoActiveSegment = -1

// LookupConfig holds the tolerance windows applied around nominal caption
// boundaries to avoid visible flicker at segment edges.
type LookupConfig struct {
	// LeadIn lets a caption appear this many seconds before its start.
	LeadIn float64
	// TailOut lets a caption linger this many seconds past its end.
	TailOut float64
	// Hold keeps the previous caption on screen across silences shorter
	// than this, since sub-threshold gaps are not worth blanking for.
	Hold float64
}

// DefaultLookupConfig returns the boundary tolerances used for rendering
func DefaultLookupConfig() LookupConfig {
	return LookupConfig{
		LeadIn:  0.05,
		TailOut: 0.08,
		Hold:    0.25,
	}
}

// Lookup resolves a playhead time to the active caption segment, honoring
// the configured boundary tolerances. Lookups are pure: identical inputs
// always resolve to the identical index.
type Lookup struct {
	cfg LookupConfig
}

// NewLookup creates a new Lookup with the given tolerances
func NewLookup(cfg LookupConfig) *Lookup {
	return &Lookup{cfg: cfg}
}

// IndexAt returns the index of the segment active at time t, or
// NoActiveSegment when t falls in a silence gap wider than the hold
// threshold. Segments must be sorted and non-overlapping, as produced by
// the Normalizer.
func (l *Lookup) IndexAt(segments []CaptionSegment, t float64) int {
	if len(segments) == 0 {
		return NoActiveSegment
	}

	for i := range segments {
		s := &segments[i]

		// Inside the tolerance-widened window of this segment.
		if t >= s.Start-l.cfg.LeadIn && t <= s.End+l.cfg.TailOut {
			return i
		}

		// Before this segment's widened window: t sits in the gap between
		// segment i-1 and segment i.
		if t < s.Start-l.cfg.LeadIn {
			if i == 0 {
				return NoActiveSegment
			}
			prev := &segments[i-1]
			if s.Start-prev.End < l.cfg.Hold {
				return i - 1
			}
			return NoActiveSegment
		}
	}

	// Past the end of the last segment: hold it briefly, then blank.
	last := len(segments) - 1
	if t-segments[last].End < l.cfg.Hold {
		return last
	}
	return NoActiveSegment
}

// SegmentAt returns the segment active at time t, or nil when no caption
// should be visible
func (l *Lookup) SegmentAt(segments []CaptionSegment, t float64) *CaptionSegment {
	idx := l.IndexAt(segments, t)
	if idx == NoActiveSegment {
		return nil
	}
	return &segments[idx]
}
