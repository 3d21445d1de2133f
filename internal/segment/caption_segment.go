package segment

import "fmt"

// TimedSpan represents a single raw timed text span as produced by a
// transcription backend or synthesized from text plus a duration estimate.
// Input spans carry no ordering or overlap guarantees.
type TimedSpan struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Validate checks if the TimedSpan has valid values
func (ts *TimedSpan) Validate() error {
	if ts.Text == "" {
		return fmt.Errorf("text cannot be empty")
	}

	if ts.Start < 0 {
		return fmt.Errorf("start cannot be negative")
	}

	if ts.End <= ts.Start {
		return fmt.Errorf("end must be greater than start")
	}

	return nil
}

// CaptionSegment is a TimedSpan that has passed through normalization:
// strictly ordered and non-overlapping within its sequence, with trimmed
// non-empty text. Speaker is empty until the speaker mapper assigns one.
type CaptionSegment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

// Duration returns the length of the caption window in seconds
func (cs *CaptionSegment) Duration() float64 {
	return cs.End - cs.Start
}

// Midpoint returns the temporal midpoint of the caption window
func (cs *CaptionSegment) Midpoint() float64 {
	return cs.Start + (cs.End-cs.Start)/2
}

// Validate checks if the CaptionSegment has valid values
func (cs *CaptionSegment) Validate() error {
	if cs.Text == "" {
		return fmt.Errorf("text cannot be empty")
	}

	if cs.Start < 0 {
		return fmt.Errorf("start cannot be negative")
	}

	if cs.End <= cs.Start {
		return fmt.Errorf("end must be greater than start")
	}

	return nil
}

// ValidateSequence checks the ordering and overlap invariants across an
// ordered caption segment sequence
func ValidateSequence(segments []CaptionSegment) error {
	for i := range segments {
		if err := segments[i].Validate(); err != nil {
			return fmt.Errorf("segment %d invalid: %w", i, err)
		}
		if i > 0 && segments[i].Start < segments[i-1].End {
			return fmt.Errorf("segment %d overlaps previous: start %.3f < previous end %.3f",
				i, segments[i].Start, segments[i-1].End)
		}
	}
	return nil
}
