package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSegments() []CaptionSegment {
	return []CaptionSegment{
		{Start: 0.0, End: 3.0, Text: "segment a"},
		{Start: 5.0, End: 7.0, Text: "segment b"},
		{Start: 7.1, End: 9.0, Text: "segment c"},
	}
}

func TestLookup_InsideSegment(t *testing.T) {
	// Arrange
	l := NewLookup(DefaultLookupConfig())

	// Act & Assert
	assert.Equal(t, 0, l.IndexAt(testSegments(), 1.5))
	assert.Equal(t, 1, l.IndexAt(testSegments(), 6.0))
	assert.Equal(t, 2, l.IndexAt(testSegments(), 8.0))
}

func TestLookup_BlankInsideWideGap(t *testing.T) {
	// Arrange: a 2 second true silence between segment a and segment b.
	l := NewLookup(LookupConfig{LeadIn: 0.05, TailOut: 0.08, Hold: 0.05})

	// Act
	idx := l.IndexAt(testSegments(), 4.0)

	// Assert
	assert.Equal(t, NoActiveSegment, idx)
}

func TestLookup_HoldsAcrossSmallGap(t *testing.T) {
	// Arrange: the 0.1s gap between b and c is under the hold threshold.
	l := NewLookup(DefaultLookupConfig())

	// Act
	idx := l.IndexAt(testSegments(), 7.05)

	// Assert: still showing segment b rather than blanking.
	assert.Equal(t, 1, idx)
}

func TestLookup_TailOutToleranceHonored(t *testing.T) {
	// Arrange: hold is small so only tail-out keeps the caption alive.
	l := NewLookup(LookupConfig{LeadIn: 0.05, TailOut: 0.08, Hold: 0.01})
	segments := []CaptionSegment{{Start: 0.0, End: 3.0, Text: "only"}}

	// Act & Assert: just inside the tail-out still resolves.
	assert.Equal(t, 0, l.IndexAt(segments, 3.0+0.08-0.001))
	// Just past the tail-out does not.
	assert.Equal(t, NoActiveSegment, l.IndexAt(segments, 3.0+0.08+0.001))
}

func TestLookup_LeadInTolerance(t *testing.T) {
	// Arrange
	l := NewLookup(LookupConfig{LeadIn: 0.05, TailOut: 0.08, Hold: 0.01})
	segments := []CaptionSegment{{Start: 2.0, End: 3.0, Text: "only"}}

	// Act & Assert
	assert.Equal(t, 0, l.IndexAt(segments, 1.96))
	assert.Equal(t, NoActiveSegment, l.IndexAt(segments, 1.90))
}

func TestLookup_HoldPastFinalSegment(t *testing.T) {
	// Arrange
	l := NewLookup(DefaultLookupConfig())
	segments := testSegments()

	// Act & Assert: shortly past the last end the caption lingers.
	assert.Equal(t, 2, l.IndexAt(segments, 9.1))
	// Well past the hold threshold it blanks.
	assert.Equal(t, NoActiveSegment, l.IndexAt(segments, 9.6))
}

func TestLookup_BeforeFirstSegment(t *testing.T) {
	// Arrange
	l := NewLookup(DefaultLookupConfig())
	segments := []CaptionSegment{{Start: 2.0, End: 3.0, Text: "late start"}}

	// Act & Assert
	assert.Equal(t, NoActiveSegment, l.IndexAt(segments, 0.5))
}

func TestLookup_EmptySegments(t *testing.T) {
	// Arrange
	l := NewLookup(DefaultLookupConfig())

	// Act & Assert
	assert.Equal(t, NoActiveSegment, l.IndexAt(nil, 1.0))
}

func TestLookup_Deterministic(t *testing.T) {
	// Arrange
	l := NewLookup(DefaultLookupConfig())
	segments := testSegments()

	// Act & Assert: identical arguments resolve identically, repeatedly.
	for _, q := range []float64{-1.0, 0.0, 1.5, 3.05, 4.0, 5.0, 7.05, 9.1, 12.0} {
		first := l.IndexAt(segments, q)
		second := l.IndexAt(segments, q)
		assert.Equal(t, first, second, "query %.2f", q)
	}
}

func TestLookup_SegmentAt(t *testing.T) {
	// Arrange
	l := NewLookup(DefaultLookupConfig())
	segments := testSegments()

	// Act & Assert
	assert.Equal(t, "segment a", l.SegmentAt(segments, 1.0).Text)
	assert.Nil(t, l.SegmentAt(segments, 100.0))
}
