package transcode

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscoder_Transcode_EmptyInput(t *testing.T) {
	// Arrange
	tr := NewTranscoder()

	// Act
	_, err := tr.Transcode(context.Background(), nil, "mp4")

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input clip is empty")
}

func TestTranscoder_DecodeToPCM_EmptyInput(t *testing.T) {
	// Arrange
	tr := NewTranscoder()

	// Act
	_, err := tr.DecodeToPCM(context.Background(), nil, 16000)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audio input is empty")
}

func TestTailBuffer_RetainsOnlyTail(t *testing.T) {
	// Arrange
	var tb tailBuffer

	// Act: write well past the retention budget.
	for i := 0; i < 10; i++ {
		n, err := tb.Write(bytes.Repeat([]byte{'a' + byte(i)}, 512))
		require.NoError(t, err)
		assert.Equal(t, 512, n)
	}

	// Assert: only the newest bytes survive.
	tail := tb.String()
	assert.Len(t, tail, stderrTailBytes)
	assert.True(t, strings.HasSuffix(tail, strings.Repeat("j", 512)))
	assert.NotContains(t, tail, "a")
}

func TestTailBuffer_ShortWritesKeptWhole(t *testing.T) {
	// Arrange
	var tb tailBuffer

	// Act
	tb.Write([]byte("frame=  120 fps= 30"))

	// Assert
	assert.Equal(t, "frame=  120 fps= 30", tb.String())
}
