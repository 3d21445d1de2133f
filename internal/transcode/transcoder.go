package transcode

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// MinOutputBytes is the smallest transcoded payload treated as real. A
// nominally successful run producing fewer bytes is a silently broken
// capture and reported as a failure.
const MinOutputBytes = 1024

// stderrTailBytes is how much trailing ffmpeg diagnostic output is kept
// for error reporting
const stderrTailBytes = 2048

// Transcoder converts a captured clip from a recordable container into the
// delivery container using the ffmpeg CLI
type Transcoder struct {
	ffmpegPath string
	logger     *zap.Logger
}

// NewTranscoder creates a Transcoder using the default ffmpeg binary
func NewTranscoder() *Transcoder {
	return NewTranscoderWithLogger(nil)
}

// NewTranscoderWithLogger creates a Transcoder with the given logger
func NewTranscoderWithLogger(logger *zap.Logger) *Transcoder {
	if logger == nil {
		logger = zap.NewNop() // Use no-op logger if nil is passed
	}
	return &Transcoder{
		ffmpegPath: "ffmpeg", // Default FFmpeg binary path
		logger:     logger,
	}
}

// Available reports whether the ffmpeg binary can be found. Export checks
// this up front so capability problems surface before any rendering work.
func (t *Transcoder) Available() bool {
	_, err := exec.LookPath(t.ffmpegPath)
	return err == nil
}

// Transcode converts the input clip to the target format. The input
// arrives on stdin and the result is read from stdout, so no intermediate
// files are written. Errors preserve the tail of ffmpeg's stderr.
func (t *Transcoder) Transcode(ctx context.Context, input []byte, targetFormat string) ([]byte, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("input clip is empty")
	}

	t.logger.Info("transcoding captured clip",
		zap.Int("input_bytes", len(input)),
		zap.String("target_format", targetFormat))

	args := []string{
		"-i", "pipe:0", // Read captured clip from stdin
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-movflags", "frag_keyframe+empty_moov", // Allow non-seekable mp4 output
		"-f", targetFormat,
		"pipe:1", // Write result to stdout
	}

	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	cmd.Stdin = bytes.NewReader(input)

	var stdout bytes.Buffer
	var stderr tailBuffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.logger.Error("ffmpeg transcode failed",
			zap.Error(err),
			zap.String("stderr_tail", stderr.String()))
		return nil, fmt.Errorf("ffmpeg transcode failed: %w (stderr: %s)", err, stderr.String())
	}

	if stdout.Len() < MinOutputBytes {
		t.logger.Error("transcode produced suspiciously small output",
			zap.Int("output_bytes", stdout.Len()),
			zap.String("stderr_tail", stderr.String()))
		return nil, fmt.Errorf("transcode produced suspiciously small output (%d bytes)", stdout.Len())
	}

	t.logger.Info("transcode completed",
		zap.Int("output_bytes", stdout.Len()))

	return stdout.Bytes(), nil
}

// DecodeToPCM converts any encoded audio input to 16-bit little-endian
// mono PCM at the given sample rate, the format the analyzer and capture
// pipeline consume
func (t *Transcoder) DecodeToPCM(ctx context.Context, input []byte, sampleRate int) ([]byte, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("audio input is empty")
	}

	args := []string{
		"-i", "pipe:0",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", "1",
		"-f", "s16le",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	cmd.Stdin = bytes.NewReader(input)

	var stdout bytes.Buffer
	var stderr tailBuffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode failed: %w (stderr: %s)", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("decode produced no audio data")
	}

	t.logger.Debug("decoded audio to pcm",
		zap.Int("input_bytes", len(input)),
		zap.Int("pcm_bytes", stdout.Len()))

	return stdout.Bytes(), nil
}

// tailBuffer keeps only the last stderrTailBytes of what is written to it
type tailBuffer struct {
	buf []byte
}

// Write appends p, discarding older bytes beyond the tail budget
func (tb *tailBuffer) Write(p []byte) (int, error) {
	tb.buf = append(tb.buf, p...)
	if len(tb.buf) > stderrTailBytes {
		tb.buf = tb.buf[len(tb.buf)-stderrTailBytes:]
	}
	return len(p), nil
}

// String returns the retained diagnostic tail
func (tb *tailBuffer) String() string {
	return string(tb.buf)
}
