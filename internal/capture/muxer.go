package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// EncodingProfile is one candidate codec combination for capturing
// rendered frames plus audio into a recordable container.
type EncodingProfile struct {
	VideoCodec string
	AudioCodec string
	Container  string
}

// PreferredProfiles is the ordered preference list tried when selecting a
// capture profile
var PreferredProfiles = []EncodingProfile{
	{VideoCodec: "libx264", AudioCodec: "aac", Container: "matroska"},
	{VideoCodec: "libvpx-vp9", AudioCodec: "libopus", Container: "webm"},
	{VideoCodec: "mpeg4", AudioCodec: "aac", Container: "matroska"},
}

// ErrNoEncodingProfile is returned when the runtime supports none of the
// preferred capture profiles. It is detected before any rendering work so
// the failure is actionable instead of surfacing deep inside the pipeline.
var ErrNoEncodingProfile = fmt.Errorf("no supported encoding profile available")

// SelectProfile queries the ffmpeg binary for its compiled-in encoders and
// returns the first preferred profile it supports
func SelectProfile(ctx context.Context, ffmpegPath string) (EncodingProfile, error) {
	if _, err := exec.LookPath(ffmpegPath); err != nil {
		return EncodingProfile{}, fmt.Errorf("%w: ffmpeg binary not found: %v", ErrNoEncodingProfile, err)
	}

	out, err := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-encoders").Output()
	if err != nil {
		return EncodingProfile{}, fmt.Errorf("%w: failed to query encoders: %v", ErrNoEncodingProfile, err)
	}

	encoders := string(out)
	for _, profile := range PreferredProfiles {
		if strings.Contains(encoders, profile.VideoCodec) && strings.Contains(encoders, profile.AudioCodec) {
			return profile, nil
		}
	}

	return EncodingProfile{}, ErrNoEncodingProfile
}

// Muxer composes a raw RGBA frame stream with a PCM audio track into a
// single encoded clip through an ffmpeg child process. Frames arrive on
// stdin; the audio track is staged to a temporary file so ffmpeg can read
// both inputs concurrently.
type Muxer struct {
	ffmpegPath string
	profile    EncodingProfile
	logger     *zap.Logger

	cmd       *exec.Cmd
	stdin     io.WriteCloser
	audioPath string
	output    bytes.Buffer
	outputWG  sync.WaitGroup
	stderr    tailBuffer
}

// MuxerConfig holds the capture stream parameters.
type MuxerConfig struct {
	Width      int
	Height     int
	FrameRate  int
	SampleRate int
}

// NewMuxer creates a Muxer for the selected encoding profile
func NewMuxer(profile EncodingProfile, logger *zap.Logger) *Muxer {
	if logger == nil {
		logger = zap.NewNop() // Use no-op logger if nil is passed
	}
	return &Muxer{
		ffmpegPath: "ffmpeg", // Default FFmpeg binary path
		profile:    profile,
		logger:     logger,
	}
}

// Start stages the audio track and launches the ffmpeg capture process
func (m *Muxer) Start(ctx context.Context, cfg MuxerConfig, audioPCM []byte) error {
	audioFile, err := os.CreateTemp("", "audiogram-capture-*.pcm")
	if err != nil {
		return fmt.Errorf("failed to stage audio track: %w", err)
	}
	if _, err := audioFile.Write(audioPCM); err != nil {
		audioFile.Close()
		os.Remove(audioFile.Name())
		return fmt.Errorf("failed to write audio track: %w", err)
	}
	audioFile.Close()
	m.audioPath = audioFile.Name()

	args := []string{
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"-r", fmt.Sprintf("%d", cfg.FrameRate),
		"-i", "pipe:0", // Frame stream from stdin
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", cfg.SampleRate),
		"-ac", "1",
		"-i", m.audioPath, // Staged audio track
		"-c:v", m.profile.VideoCodec,
		"-c:a", m.profile.AudioCodec,
		"-pix_fmt", "yuv420p",
		"-shortest",
		"-f", m.profile.Container,
		"pipe:1", // Encoded clip to stdout
	}

	m.cmd = exec.CommandContext(ctx, m.ffmpegPath, args...)
	m.cmd.Stderr = &m.stderr

	stdin, err := m.cmd.StdinPipe()
	if err != nil {
		m.cleanupAudio()
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	m.stdin = stdin

	stdout, err := m.cmd.StdoutPipe()
	if err != nil {
		m.cleanupAudio()
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := m.cmd.Start(); err != nil {
		m.cleanupAudio()
		return fmt.Errorf("failed to start ffmpeg capture: %w", err)
	}

	m.logger.Info("capture muxer started",
		zap.Int("pid", m.cmd.Process.Pid),
		zap.String("video_codec", m.profile.VideoCodec),
		zap.String("audio_codec", m.profile.AudioCodec),
		zap.String("container", m.profile.Container))

	m.outputWG.Add(1)
	go func() {
		defer m.outputWG.Done()
		if _, err := io.Copy(&m.output, stdout); err != nil {
			m.logger.Warn("capture output read ended with error", zap.Error(err))
		}
	}()

	return nil
}

// WriteFrame streams one raw RGBA frame into the capture
func (m *Muxer) WriteFrame(frame []byte) error {
	if m.stdin == nil {
		return fmt.Errorf("muxer not started")
	}
	if _, err := m.stdin.Write(frame); err != nil {
		return fmt.Errorf("failed to write frame: %w (stderr: %s)", err, m.stderr.String())
	}
	return nil
}

// Finalize signals end of the frame stream, waits for the encoder to
// flush, and returns the encoded clip
func (m *Muxer) Finalize() ([]byte, error) {
	if m.stdin != nil {
		m.stdin.Close()
		m.stdin = nil
	}

	if m.cmd != nil {
		if err := m.cmd.Wait(); err != nil {
			return nil, fmt.Errorf("ffmpeg capture failed: %w (stderr: %s)", err, m.stderr.String())
		}
	}
	m.outputWG.Wait()

	m.logger.Info("capture finalized",
		zap.Int("clip_bytes", m.output.Len()))

	return m.output.Bytes(), nil
}

// Close releases the staged audio file and terminates a still-running
// capture process. Safe to call on every exit path.
func (m *Muxer) Close() error {
	if m.stdin != nil {
		m.stdin.Close()
		m.stdin = nil
	}
	if m.cmd != nil && m.cmd.Process != nil && m.cmd.ProcessState == nil {
		if err := m.cmd.Process.Kill(); err != nil {
			m.logger.Debug("capture process kill", zap.Error(err))
		}
		m.cmd.Wait()
	}
	m.cleanupAudio()
	return nil
}

// cleanupAudio removes the staged audio track file
func (m *Muxer) cleanupAudio() {
	if m.audioPath != "" {
		os.Remove(m.audioPath)
		m.audioPath = ""
	}
}

// tailBuffer keeps only the trailing diagnostic output of the capture process
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
}

const stderrTailBytes = 2048

// Write appends p, discarding older bytes beyond the tail budget
func (tb *tailBuffer) Write(p []byte) (int, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.buf = append(tb.buf, p...)
	if len(tb.buf) > stderrTailBytes {
		tb.buf = tb.buf[len(tb.buf)-stderrTailBytes:]
	}
	return len(p), nil
}

// String returns the retained diagnostic tail
func (tb *tailBuffer) String() string {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return string(tb.buf)
}
