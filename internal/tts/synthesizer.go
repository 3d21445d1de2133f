package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"audiogram/internal/audio"
	"audiogram/internal/speaker"
)

// Request describes one single-voice synthesis call.
type Request struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Format string `json:"format"`
}

// SegmentRequest is one spoken line of a multi-voice dialogue request.
type SegmentRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// DialogueResult is synthesized multi-voice audio plus the measured
// per-line speaker timings. The timings are authoritative: each line was
// actually synthesized and its duration measured before concatenation, so
// they account for real speaking rates and the inserted pauses.
type DialogueResult struct {
	Audio   []byte
	Timings []speaker.Timing
}

// Service is the text-to-speech collaborator contract
type Service interface {
	Synthesize(ctx context.Context, req Request) ([]byte, error)
	SynthesizeDialogue(ctx context.Context, segments []SegmentRequest, speakers map[string]string) (DialogueResult, error)
}

// Config holds the dialogue assembly constants.
type Config struct {
	// SampleRate of the PCM stream requested for dialogue assembly.
	SampleRate int
	// LeadingSilence inserted before the first line, in seconds.
	LeadingSilence float64
	// SpeakerPause inserted at every speaker change, in seconds.
	SpeakerPause float64
}

// DefaultConfig returns the dialogue assembly settings
func DefaultConfig() Config {
	return Config{
		SampleRate:     16000,
		LeadingSilence: 0.2,
		SpeakerPause:   1.0,
	}
}

// HTTPService synthesizes speech through a Fish-Audio-style HTTP endpoint.
// Dialogue requests are assembled client-side: each line is synthesized as
// raw PCM, measured, and concatenated with known silence insertions, which
// is what makes the returned timings exact.
type HTTPService struct {
	baseURL string
	apiKey  string
	cfg     Config
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPService creates a synthesis client for the given endpoint
func NewHTTPService(baseURL, apiKey string, cfg Config) *HTTPService {
	return NewHTTPServiceWithLogger(baseURL, apiKey, cfg, nil)
}

// NewHTTPServiceWithLogger creates a synthesis client with the given logger
func NewHTTPServiceWithLogger(baseURL, apiKey string, cfg Config, logger *zap.Logger) *HTTPService {
	if logger == nil {
		logger = zap.NewNop() // Use no-op logger if nil is passed
	}
	return &HTTPService{
		baseURL: baseURL,
		apiKey:  apiKey,
		cfg:     cfg,
		client:  &http.Client{Timeout: 5 * time.Minute},
		logger:  logger,
	}
}

// Synthesize converts text to encoded audio bytes with the given voice
func (s *HTTPService) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if req.Text == "" {
		return nil, fmt.Errorf("text is empty")
	}

	s.logger.Debug("synthesizing speech",
		zap.Int("text_length", len(req.Text)),
		zap.String("voice", req.Voice),
		zap.String("format", req.Format))

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/tts", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build synthesis request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("tts service returned status %d: %s", resp.StatusCode, string(detail))
	}

	encoded, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesized audio: %w", err)
	}
	if len(encoded) == 0 {
		return nil, fmt.Errorf("tts service returned empty audio")
	}

	s.logger.Info("speech synthesized",
		zap.Int("audio_bytes", len(encoded)))

	return encoded, nil
}

// SynthesizeDialogue synthesizes each line with its speaker's voice,
// inserts silence at speaker changes, and concatenates into one PCM
// stream. speakers maps speaker names to voice identifiers. The returned
// timings are measured from the actual per-line audio.
func (s *HTTPService) SynthesizeDialogue(ctx context.Context, segments []SegmentRequest, speakers map[string]string) (DialogueResult, error) {
	if len(segments) == 0 {
		return DialogueResult{}, fmt.Errorf("dialogue has no segments")
	}

	var out bytes.Buffer
	var timings []speaker.Timing

	out.Write(silencePCM(s.cfg.LeadingSilence, s.cfg.SampleRate))
	cursor := s.cfg.LeadingSilence

	prevSpeaker := ""
	for i, seg := range segments {
		voice := speakers[seg.Voice]
		if voice == "" {
			voice = seg.Voice
		}

		if i > 0 && seg.Voice != prevSpeaker {
			out.Write(silencePCM(s.cfg.SpeakerPause, s.cfg.SampleRate))
			cursor += s.cfg.SpeakerPause
		}
		prevSpeaker = seg.Voice

		pcm, err := s.Synthesize(ctx, Request{Text: seg.Text, Voice: voice, Format: "pcm"})
		if err != nil {
			return DialogueResult{}, fmt.Errorf("failed to synthesize line %d: %w", i+1, err)
		}

		duration := audio.DurationOfPCM(pcm, s.cfg.SampleRate)
		timings = append(timings, speaker.Timing{
			Speaker:   seg.Voice,
			StartTime: cursor,
			EndTime:   cursor + duration,
		})
		cursor += duration
		out.Write(pcm)
	}

	s.logger.Info("dialogue synthesized",
		zap.Int("line_count", len(segments)),
		zap.Float64("total_duration", cursor),
		zap.Int("audio_bytes", out.Len()))

	return DialogueResult{Audio: out.Bytes(), Timings: timings}, nil
}

// silencePCM returns a 16-bit mono PCM silence buffer of the given duration
func silencePCM(seconds float64, sampleRate int) []byte {
	samples := int(seconds * float64(sampleRate))
	return make([]byte, samples*2)
}
