package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"audiogram/internal/segment"
)

// Result is a completed transcription: the full text plus the raw timed
// spans the backend reported.
type Result struct {
	Text  string              `json:"text"`
	Spans []segment.TimedSpan `json:"spans"`
}

// Service is the speech-to-text collaborator contract: raw audio bytes in,
// text plus per-span timing out. Implementations must tolerate short,
// TTS-generated clips, since synthesized speech is re-transcribed purely
// to obtain precise span timing.
type Service interface {
	Transcribe(ctx context.Context, audio []byte, mimeHint string) (Result, error)
}

// HTTPService transcribes audio through a Whisper-style HTTP endpoint
type HTTPService struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPService creates a transcription client for the given endpoint
func NewHTTPService(baseURL, apiKey, model string) *HTTPService {
	return NewHTTPServiceWithLogger(baseURL, apiKey, model, nil)
}

// NewHTTPServiceWithLogger creates a transcription client with the given logger
func NewHTTPServiceWithLogger(baseURL, apiKey, model string, logger *zap.Logger) *HTTPService {
	if logger == nil {
		logger = zap.NewNop() // Use no-op logger if nil is passed
	}
	return &HTTPService{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 5 * time.Minute},
		logger:  logger,
	}
}

// verboseResponse mirrors the verbose transcription payload with
// per-segment timing
type verboseResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe posts the audio as multipart form data and decodes the timed
// spans from the verbose response. Failures carry the HTTP status and
// response excerpt; the caller decides whether to retry.
func (s *HTTPService) Transcribe(ctx context.Context, audio []byte, mimeHint string) (Result, error) {
	if len(audio) == 0 {
		return Result{}, fmt.Errorf("audio is empty")
	}

	s.logger.Debug("submitting audio for transcription",
		zap.Int("audio_bytes", len(audio)),
		zap.String("mime_hint", mimeHint),
		zap.String("model", s.model))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("model", s.model); err != nil {
		return Result{}, fmt.Errorf("failed to write model field: %w", err)
	}
	if err := mw.WriteField("response_format", "verbose_json"); err != nil {
		return Result{}, fmt.Errorf("failed to write response_format field: %w", err)
	}

	fw, err := mw.CreateFormFile("file", "audio"+extensionForMime(mimeHint))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return Result{}, fmt.Errorf("failed to write audio payload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Result{}, fmt.Errorf("transcription service returned status %d: %s", resp.StatusCode, string(detail))
	}

	var vr verboseResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return Result{}, fmt.Errorf("failed to decode transcription response: %w", err)
	}

	result := Result{Text: vr.Text}
	for _, seg := range vr.Segments {
		result.Spans = append(result.Spans, segment.TimedSpan{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}

	s.logger.Info("transcription completed",
		zap.Int("span_count", len(result.Spans)),
		zap.Int("text_length", len(result.Text)))

	return result, nil
}

// extensionForMime maps a mime hint to the filename extension the backend
// uses for container detection
func extensionForMime(mime string) string {
	switch mime {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/webm", "video/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	case "audio/mp4", "audio/m4a":
		return ".m4a"
	default:
		return ".wav"
	}
}
