package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"audiogram/internal/audio"
	"audiogram/internal/capture"
	"audiogram/internal/config"
	"audiogram/internal/layout"
	"audiogram/internal/render"
	"audiogram/internal/script"
	"audiogram/internal/segment"
	"audiogram/internal/speaker"
	"audiogram/internal/transcode"
	"audiogram/internal/transcribe"
	"audiogram/internal/tts"
)

// Studio is the single owner of the audiogram working state: the current
// audio, transcript, caption segments, and layout metrics. Every mutation
// happens through one of its operations; the render and export paths only
// read snapshots. A failed operation never touches the previous good state.
type Studio struct {
	cfg    *config.Configuration
	logger *zap.Logger

	normalizer   *segment.Normalizer
	lookup       *segment.Lookup
	scriptParser *script.Parser
	mapper       *speaker.Mapper
	layoutEngine *layout.Engine
	renderer     *render.Renderer
	transcriber  transcribe.Service
	synthesizer  tts.Service
	transcoder   *transcode.Transcoder
	exporter     *capture.Exporter

	busy bool

	// Working state, replaced wholesale by successful operations.
	encodedAudio []byte
	audioMime    string
	audioPCM     []byte
	duration     float64
	transcript   string
	segments     []segment.CaptionSegment
	parsed       script.ParsedScript
	timings      []speaker.Timing
	artwork      map[string]render.Drawable
}

// NewStudio creates a Studio with HTTP collaborator clients built from
// configuration
func NewStudio(cfg *config.Configuration, logger *zap.Logger) *Studio {
	transcriber := transcribe.NewHTTPServiceWithLogger(
		cfg.GetTranscribeBaseURL(), cfg.GetTranscribeAPIKey(), cfg.GetTranscribeModel(), logger)

	synthesizer := tts.NewHTTPServiceWithLogger(
		cfg.GetTTSBaseURL(), cfg.GetTTSAPIKey(), tts.Config{
			SampleRate:     cfg.GetSampleRate(),
			LeadingSilence: cfg.GetLeadingSilence(),
			SpeakerPause:   cfg.GetSpeakerPause(),
		}, logger)

	return NewStudioWithServices(cfg, transcriber, synthesizer, logger)
}

// NewStudioWithServices creates a Studio with explicit collaborator
// implementations, used by tests to substitute fakes
func NewStudioWithServices(cfg *config.Configuration, transcriber transcribe.Service, synthesizer tts.Service, logger *zap.Logger) *Studio {
	if logger == nil {
		logger = zap.NewNop() // Use no-op logger if nil is passed
	}

	normalizer := segment.NewNormalizerWithLogger(segment.NormalizerConfig{
		MinDuration: cfg.GetCaptionMinDuration(),
		MaxWords:    cfg.GetCaptionMaxWords(),
	}, logger)

	lookup := segment.NewLookup(segment.LookupConfig{
		LeadIn:  cfg.GetLookupLeadIn(),
		TailOut: cfg.GetLookupTailOut(),
		Hold:    cfg.GetLookupHold(),
	})

	mapper := speaker.NewMapperWithLogger(speaker.MapperConfig{
		LeadingSilence: cfg.GetLeadingSilence(),
		SpeakerPause:   cfg.GetSpeakerPause(),
	}, logger)

	layoutEngine := layout.NewEngineWithLogger(render.MeasureText, layout.Config{
		MinSize:  cfg.GetCaptionMinFontSize(),
		MaxSize:  cfg.GetCaptionMaxFontSize(),
		MaxLines: cfg.GetCaptionMaxLines(),
	}, logger)

	renderer := render.NewRendererWithLogger(render.Config{
		BarFloor:     render.DefaultConfig().BarFloor,
		DriftEnabled: cfg.GetBackgroundDriftEnabled(),
	}, render.DefaultPalette(), lookup, layoutEngine, logger)

	transcoder := transcode.NewTranscoderWithLogger(logger)

	exporter := capture.NewExporterWithLogger(capture.ExporterConfig{
		Width:     cfg.GetExportWidth(),
		Height:    cfg.GetExportHeight(),
		FrameRate: cfg.GetExportFrameRate(),
		BarCount:  cfg.GetBarCount(),
	}, renderer, transcoder, logger)

	return &Studio{
		cfg:          cfg,
		logger:       logger,
		normalizer:   normalizer,
		lookup:       lookup,
		scriptParser: script.NewParserWithLogger(logger),
		mapper:       mapper,
		layoutEngine: layoutEngine,
		renderer:     renderer,
		transcriber:  transcriber,
		synthesizer:  synthesizer,
		transcoder:   transcoder,
		exporter:     exporter,
		artwork:      make(map[string]render.Drawable),
	}
}

// beginOperation marks the studio busy for the duration of one user
// action. The returned func must run in a defer so the busy flag clears on
// every exit path.
func (s *Studio) beginOperation(name string) (func(), error) {
	if s.busy {
		return nil, fmt.Errorf("another operation is in progress")
	}
	s.busy = true
	s.logger.Debug("operation started", zap.String("operation", name))
	return func() {
		s.busy = false
		s.logger.Debug("operation finished", zap.String("operation", name))
	}, nil
}

// LoadAudio stages recorded or uploaded audio for transcription and
// export. The encoded form goes to collaborators; the decoded PCM drives
// amplitude analysis and capture.
func (s *Studio) LoadAudio(ctx context.Context, encoded []byte, mimeHint string) error {
	done, err := s.beginOperation("load_audio")
	if err != nil {
		return err
	}
	defer done()

	if len(encoded) == 0 {
		return fmt.Errorf("audio is empty")
	}

	pcm, err := s.transcoder.DecodeToPCM(ctx, encoded, s.cfg.GetSampleRate())
	if err != nil {
		return fmt.Errorf("failed to decode audio: %w", err)
	}

	duration := float64(len(pcm)/2) / float64(s.cfg.GetSampleRate())
	if duration < 0.5 {
		return fmt.Errorf("audio is too short (%.2fs)", duration)
	}

	s.encodedAudio = encoded
	s.audioMime = mimeHint
	s.audioPCM = pcm
	s.duration = duration

	s.logger.Info("audio loaded",
		zap.Int("encoded_bytes", len(encoded)),
		zap.Float64("duration", duration))

	return nil
}

// TranscribeAudio transcribes the staged audio and replaces the caption
// segments wholesale. On failure the previous transcript and segments
// remain untouched.
func (s *Studio) TranscribeAudio(ctx context.Context) error {
	done, err := s.beginOperation("transcribe")
	if err != nil {
		return err
	}
	defer done()

	if len(s.encodedAudio) == 0 {
		return fmt.Errorf("no audio loaded")
	}

	result, err := s.transcriber.Transcribe(ctx, s.encodedAudio, s.audioMime)
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}

	segments := s.normalizer.Normalize(result.Spans, s.duration)

	s.commit(result.Text, segments, script.ParsedScript{}, nil)
	return nil
}

// GenerateSpeech synthesizes a single-voice narration, re-transcribes it
// for precise span timing, and replaces the caption segments. The
// re-transcription exists purely to recover authoritative timing; when it
// fails, captions fall back to fixed-size chunks spread over the measured
// duration.
func (s *Studio) GenerateSpeech(ctx context.Context, text, voice string) error {
	done, err := s.beginOperation("generate_speech")
	if err != nil {
		return err
	}
	defer done()

	if err := s.validateScriptText(text); err != nil {
		return err
	}

	pcm, err := s.synthesizer.Synthesize(ctx, tts.Request{Text: text, Voice: voice, Format: "pcm"})
	if err != nil {
		return fmt.Errorf("speech synthesis failed: %w", err)
	}

	duration := float64(len(pcm)/2) / float64(s.cfg.GetSampleRate())
	if duration < 0.5 {
		return fmt.Errorf("synthesized audio is too short (%.2fs)", duration)
	}
	segments := s.captionsForSynthesized(ctx, text, pcm, duration)

	s.encodedAudio = audio.WAVFromPCM(pcm, s.cfg.GetSampleRate())
	s.audioMime = "audio/wav"
	s.audioPCM = pcm
	s.duration = duration
	s.commit(text, segments, script.ParsedScript{}, nil)
	return nil
}

// GenerateDialogue synthesizes a multi-speaker script, keeps the backend's
// measured per-line timings, and assigns a speaker to every caption
// segment from them.
func (s *Studio) GenerateDialogue(ctx context.Context, scriptText string) error {
	done, err := s.beginOperation("generate_dialogue")
	if err != nil {
		return err
	}
	defer done()

	if err := s.validateScriptText(scriptText); err != nil {
		return err
	}

	parsed := s.scriptParser.Parse(scriptText)
	if len(parsed.Lines) == 0 {
		return fmt.Errorf("script has no tagged lines; every spoken line needs a \"[NAME]: text\" tag")
	}

	requests := make([]tts.SegmentRequest, 0, len(parsed.Lines))
	for _, line := range parsed.Lines {
		requests = append(requests, tts.SegmentRequest{Text: line.Text, Voice: line.Speaker})
	}

	result, err := s.synthesizer.SynthesizeDialogue(ctx, requests, nil)
	if err != nil {
		return fmt.Errorf("dialogue synthesis failed: %w", err)
	}

	duration := float64(len(result.Audio)/2) / float64(s.cfg.GetSampleRate())
	if duration < 0.5 {
		return fmt.Errorf("synthesized audio is too short (%.2fs)", duration)
	}
	segments := s.captionsForSynthesized(ctx, joinLines(parsed), result.Audio, duration)
	segments = s.mapper.Assign(segments, parsed, result.Timings, duration)

	s.encodedAudio = audio.WAVFromPCM(result.Audio, s.cfg.GetSampleRate())
	s.audioMime = "audio/wav"
	s.audioPCM = result.Audio
	s.duration = duration
	s.commit(joinLines(parsed), segments, parsed, result.Timings)
	return nil
}

// captionsForSynthesized builds caption segments for synthesized audio:
// preferably from a re-transcription's measured spans, otherwise from
// fixed-size text chunks over the known duration.
func (s *Studio) captionsForSynthesized(ctx context.Context, text string, pcm []byte, duration float64) []segment.CaptionSegment {
	chunkNormalizer := segment.NewNormalizerWithLogger(segment.NormalizerConfig{
		MinDuration: s.cfg.GetCaptionMinDuration(),
		MaxWords:    s.cfg.GetCaptionChunkWords(),
	}, s.logger)

	result, err := s.transcriber.Transcribe(ctx, audio.WAVFromPCM(pcm, s.cfg.GetSampleRate()), "audio/wav")
	if err != nil || len(result.Spans) == 0 {
		s.logger.Warn("re-transcription unavailable, chunking text over duration",
			zap.Error(err))
		return segment.ChunkText(text, s.cfg.GetCaptionChunkWords(), duration)
	}

	return chunkNormalizer.Normalize(result.Spans, duration)
}

// ApplyScript attributes the current caption segments to the speakers of
// a tagged script. With no backend-measured timings available this is the
// estimation path: the timeline is reconstructed from line lengths, the
// total audio duration, and the known silence constants.
func (s *Studio) ApplyScript(scriptText string) error {
	done, err := s.beginOperation("apply_script")
	if err != nil {
		return err
	}
	defer done()

	if err := s.validateScriptText(scriptText); err != nil {
		return err
	}
	if len(s.segments) == 0 {
		return fmt.Errorf("no caption segments; transcribe audio first")
	}

	parsed := s.scriptParser.Parse(scriptText)
	if len(parsed.Lines) == 0 {
		return fmt.Errorf("script has no tagged lines; every spoken line needs a \"[NAME]: text\" tag")
	}

	segments := s.mapper.Assign(s.segments, parsed, nil, s.duration)
	s.commit(s.transcript, segments, parsed, nil)
	return nil
}

// Export renders the current state to final deliverable video bytes
func (s *Studio) Export(ctx context.Context, progress capture.ProgressFunc) ([]byte, error) {
	done, err := s.beginOperation("export")
	if err != nil {
		return nil, err
	}
	defer done()

	if len(s.audioPCM) == 0 {
		return nil, fmt.Errorf("no audio loaded")
	}
	if len(s.segments) == 0 && s.transcript == "" {
		return nil, fmt.Errorf("nothing to render; transcribe or generate speech first")
	}

	state := s.frameState()
	return s.exporter.Render(ctx, capture.ExportJob{
		State:        state,
		AudioPCM:     s.audioPCM,
		SampleRate:   s.cfg.GetSampleRate(),
		Duration:     s.duration,
		TargetFormat: s.cfg.GetExportTargetFormat(),
		Progress:     progress,
	})
}

// frameState assembles the consistent per-frame snapshot the renderer reads
func (s *Studio) frameState() *render.FrameState {
	boxWidth := float64(s.cfg.GetExportWidth()) * 0.86
	boxHeight := float64(s.cfg.GetExportHeight()) * 0.22

	return &render.FrameState{
		Segments:      s.segments,
		TotalDuration: s.duration,
		Metrics:       s.layoutEngine.UniformMetrics(s.segments, s.transcript, boxWidth, boxHeight),
		Artwork:       s.artwork,
		FallbackText:  s.transcript,
	}
}

// commit replaces the derived caption state wholesale after a successful
// operation and invalidates the layout cache
func (s *Studio) commit(transcript string, segments []segment.CaptionSegment, parsed script.ParsedScript, timings []speaker.Timing) {
	s.transcript = transcript
	s.segments = segments
	s.parsed = parsed
	s.timings = timings
	s.layoutEngine.InvalidateCache()

	s.logger.Info("caption state replaced",
		zap.Int("segment_count", len(segments)),
		zap.Int("character_count", len(parsed.Characters)))
}

// validateScriptText rejects empty input and input over the character limit
// before any state changes
func (s *Studio) validateScriptText(text string) error {
	if text == "" {
		return fmt.Errorf("text is empty")
	}
	if limit := s.cfg.GetMaxScriptChars(); len(text) > limit {
		return fmt.Errorf("text exceeds the %d character limit (%d characters)", limit, len(text))
	}
	return nil
}

// SetArtwork registers a speaker's portrait for rendering
func (s *Studio) SetArtwork(speakerName string, img render.Drawable) {
	s.artwork[speakerName] = img
}

// Segments returns a copy of the current caption segment sequence
func (s *Studio) Segments() []segment.CaptionSegment {
	out := make([]segment.CaptionSegment, len(s.segments))
	copy(out, s.segments)
	return out
}

// EncodedAudio returns the staged encoded audio bytes
func (s *Studio) EncodedAudio() []byte {
	return s.encodedAudio
}

// Transcript returns the current transcript text
func (s *Studio) Transcript() string {
	return s.transcript
}

// Duration returns the staged audio duration in seconds
func (s *Studio) Duration() float64 {
	return s.duration
}

// Characters returns the distinct speakers of the current script
func (s *Studio) Characters() []string {
	return s.parsed.Characters
}

// joinLines flattens a parsed script back into plain spoken text
func joinLines(parsed script.ParsedScript) string {
	text := ""
	for i, line := range parsed.Lines {
		if i > 0 {
			text += " "
		}
		text += line.Text
	}
	return text
}
