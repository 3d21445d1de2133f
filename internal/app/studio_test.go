package app

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiogram/internal/config"
	"audiogram/internal/segment"
	"audiogram/internal/speaker"
	"audiogram/internal/transcribe"
	"audiogram/internal/tts"
)

// fakeTranscriber returns a canned result and records what it was sent.
type fakeTranscriber struct {
	result transcribe.Result
	err    error

	calls    int
	gotAudio []byte
	gotMime  string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, mimeHint string) (transcribe.Result, error) {
	f.calls++
	f.gotAudio = audio
	f.gotMime = mimeHint
	return f.result, f.err
}

// fakeSynthesizer returns canned PCM and dialogue results.
type fakeSynthesizer struct {
	pcm      []byte
	dialogue tts.DialogueResult
	err      error

	gotSegments []tts.SegmentRequest
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, req tts.Request) ([]byte, error) {
	return f.pcm, f.err
}

func (f *fakeSynthesizer) SynthesizeDialogue(ctx context.Context, segments []tts.SegmentRequest, speakers map[string]string) (tts.DialogueResult, error) {
	f.gotSegments = segments
	return f.dialogue, f.err
}

func newTestStudio(tr transcribe.Service, sy tts.Service) *Studio {
	return NewStudioWithServices(config.NewConfiguration(), tr, sy, nil)
}

// stageAudio puts decoded audio into the studio directly, standing in for
// LoadAudio so no ffmpeg process is needed.
func stageAudio(s *Studio, seconds float64) {
	sampleRate := s.cfg.GetSampleRate()
	pcm := make([]byte, int(seconds*float64(sampleRate))*2)
	s.encodedAudio = pcm
	s.audioMime = "audio/wav"
	s.audioPCM = pcm
	s.duration = seconds
}

func TestStudio_TranscribeAudio_ReplacesSegments(t *testing.T) {
	// Arrange
	tr := &fakeTranscriber{result: transcribe.Result{
		Text: "hello there general kenobi",
		Spans: []segment.TimedSpan{
			{Start: 0.0, End: 1.2, Text: "hello there"},
			{Start: 1.2, End: 2.0, Text: "general kenobi"},
		},
	}}
	s := newTestStudio(tr, &fakeSynthesizer{})
	stageAudio(s, 2.5)

	// Act
	err := s.TranscribeAudio(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "hello there general kenobi", s.Transcript())
	segments := s.Segments()
	require.Len(t, segments, 2)
	assert.Equal(t, "hello there", segments[0].Text)
	assert.Equal(t, 2.5, segments[1].End, "tail should extend to the audio duration")
	assert.Equal(t, "audio/wav", tr.gotMime)
}

func TestStudio_TranscribeAudio_RequiresLoadedAudio(t *testing.T) {
	// Arrange
	s := newTestStudio(&fakeTranscriber{}, &fakeSynthesizer{})

	// Act
	err := s.TranscribeAudio(context.Background())

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no audio loaded")
}

func TestStudio_TranscribeAudio_FailureLeavesStateUntouched(t *testing.T) {
	// Arrange: a good transcription first, then a failing backend.
	tr := &fakeTranscriber{result: transcribe.Result{
		Text:  "first transcript",
		Spans: []segment.TimedSpan{{Start: 0.0, End: 2.0, Text: "first transcript"}},
	}}
	s := newTestStudio(tr, &fakeSynthesizer{})
	stageAudio(s, 2.0)
	require.NoError(t, s.TranscribeAudio(context.Background()))
	before := s.Segments()

	tr.err = fmt.Errorf("backend down")

	// Act
	err := s.TranscribeAudio(context.Background())

	// Assert
	require.Error(t, err)
	assert.Equal(t, "first transcript", s.Transcript())
	assert.Equal(t, before, s.Segments())
}

func TestStudio_FailedOperationClearsBusyFlag(t *testing.T) {
	// Arrange
	tr := &fakeTranscriber{err: fmt.Errorf("backend down")}
	s := newTestStudio(tr, &fakeSynthesizer{})
	stageAudio(s, 2.0)

	// Act
	first := s.TranscribeAudio(context.Background())
	second := s.TranscribeAudio(context.Background())

	// Assert: the second attempt reaches the backend instead of being
	// rejected as concurrent.
	require.Error(t, first)
	require.Error(t, second)
	assert.NotContains(t, second.Error(), "in progress")
	assert.Equal(t, 2, tr.calls)
}

func TestStudio_RejectsConcurrentOperations(t *testing.T) {
	// Arrange
	s := newTestStudio(&fakeTranscriber{}, &fakeSynthesizer{})
	stageAudio(s, 2.0)
	s.busy = true

	// Act
	err := s.TranscribeAudio(context.Background())

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in progress")
}

func TestStudio_GenerateSpeech_StoresAudioAndCaptions(t *testing.T) {
	// Arrange: 2 seconds of synthesized PCM, re-transcribed into two spans.
	pcm := make([]byte, 64000)
	tr := &fakeTranscriber{result: transcribe.Result{
		Text: "hello world again",
		Spans: []segment.TimedSpan{
			{Start: 0.0, End: 1.0, Text: "hello world"},
			{Start: 1.0, End: 2.0, Text: "again"},
		},
	}}
	s := newTestStudio(tr, &fakeSynthesizer{pcm: pcm})

	// Act
	err := s.GenerateSpeech(context.Background(), "hello world again", "narrator")

	// Assert
	require.NoError(t, err)
	assert.InDelta(t, 2.0, s.Duration(), 1e-9)
	assert.NotEmpty(t, s.Segments())
	assert.Equal(t, "hello world again", s.Transcript())

	// The staged audio is WAV-wrapped PCM, and the re-transcription was
	// sent a WAV container too.
	assert.Equal(t, "RIFF", string(s.EncodedAudio()[0:4]))
	assert.Equal(t, "RIFF", string(tr.gotAudio[0:4]))
	assert.Equal(t, "audio/wav", tr.gotMime)
}

func TestStudio_GenerateSpeech_ChunksWhenRetranscriptionFails(t *testing.T) {
	// Arrange
	pcm := make([]byte, 64000)
	tr := &fakeTranscriber{err: fmt.Errorf("transcription unavailable")}
	s := newTestStudio(tr, &fakeSynthesizer{pcm: pcm})
	text := strings.TrimSpace(strings.Repeat("word ", 30))

	// Act
	err := s.GenerateSpeech(context.Background(), text, "narrator")

	// Assert: fixed-size chunks spread over the measured duration.
	require.NoError(t, err)
	segments := s.Segments()
	require.NotEmpty(t, segments)
	chunkWords := s.cfg.GetCaptionChunkWords()
	for _, seg := range segments {
		assert.LessOrEqual(t, len(strings.Fields(seg.Text)), chunkWords)
	}
	assert.Equal(t, 0.0, segments[0].Start)
	assert.InDelta(t, 2.0, segments[len(segments)-1].End, 1e-9)
}

func TestStudio_GenerateSpeech_RejectsTooShortAudio(t *testing.T) {
	// Arrange: the backend returns 0.1s of PCM.
	s := newTestStudio(&fakeTranscriber{}, &fakeSynthesizer{pcm: make([]byte, 3200)})

	// Act
	err := s.GenerateSpeech(context.Background(), "hi", "narrator")

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
	assert.Empty(t, s.Segments())
	assert.Zero(t, s.Duration())
}

func TestStudio_GenerateDialogue_RejectsTooShortAudio(t *testing.T) {
	// Arrange
	sy := &fakeSynthesizer{dialogue: tts.DialogueResult{Audio: make([]byte, 3200)}}
	s := newTestStudio(&fakeTranscriber{}, sy)

	// Act
	err := s.GenerateDialogue(context.Background(), "[ALEX]: Hello\n[JAMIE]: Hi")

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
	assert.Empty(t, s.Segments())
}

func TestStudio_GenerateSpeech_RejectsEmptyText(t *testing.T) {
	// Arrange
	s := newTestStudio(&fakeTranscriber{}, &fakeSynthesizer{})

	// Act
	err := s.GenerateSpeech(context.Background(), "", "narrator")

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text is empty")
}

func TestStudio_GenerateSpeech_RejectsOverlongText(t *testing.T) {
	// Arrange
	s := newTestStudio(&fakeTranscriber{}, &fakeSynthesizer{})
	text := strings.Repeat("a", s.cfg.GetMaxScriptChars()+1)

	// Act
	err := s.GenerateSpeech(context.Background(), text, "narrator")

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "character limit")
}

func TestStudio_GenerateDialogue_AssignsSpeakersFromMeasuredTimings(t *testing.T) {
	// Arrange: two lines, 3 seconds of assembled audio, measured timings.
	dialoguePCM := make([]byte, 96000)
	sy := &fakeSynthesizer{dialogue: tts.DialogueResult{
		Audio: dialoguePCM,
		Timings: []speaker.Timing{
			{Speaker: "ALEX", StartTime: 0.2, EndTime: 1.2},
			{Speaker: "JAMIE", StartTime: 2.2, EndTime: 3.0},
		},
	}}
	tr := &fakeTranscriber{result: transcribe.Result{
		Text: "hello there hi alex",
		Spans: []segment.TimedSpan{
			{Start: 0.2, End: 1.2, Text: "hello there"},
			{Start: 2.2, End: 3.0, Text: "hi alex"},
		},
	}}
	s := newTestStudio(tr, sy)

	// Act
	err := s.GenerateDialogue(context.Background(), "[ALEX]: Hello there\n[JAMIE]: Hi Alex")

	// Assert
	require.NoError(t, err)
	segments := s.Segments()
	require.Len(t, segments, 2)
	assert.Equal(t, "ALEX", segments[0].Speaker)
	assert.Equal(t, "JAMIE", segments[1].Speaker)
	assert.Equal(t, []string{"ALEX", "JAMIE"}, s.Characters())
	assert.InDelta(t, 3.0, s.Duration(), 1e-9)

	// One synthesis request per tagged line, speaker carried through.
	require.Len(t, sy.gotSegments, 2)
	assert.Equal(t, "ALEX", sy.gotSegments[0].Voice)
	assert.Equal(t, "Hello there", sy.gotSegments[0].Text)
}

func TestStudio_GenerateDialogue_RejectsUntaggedScript(t *testing.T) {
	// Arrange
	s := newTestStudio(&fakeTranscriber{}, &fakeSynthesizer{})

	// Act
	err := s.GenerateDialogue(context.Background(), "just some untagged prose")

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tagged lines")
}

func TestStudio_ApplyScript_EstimationPath(t *testing.T) {
	// Arrange: transcribed segments already present, no measured timings.
	tr := &fakeTranscriber{result: transcribe.Result{
		Text: "hello there hi alex",
		Spans: []segment.TimedSpan{
			{Start: 0.2, End: 1.6, Text: "hello there"},
			{Start: 2.6, End: 4.0, Text: "hi alex"},
		},
	}}
	s := newTestStudio(tr, &fakeSynthesizer{})
	stageAudio(s, 4.0)
	require.NoError(t, s.TranscribeAudio(context.Background()))

	// Act
	err := s.ApplyScript("[ALEX]: Hello there\n[JAMIE]: Hi Alex now")

	// Assert
	require.NoError(t, err)
	segments := s.Segments()
	require.Len(t, segments, 2)
	assert.Equal(t, "ALEX", segments[0].Speaker)
	assert.Equal(t, "JAMIE", segments[1].Speaker)
}

func TestStudio_ApplyScript_RequiresSegments(t *testing.T) {
	// Arrange
	s := newTestStudio(&fakeTranscriber{}, &fakeSynthesizer{})

	// Act
	err := s.ApplyScript("[ALEX]: Hello")

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcribe audio first")
}

func TestStudio_Export_RequiresAudioAndContent(t *testing.T) {
	// Arrange
	s := newTestStudio(&fakeTranscriber{}, &fakeSynthesizer{})

	// Act & Assert: no audio at all.
	_, err := s.Export(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no audio loaded")

	// Audio staged but nothing transcribed or generated.
	stageAudio(s, 2.0)
	_, err = s.Export(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to render")
}

func TestStudio_Segments_ReturnsCopy(t *testing.T) {
	// Arrange
	tr := &fakeTranscriber{result: transcribe.Result{
		Text:  "hello",
		Spans: []segment.TimedSpan{{Start: 0.0, End: 2.0, Text: "hello"}},
	}}
	s := newTestStudio(tr, &fakeSynthesizer{})
	stageAudio(s, 2.0)
	require.NoError(t, s.TranscribeAudio(context.Background()))

	// Act
	got := s.Segments()
	got[0].Text = "mutated"

	// Assert
	assert.Equal(t, "hello", s.Segments()[0].Text)
}

func TestStudio_SetArtwork(t *testing.T) {
	// Arrange
	s := newTestStudio(&fakeTranscriber{}, &fakeSynthesizer{})

	// Act
	s.SetArtwork("ALEX", nil)

	// Assert
	assert.Contains(t, s.artwork, "ALEX")
}
