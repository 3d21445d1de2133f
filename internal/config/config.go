package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Configuration provides type-safe access to application settings
type Configuration struct {
	viper *viper.Viper
}

// setDefaults applies the tuned policy defaults. The caption thresholds
// are policy parameters, not law: different caption-density goals want
// different values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("transcribe.base_url", "https://api.openai.com")
	v.SetDefault("transcribe.model", "whisper-1")
	v.SetDefault("tts.base_url", "https://api.fish.audio")

	v.SetDefault("caption.min_duration", 0.4)
	v.SetDefault("caption.max_words", 18)
	v.SetDefault("caption.chunk_words", 12)
	v.SetDefault("caption.max_lines", 4)
	v.SetDefault("caption.min_font_size", 56.0)
	v.SetDefault("caption.max_font_size", 220.0)

	v.SetDefault("lookup.lead_in", 0.05)
	v.SetDefault("lookup.tail_out", 0.08)
	v.SetDefault("lookup.hold", 0.25)

	v.SetDefault("timing.leading_silence", 0.2)
	v.SetDefault("timing.speaker_pause", 1.0)

	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.bar_count", 64)

	v.SetDefault("export.width", 1080)
	v.SetDefault("export.height", 1920)
	v.SetDefault("export.frame_rate", 30)
	v.SetDefault("export.target_format", "mp4")

	v.SetDefault("background.drift_enabled", true)

	v.SetDefault("limits.max_script_chars", 5000)

	v.SetDefault("debug.enabled", false)
}

// NewConfiguration creates a new Configuration instance with default settings
func NewConfiguration() *Configuration {
	v := viper.New()
	setDefaults(v)
	return &Configuration{viper: v}
}

// NewConfigurationFromFile creates a Configuration instance from a config file
func NewConfigurationFromFile(configFile string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	return &Configuration{viper: v}, nil
}

// NewConfigurationFromEnv creates a Configuration instance that reads from environment variables
func NewConfigurationFromEnv() (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	// Set up environment variable mapping
	v.SetEnvPrefix("AUDIOGRAM")
	v.AutomaticEnv()

	// Map specific environment variables
	v.BindEnv("transcribe.base_url", "TRANSCRIBE_BASE_URL")
	v.BindEnv("transcribe.api_key", "TRANSCRIBE_API_KEY")
	v.BindEnv("transcribe.model", "TRANSCRIBE_MODEL")
	v.BindEnv("tts.base_url", "TTS_BASE_URL")
	v.BindEnv("tts.api_key", "TTS_API_KEY")

	return &Configuration{viper: v}, nil
}

// GetTranscribeBaseURL returns the transcription service endpoint
func (c *Configuration) GetTranscribeBaseURL() string {
	return c.viper.GetString("transcribe.base_url")
}

// GetTranscribeAPIKey returns the transcription service credential
func (c *Configuration) GetTranscribeAPIKey() string {
	return c.viper.GetString("transcribe.api_key")
}

// GetTranscribeModel returns the transcription model identifier
func (c *Configuration) GetTranscribeModel() string {
	return c.viper.GetString("transcribe.model")
}

// GetTTSBaseURL returns the text-to-speech service endpoint
func (c *Configuration) GetTTSBaseURL() string {
	return c.viper.GetString("tts.base_url")
}

// GetTTSAPIKey returns the text-to-speech service credential
func (c *Configuration) GetTTSAPIKey() string {
	return c.viper.GetString("tts.api_key")
}

// GetCaptionMinDuration returns the coalesce threshold in seconds
func (c *Configuration) GetCaptionMinDuration() float64 {
	return c.viper.GetFloat64("caption.min_duration")
}

// GetCaptionMaxWords returns the word ceiling for dictation captions
func (c *Configuration) GetCaptionMaxWords() int {
	return c.viper.GetInt("caption.max_words")
}

// GetCaptionChunkWords returns the fixed chunk size for synthesized-speech captions
func (c *Configuration) GetCaptionChunkWords() int {
	return c.viper.GetInt("caption.chunk_words")
}

// GetCaptionMaxLines returns the caption line budget
func (c *Configuration) GetCaptionMaxLines() int {
	return c.viper.GetInt("caption.max_lines")
}

// GetCaptionMinFontSize returns the lower font sizing bound
func (c *Configuration) GetCaptionMinFontSize() float64 {
	return c.viper.GetFloat64("caption.min_font_size")
}

// GetCaptionMaxFontSize returns the upper font sizing bound
func (c *Configuration) GetCaptionMaxFontSize() float64 {
	return c.viper.GetFloat64("caption.max_font_size")
}

// GetLookupLeadIn returns the caption lead-in tolerance in seconds
func (c *Configuration) GetLookupLeadIn() float64 {
	return c.viper.GetFloat64("lookup.lead_in")
}

// GetLookupTailOut returns the caption tail-out tolerance in seconds
func (c *Configuration) GetLookupTailOut() float64 {
	return c.viper.GetFloat64("lookup.tail_out")
}

// GetLookupHold returns the hold-across-gap threshold in seconds
func (c *Configuration) GetLookupHold() float64 {
	return c.viper.GetFloat64("lookup.hold")
}

// GetLeadingSilence returns the assumed silence before the first spoken line
func (c *Configuration) GetLeadingSilence() float64 {
	return c.viper.GetFloat64("timing.leading_silence")
}

// GetSpeakerPause returns the silence inserted at every speaker change
func (c *Configuration) GetSpeakerPause() float64 {
	return c.viper.GetFloat64("timing.speaker_pause")
}

// GetSampleRate returns the PCM sample rate in Hz
func (c *Configuration) GetSampleRate() int {
	return c.viper.GetInt("audio.sample_rate")
}

// GetBarCount returns the number of waveform bars per frame
func (c *Configuration) GetBarCount() int {
	return c.viper.GetInt("audio.bar_count")
}

// GetExportWidth returns the output frame width in pixels
func (c *Configuration) GetExportWidth() int {
	return c.viper.GetInt("export.width")
}

// GetExportHeight returns the output frame height in pixels
func (c *Configuration) GetExportHeight() int {
	return c.viper.GetInt("export.height")
}

// GetExportFrameRate returns the output frame rate
func (c *Configuration) GetExportFrameRate() int {
	return c.viper.GetInt("export.frame_rate")
}

// GetExportTargetFormat returns the delivery container format
func (c *Configuration) GetExportTargetFormat() string {
	return c.viper.GetString("export.target_format")
}

// GetBackgroundDriftEnabled reports whether the background gradient drifts
// across the palette over the clip
func (c *Configuration) GetBackgroundDriftEnabled() bool {
	return c.viper.GetBool("background.drift_enabled")
}

// GetMaxScriptChars returns the script character limit
func (c *Configuration) GetMaxScriptChars() int {
	return c.viper.GetInt("limits.max_script_chars")
}

// GetDebugMode reports whether verbose debug logging is enabled
func (c *Configuration) GetDebugMode() bool {
	return c.viper.GetBool("debug.enabled")
}
