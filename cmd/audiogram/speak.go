package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"audiogram/internal/app"
	"audiogram/internal/script"
)

var speakCmd = &cobra.Command{
	Use:   "speak",
	Short: "Synthesize speech from a script and emit audio plus captions",
	Long: `Synthesizes audio from text. A script containing "[NAME]: text" lines
is treated as a multi-speaker dialogue: each speaker gets its own voice
and the captions carry speaker attribution from measured line timings.`,
	RunE: runSpeak,
}

func init() {
	speakCmd.Flags().StringP("script", "s", "", "Path to the script or text file")
	speakCmd.Flags().StringP("voice", "v", "", "Voice identifier for single-voice synthesis")
	speakCmd.Flags().StringP("out", "o", "narration.wav", "Path for the synthesized audio")
	speakCmd.Flags().String("captions", "", "Path for the caption JSON (default: <out>.captions.json)")
	speakCmd.MarkFlagRequired("script")
}

// runSpeak synthesizes the script and writes the audio and caption files
func runSpeak(command *cobra.Command, args []string) error {
	scriptPath, _ := command.Flags().GetString("script")
	voice, _ := command.Flags().GetString("voice")
	outPath, _ := command.Flags().GetString("out")
	captionsPath, _ := command.Flags().GetString("captions")
	if captionsPath == "" {
		captionsPath = outPath + ".captions.json"
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	text, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}

	studio := app.NewStudio(cfg, log)

	parsed := script.NewParserWithLogger(log).Parse(string(text))
	if parsed.IsMultiSpeaker() {
		log.Info("script is multi-speaker, synthesizing dialogue",
			zap.Strings("characters", parsed.Characters))
		err = studio.GenerateDialogue(ctx, string(text))
	} else {
		err = studio.GenerateSpeech(ctx, string(text), voice)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, studio.EncodedAudio(), 0644); err != nil {
		return fmt.Errorf("failed to write audio: %w", err)
	}

	captions, err := json.MarshalIndent(studio.Segments(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal captions: %w", err)
	}
	if err := os.WriteFile(captionsPath, captions, 0644); err != nil {
		return fmt.Errorf("failed to write captions: %w", err)
	}

	log.Info("synthesis complete",
		zap.String("audio_path", outPath),
		zap.String("captions_path", captionsPath),
		zap.Float64("duration", studio.Duration()))
	return nil
}
