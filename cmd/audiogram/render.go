package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"audiogram/internal/app"
	"audiogram/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a captioned audiogram video",
	Long: `Renders the full audiogram: animated waveform, synchronized captions,
background gradient, and optional per-speaker artwork.

With --audio, the recording is transcribed for caption timing; adding
--script attributes captions to its speakers. With only --script, the
audio is synthesized first.`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringP("audio", "a", "", "Path to an existing audio file")
	renderCmd.Flags().StringP("script", "s", "", "Path to a tagged script")
	renderCmd.Flags().StringP("voice", "v", "", "Voice identifier for single-voice synthesis")
	renderCmd.Flags().StringP("out", "o", "audiogram.mp4", "Path for the rendered video")
	renderCmd.Flags().StringArray("artwork", nil, "Speaker artwork as NAME=path (repeatable)")
}

// runRender drives the full pipeline and writes the deliverable video
func runRender(command *cobra.Command, args []string) error {
	audioPath, _ := command.Flags().GetString("audio")
	scriptPath, _ := command.Flags().GetString("script")
	voice, _ := command.Flags().GetString("voice")
	outPath, _ := command.Flags().GetString("out")
	artworkFlags, _ := command.Flags().GetStringArray("artwork")

	if audioPath == "" && scriptPath == "" {
		return fmt.Errorf("either --audio or --script is required")
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	studio := app.NewStudio(cfg, log)

	if err := loadArtwork(studio, artworkFlags); err != nil {
		return err
	}

	var scriptText string
	if scriptPath != "" {
		data, err := os.ReadFile(scriptPath)
		if err != nil {
			return fmt.Errorf("failed to read script: %w", err)
		}
		scriptText = string(data)
	}

	switch {
	case audioPath != "":
		audio, err := os.ReadFile(audioPath)
		if err != nil {
			return fmt.Errorf("failed to read audio file: %w", err)
		}
		if err := studio.LoadAudio(ctx, audio, mimeForPath(audioPath)); err != nil {
			return err
		}
		if err := studio.TranscribeAudio(ctx); err != nil {
			return err
		}
		if scriptText != "" {
			if err := studio.ApplyScript(scriptText); err != nil {
				return err
			}
		}

	case strings.Contains(scriptText, ":"):
		if err := studio.GenerateDialogue(ctx, scriptText); err != nil {
			return err
		}

	default:
		if err := studio.GenerateSpeech(ctx, scriptText, voice); err != nil {
			return err
		}
	}

	video, err := studio.Export(ctx, func(percent int) {
		fmt.Printf("\rRendering: %d%%", percent)
	})
	fmt.Println()
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, video, 0644); err != nil {
		return fmt.Errorf("failed to write video: %w", err)
	}

	log.Info("render complete",
		zap.String("path", outPath),
		zap.Int("video_bytes", len(video)))
	return nil
}

// loadArtwork decodes NAME=path artwork flags and registers them on the studio
func loadArtwork(studio *app.Studio, flags []string) error {
	for _, entry := range flags {
		name, path, ok := strings.Cut(entry, "=")
		if !ok {
			return fmt.Errorf("invalid artwork flag %q, expected NAME=path", entry)
		}
		img, err := render.LoadDrawable(path)
		if err != nil {
			return err
		}
		studio.SetArtwork(strings.ToUpper(name), img)
	}
	return nil
}
