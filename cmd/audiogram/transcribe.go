package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"audiogram/internal/app"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Transcribe an audio file into timed caption segments",
	RunE:  runTranscribe,
}

func init() {
	transcribeCmd.Flags().StringP("audio", "a", "", "Path to the audio file")
	transcribeCmd.Flags().StringP("out", "o", "", "Path for the caption JSON (default: stdout)")
	transcribeCmd.MarkFlagRequired("audio")
}

// runTranscribe loads an audio file, transcribes it, and writes the
// normalized caption segments as JSON
func runTranscribe(command *cobra.Command, args []string) error {
	audioPath, _ := command.Flags().GetString("audio")
	outPath, _ := command.Flags().GetString("out")

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	studio := app.NewStudio(cfg, log)

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

	data, err := json.MarshalIndent(studio.Segments(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal captions: %w", err)
	}

	if outPath == "" {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write captions: %w", err)
	}

	log.Info("captions written",
		zap.String("path", outPath),
		zap.Int("segment_count", len(studio.Segments())))
	return nil
}

// mimeForPath maps a file extension to the mime hint passed to the
// transcription service
func mimeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".webm":
		return "audio/webm"
	case ".ogg":
		return "audio/ogg"
	case ".m4a", ".mp4":
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}
