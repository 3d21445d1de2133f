package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "audiogram",
	Short: "Turn spoken or synthesized audio into a captioned short-form video",
	Long: `audiogram renders animated waveform videos with synchronized captions.

Audio can come from an existing recording (which is transcribed for
caption timing) or be synthesized from a script, including multi-speaker
scripts written as "[NAME]: text" lines.`,
}

// Execute runs the command tree
func Execute() error {
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(speakCmd)
	rootCmd.AddCommand(renderCmd)
	return rootCmd.Execute()
}
