package main

import (
	"github.com/spf13/cobra"

	"github.com/selahapp/selah/internal/api"
	"github.com/selahapp/selah/version"
)

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "selah",
	Short: "Personalized devotional content server",
	Long: `Selah generates personalized devotional bundles for Bible verses using
LLM text generation, image rendering, and text-to-speech.

A bundle includes:
  - A verse interpretation with hero image
  - Historical and theological context
  - Contemporary and historical stories
  - Classic and free verse poetry
  - Key imagery studies and an original worship song

Content is personalized by age range, life situation, style, and language,
and cached so repeat requests return instantly.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.selah/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
