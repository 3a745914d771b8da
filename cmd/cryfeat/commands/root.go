// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ik5/cryfeat"
	"github.com/ik5/cryfeat/internal/config"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Global configuration (loaded at init time)
	globalConfig *config.File
)

var rootCmd = &cobra.Command{
	Use:   "cryfeat",
	Short: "Baby-cry audio feature extraction",
	Long: `cryfeat - turn a recorded cry into the feature tensors of the cry
classification models, and classify it.

Every clip is decoded (WAV, AIFF, FLAC, MP3 or Ogg Vorbis), mixed down to
mono, resampled to 16 kHz and fixed to four seconds before one of the
feature variants runs:

  mel       128x128 log-mel spectrogram
  mfcc      100 frames of 40 standardized MFCCs
  combined  chroma, tonnetz and spectral contrast means

Examples:
  cryfeat extract -V mel cry.wav
  cryfeat extract -V mfcc -f msgpack -o cry.msgpack cry.mp3
  cryfeat classify -V combined cry.flac
  cryfeat serve --config cryfeat.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $"+config.EnvPath+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

func initConfig() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(configPath)
	if err != nil {
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// GetConfig returns the global configuration.
func GetConfig() (*config.File, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// newPipeline builds the extraction pipeline the config describes.
func newPipeline() (*config.File, *cryfeat.Pipeline, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, nil, err
	}

	pc, err := cfg.Pipeline()
	if err != nil {
		return nil, nil, err
	}

	p, err := cryfeat.NewPipeline(pc, cryfeat.WithLogger(slog.Default()))
	if err != nil {
		return nil, nil, err
	}

	return cfg, p, nil
}

// openInput opens path, or stdin for "-".
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}

// addVariantFlag registers --variant/-V on cmd.
func addVariantFlag(cmd *cobra.Command, v *string) {
	cmd.Flags().StringVarP(v, "variant", "V", string(cryfeat.VariantMel), "feature variant: mel, mfcc or combined")
}
