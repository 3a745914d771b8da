// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ik5/cryfeat/audio"
	"github.com/ik5/cryfeat/formats/wav"
)

var (
	fixOutput string
	fixBits   int
)

var fixCmd = &cobra.Command{
	Use:   "fix <file|->",
	Short: "Write the fixed-length mono WAV the models are fed",
	Long: `Decode a clip, mix it down to mono, resample it to the configured rate and
pad or truncate it to the configured duration, then write it as PCM WAV.
Use "-o -" to stream a 16-bit WAV to stdout.

Examples:
  cryfeat fix -o fixed.wav cry.mp3
  cryfeat fix --bits 24 -o fixed.wav cry.flac`,
	Args: cobra.ExactArgs(1),
	RunE: runFix,
}

func init() {
	fixCmd.Flags().StringVarP(&fixOutput, "output", "o", "", "output WAV file, - for stdout (required)")
	fixCmd.Flags().IntVar(&fixBits, "bits", 16, "bit depth: 16 or 24")
	_ = fixCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(fixCmd)
}

func runFix(cmd *cobra.Command, args []string) error {
	_, p, err := newPipeline()
	if err != nil {
		return err
	}

	in, err := openInput(cmd, args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	b, err := p.Load(cmd.Context(), in)
	if err != nil {
		return err
	}

	b, err = audio.FixLength(b, p.Config().Samples())
	if err != nil {
		return err
	}

	if fixOutput == "-" {
		if fixBits != 16 {
			return fmt.Errorf("stdout output is 16-bit only, got --bits %d", fixBits)
		}
		return wav.WriteBuffer(cmd.OutOrStdout(), b)
	}

	f, err := os.Create(fixOutput)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}

	if err := wav.Encode(f, b, fixBits); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
