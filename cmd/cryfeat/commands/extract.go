// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ik5/cryfeat"
	"github.com/ik5/cryfeat/tensor"
)

var (
	extractVariant string
	extractFormat  string
	extractOutput  string
	extractBatch   bool
	extractSummary bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file|->",
	Short: "Extract the feature tensor of a clip",
	Long: `Extract the feature tensor of one variant.

The tensor is written as JSON ({"shape":[...],"data":[...]}), MessagePack,
or raw little-endian float16 values (f16). Use --batch to add the leading
batch axis the models take, and --summary for a short human readable line.

Examples:
  cryfeat extract -V mel cry.wav
  cryfeat extract -V mfcc -f msgpack -o cry.msgpack cry.wav
  cat cry.wav | cryfeat extract -V combined --summary -`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	addVariantFlag(extractCmd, &extractVariant)
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", string(tensor.EncodingJSON), "output encoding: json, msgpack or f16")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "output file (default stdout)")
	extractCmd.Flags().BoolVar(&extractBatch, "batch", false, "add the model batch axes")
	extractCmd.Flags().BoolVar(&extractSummary, "summary", false, "print the shape and value range instead of the tensor")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	v, err := cryfeat.ParseVariant(extractVariant)
	if err != nil {
		return err
	}
	enc, err := tensor.ParseEncoding(extractFormat)
	if err != nil {
		return err
	}

	_, p, err := newPipeline()
	if err != nil {
		return err
	}

	in, err := openInput(cmd, args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	t, err := p.Extract(cmd.Context(), v, in)
	if err != nil {
		return err
	}

	if extractBatch {
		if t, err = cryfeat.Batch(v, t); err != nil {
			return err
		}
	}

	if extractSummary {
		_, err := io.WriteString(cmd.OutOrStdout(), renderSummary(args[0], t))
		return err
	}

	var buf bytes.Buffer
	if err := tensor.Encode(&buf, t, enc); err != nil {
		return err
	}

	if extractOutput == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}

	if err := os.WriteFile(extractOutput, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if enc == tensor.EncodingFloat16 {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s float16 tensor of shape %s\n", extractOutput, t.String())
	}

	return nil
}
