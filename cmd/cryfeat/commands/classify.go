// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ik5/cryfeat"
)

var (
	classifyVariant string
	classifyJSON    bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify <file|->",
	Short: "Classify a clip with the served model of a variant",
	Long: `Extract the features of a clip and send them to the TensorFlow Serving
model configured for the variant (model.endpoint and model.names in the
config file). The classes come from the labels section of the config.

Examples:
  cryfeat classify cry.wav
  cryfeat classify -V combined --json cry.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	addVariantFlag(classifyCmd, &classifyVariant)
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "print the prediction as JSON")

	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	v, err := cryfeat.ParseVariant(classifyVariant)
	if err != nil {
		return err
	}

	cfg, p, err := newPipeline()
	if err != nil {
		return err
	}

	c, err := cfg.Classifier(v, p, slog.Default())
	if err != nil {
		return err
	}

	in, err := openInput(cmd, args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	pred, err := c.Classify(cmd.Context(), in)
	if err != nil {
		return err
	}

	if classifyJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(pred)
	}

	_, err = io.WriteString(cmd.OutOrStdout(), renderPrediction(pred))
	return err
}
