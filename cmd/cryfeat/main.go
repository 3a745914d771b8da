// SPDX-License-Identifier: EPL-2.0

// Command cryfeat extracts baby-cry audio features and classifies clips.
//
// Usage:
//
//	cryfeat [flags] <command> [args]
//
// Commands:
//
//	extract   - Extract the mel, mfcc or combined feature tensor of a clip
//	classify  - Classify a clip with a TensorFlow Serving model
//	fix       - Write the fixed-length 16 kHz mono WAV the models expect
//	serve     - Serve extraction and classification over HTTP
//	version   - Print the build version
//
// Configuration:
//
//	Pass --config or set CRYFEAT_CONFIG to a YAML file. Without either the
//	built-in defaults are used.
package main

import (
	"fmt"
	"os"

	"github.com/ik5/cryfeat/cmd/cryfeat/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
