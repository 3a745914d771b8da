// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/cryfeat/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve extraction and classification over HTTP",
	Long: `Start the HTTP server.

Routes:
  POST /v1/extract/{variant}   audio body or multipart "file" field
  POST /v1/classify/{variant}  audio body or multipart "file" field
  GET  /healthz

Extraction answers with the JSON tensor; add ?format=msgpack or ?format=f16
for the binary encodings. Classification needs model.endpoint in the config.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.addr from the config)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, p, err := newPipeline()
	if err != nil {
		return err
	}

	classifiers, err := cfg.Classifiers(p, slog.Default())
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Pipeline:       p,
		Classifiers:    classifiers,
		Logger:         slog.Default(),
		Timeout:        time.Duration(cfg.Server.Timeout),
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx, addr)
}
