// SPDX-License-Identifier: EPL-2.0

// Package server exposes feature extraction and classification over HTTP.
//
//	POST /v1/extract/{variant}   audio body or multipart "file" -> tensor
//	POST /v1/classify/{variant}  audio body or multipart "file" -> prediction
//	GET  /healthz
//
// Every request gets an X-Request-ID and runs behind its own recover
// boundary, so one bad clip never affects the next.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/ik5/cryfeat"
	"github.com/ik5/cryfeat/predict"
)

// Options configures a Server.
type Options struct {
	Pipeline *cryfeat.Pipeline
	// Classifiers by variant; variants without one answer 503 on classify.
	Classifiers map[cryfeat.Variant]*predict.Classifier
	Logger      *slog.Logger
	// Timeout bounds each request; 0 disables it.
	Timeout        time.Duration
	MaxUploadBytes int64
}

// Server holds the routes and shared, read-only collaborators.
type Server struct {
	opts Options
	log  *slog.Logger
	mux  *http.ServeMux
}

// New validates opts and registers the routes.
func New(opts Options) (*Server, error) {
	if opts.Pipeline == nil {
		return nil, errors.New("server: pipeline is required")
	}
	if opts.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("server: max upload bytes %d", opts.MaxUploadBytes)
	}

	s := &Server{opts: opts, log: opts.Logger, mux: http.NewServeMux()}
	if s.log == nil {
		s.log = slog.Default()
	}

	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /v1/extract/{variant}", s.handleExtract)
	s.mux.HandleFunc("POST /v1/classify/{variant}", s.handleClassify)
}

// Handler returns the routes wrapped in request IDs, the recover boundary
// and the request timeout.
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.withRecover(s.withTimeout(s.mux)))
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("server: listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.log.Info("server: stopped")

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) variant(r *http.Request) (cryfeat.Variant, error) {
	return cryfeat.ParseVariant(r.PathValue("variant"))
}

// readAudio returns the uploaded clip from a multipart "file" field or the
// raw body, capped at MaxUploadBytes.
func (s *Server) readAudio(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return io.ReadAll(r.Body)
	}

	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadUpload, err)
	}
	defer f.Close()

	return io.ReadAll(f)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	v, err := s.variant(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	data, err := s.readAudio(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	t, err := s.opts.Pipeline.Extract(r.Context(), v, bytes.NewReader(data))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.log.Debug("server: extracted", "request_id", requestID(r.Context()), "variant", v, "shape", t.String())

	writeTensor(w, r, t)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	v, err := s.variant(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	c, ok := s.opts.Classifiers[v]
	if !ok {
		s.fail(w, r, fmt.Errorf("%w: %s", errNoModel, v))
		return
	}

	data, err := s.readAudio(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	p, err := c.Classify(r.Context(), bytes.NewReader(data))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.log.Info("server: classified", "request_id", requestID(r.Context()), "variant", v, "label", p.Label, "confidence", p.Confidence)

	writeJSON(w, http.StatusOK, struct {
		RequestID string `json:"request_id"`
		*predict.Prediction
	}{RequestID: requestID(r.Context()), Prediction: p})
}
