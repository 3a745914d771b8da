// SPDX-License-Identifier: EPL-2.0

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ik5/cryfeat"
	"github.com/ik5/cryfeat/internal/audiotest"
	"github.com/ik5/cryfeat/labels"
	"github.com/ik5/cryfeat/predict"
	"github.com/ik5/cryfeat/tensor"
)

func newTestServer(t *testing.T, model predict.Model, silence cryfeat.SilencePolicy) *httptest.Server {
	t.Helper()

	cfg := cryfeat.DefaultConfig()
	cfg.Silence = silence

	p, err := cryfeat.NewPipeline(cfg)
	if err != nil {
		t.Fatal(err)
	}

	srv, err := New(Options{
		Pipeline: p,
		Classifiers: map[cryfeat.Variant]*predict.Classifier{
			cryfeat.VariantMFCC: {Extractor: p, Variant: cryfeat.VariantMFCC, Model: model, Labels: labels.Default()},
		},
		Timeout:        5 * time.Second,
		MaxUploadBytes: 1 << 20,
	})
	if err != nil {
		t.Fatal(err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return ts
}

func fixedModel(probs ...float32) predict.Model {
	return predict.Func(func(context.Context, tensor.Tensor) ([]float32, error) {
		return probs, nil
	})
}

func post(t *testing.T, url, contentType string, body []byte) *http.Response {
	t.Helper()

	resp, err := http.Post(url, contentType, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func TestHealth(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, fixedModel(1), cryfeat.SilenceZero)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if _, err := uuid.Parse(resp.Header.Get(RequestIDHeader)); err != nil {
		t.Errorf("request id %q: %v", resp.Header.Get(RequestIDHeader), err)
	}
}

func TestRequestID_Propagated(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, fixedModel(1), cryfeat.SilenceZero)
	id := uuid.NewString()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, id)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get(RequestIDHeader); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}
}

func TestExtract(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, fixedModel(1), cryfeat.SilenceZero)
	clip := audiotest.SineWAV(16000, 1, 440, 0.5)

	resp := post(t, ts.URL+"/v1/extract/combined", "audio/wav", clip)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	got, err := tensor.Decode(resp.Body, tensor.EncodingJSON)
	if err != nil {
		t.Fatal(err)
	}
	if err := got.CheckShape(1, 25, 1); err != nil {
		t.Error(err)
	}
}

func TestExtract_Msgpack(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, fixedModel(1), cryfeat.SilenceZero)
	clip := audiotest.SineWAV(16000, 1, 440, 0.5)

	resp := post(t, ts.URL+"/v1/extract/mfcc?format=msgpack", "audio/wav", clip)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/msgpack" {
		t.Errorf("content type = %q", ct)
	}

	got, err := tensor.Decode(resp.Body, tensor.EncodingMsgpack)
	if err != nil {
		t.Fatal(err)
	}
	if err := got.CheckShape(100, 40); err != nil {
		t.Error(err)
	}
}

func TestClassify_Multipart(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, fixedModel(0.1, 0.1, 0.6, 0.1, 0.1), cryfeat.SilenceZero)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "cry.wav")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(audiotest.SineWAV(16000, 1, 440, 0.5))
	mw.Close()

	resp := post(t, ts.URL+"/v1/classify/mfcc", mw.FormDataContentType(), body.Bytes())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got struct {
		RequestID  string  `json:"request_id"`
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}

	// classes sort to belly_pain, burping, discomfort, hungry, tired
	if got.Label != "discomfort" {
		t.Errorf("label = %q, want discomfort", got.Label)
	}
	if got.Confidence < 59.99 || got.Confidence > 60.01 {
		t.Errorf("confidence = %v, want 60", got.Confidence)
	}
	if got.RequestID != resp.Header.Get(RequestIDHeader) {
		t.Errorf("body request id %q != header %q", got.RequestID, resp.Header.Get(RequestIDHeader))
	}
}

func TestErrors(t *testing.T) {
	t.Parallel()

	panicky := predict.Func(func(context.Context, tensor.Tensor) ([]float32, error) {
		panic("model exploded")
	})

	tests := []struct {
		name    string
		path    string
		body    []byte
		model   predict.Model
		silence cryfeat.SilencePolicy
		status  int
		kind    string
	}{
		{name: "unknown variant", path: "/v1/extract/cqt", body: audiotest.SineWAV(16000, 1, 440, 0.5), status: http.StatusNotFound, kind: "unknown_variant"},
		{name: "unknown format", path: "/v1/extract/mel", body: []byte("definitely not audio"), status: http.StatusUnsupportedMediaType, kind: "decode"},
		{name: "empty body", path: "/v1/extract/mel", body: nil, status: http.StatusBadRequest, kind: "decode"},
		{name: "silent clip rejected", path: "/v1/extract/mfcc", body: audiotest.SilentWAV(16000, 1), silence: cryfeat.SilenceReject, status: http.StatusUnprocessableEntity, kind: "degenerate_signal"},
		{name: "too large", path: "/v1/extract/mel", body: make([]byte, 1<<20+512), status: http.StatusRequestEntityTooLarge, kind: "too_large"},
		{name: "no model", path: "/v1/classify/mel", body: audiotest.SineWAV(16000, 1, 440, 0.5), status: http.StatusServiceUnavailable, kind: "no_model"},
		{name: "label count", path: "/v1/classify/mfcc", body: audiotest.SineWAV(16000, 1, 440, 0.5), model: fixedModel(0.5, 0.5), status: http.StatusInternalServerError, kind: "internal"},
		{name: "panic", path: "/v1/classify/mfcc", body: audiotest.SineWAV(16000, 1, 440, 0.5), model: panicky, status: http.StatusInternalServerError, kind: "internal"},
		{name: "bad format", path: "/v1/extract/mel?format=npy", body: audiotest.SineWAV(16000, 1, 440, 0.5), status: http.StatusBadRequest, kind: "bad_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			model := tt.model
			if model == nil {
				model = fixedModel(0.2, 0.2, 0.2, 0.2, 0.2)
			}
			ts := newTestServer(t, model, tt.silence)

			resp := post(t, ts.URL+tt.path, "application/octet-stream", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}

			var got errorBody
			if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
				t.Fatal(err)
			}
			if got.Kind != tt.kind {
				t.Errorf("kind = %q, want %q", got.Kind, tt.kind)
			}
			if got.RequestID == "" || got.Error == "" {
				t.Errorf("error body = %+v", got)
			}
		})
	}
}

func TestServer_StillServesAfterPanic(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	model := predict.Func(func(context.Context, tensor.Tensor) ([]float32, error) {
		if calls.Add(1) == 1 {
			panic("first request only")
		}
		return []float32{1, 0, 0, 0, 0}, nil
	})
	ts := newTestServer(t, model, cryfeat.SilenceZero)
	clip := audiotest.SineWAV(16000, 1, 440, 0.5)

	if resp := post(t, ts.URL+"/v1/classify/mfcc", "audio/wav", clip); resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("first status = %d", resp.StatusCode)
	}
	if resp := post(t, ts.URL+"/v1/classify/mfcc", "audio/wav", clip); resp.StatusCode != http.StatusOK {
		t.Errorf("second status = %d", resp.StatusCode)
	}
}

func TestNew_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{MaxUploadBytes: 1}); err == nil {
		t.Error("New() without a pipeline succeeded")
	}

	p, err := cryfeat.NewPipeline(cryfeat.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(Options{Pipeline: p}); err == nil {
		t.Error("New() without an upload limit succeeded")
	}
}

func TestListenAndServe_Shutdown(t *testing.T) {
	t.Parallel()

	p, err := cryfeat.NewPipeline(cryfeat.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	srv, err := New(Options{Pipeline: p, MaxUploadBytes: 1 << 20})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe() did not return after cancel")
	}
}
