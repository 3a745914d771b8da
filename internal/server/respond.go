// SPDX-License-Identifier: EPL-2.0

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ik5/cryfeat"
	"github.com/ik5/cryfeat/audio"
	"github.com/ik5/cryfeat/predict"
	"github.com/ik5/cryfeat/tensor"
)

var (
	errBadUpload = errors.New("bad upload")
	errNoModel   = errors.New("no model configured")
	errPanic     = errors.New("handler panic")
)

type errorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id"`
}

// classify maps an error to a status, a kind for clients and a message that
// reveals nothing internal.
func classify(err error) (int, string, string) {
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "too_large", "audio file is too large"
	case errors.Is(err, cryfeat.ErrUnknownVariant):
		return http.StatusNotFound, "unknown_variant", "unknown feature variant"
	case errors.Is(err, errNoModel):
		return http.StatusServiceUnavailable, "no_model", "no model is configured for this variant"
	case errors.Is(err, errBadUpload):
		return http.StatusBadRequest, "bad_upload", "expected the audio in a multipart field named file"
	case errors.Is(err, audio.ErrUnknownFormat):
		return http.StatusUnsupportedMediaType, "decode", "unsupported audio format"
	case errors.Is(err, cryfeat.ErrDecode):
		return http.StatusBadRequest, "decode", "could not decode the audio file"
	case errors.Is(err, cryfeat.ErrDegenerateSignal):
		return http.StatusUnprocessableEntity, "degenerate_signal", "the audio is silent"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout", "processing took too long"
	case errors.Is(err, predict.ErrModel):
		return http.StatusBadGateway, "model", "the model could not process the audio"
	}

	return http.StatusInternalServerError, "internal", "something went wrong while processing the file"
}

// fail logs the detailed error and answers with the generic one.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, kind, msg := classify(err)
	id := requestID(r.Context())

	s.log.Warn("server: request failed", "request_id", id, "path", r.URL.Path, "status", status, "kind", kind, "err", err)

	writeJSON(w, status, errorBody{Error: msg, Kind: kind, RequestID: id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeTensor honours ?format=json|msgpack|f16; JSON is the default.
func writeTensor(w http.ResponseWriter, r *http.Request, t tensor.Tensor) {
	enc := tensor.EncodingJSON
	if f := r.URL.Query().Get("format"); f != "" {
		var err error
		if enc, err = tensor.ParseEncoding(f); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "unknown tensor format", Kind: "bad_format", RequestID: requestID(r.Context())})
			return
		}
	}

	switch enc {
	case tensor.EncodingMsgpack:
		w.Header().Set("Content-Type", "application/msgpack")
	case tensor.EncodingFloat16:
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("X-Tensor-Shape", t.String())
	default:
		w.Header().Set("Content-Type", "application/json")
	}

	_ = tensor.Encode(w, t, enc)
}
