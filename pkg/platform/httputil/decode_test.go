package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "custodian/pkg/domain-errors"
)

type modeBody struct {
	Mode string `json:"mode"`
}

func (r *modeBody) Normalize() {
	r.Mode = strings.ToLower(strings.TrimSpace(r.Mode))
}

func (r *modeBody) Validate() error {
	if r.Mode == "" {
		return errors.New("mode is required")
	}
	if r.Mode == "forbidden" {
		return dErrors.New(dErrors.CodeForbidden, "not allowed")
	}
	return nil
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("decodes and normalizes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(`{"mode":"  Automated "}`))
		w := httptest.NewRecorder()

		result, ok := DecodeAndPrepare[modeBody](w, req, logger)

		require.True(t, ok)
		assert.Equal(t, "automated", result.Mode)
	})

	t.Run("malformed JSON is a bad request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(`{mode}`))
		w := httptest.NewRecorder()

		result, ok := DecodeAndPrepare[modeBody](w, req, logger)

		assert.False(t, ok)
		assert.Nil(t, result)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bad_request", decodeError(t, w)["error"])
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(`{"mode":"manual","extra":1}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[modeBody](w, req, logger)

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("plain validation error maps to validation_error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(`{"mode":""}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[modeBody](w, req, logger)

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "validation_error", body["error"])
		assert.Equal(t, "mode is required", body["error_description"])
	})

	t.Run("domain error code is preserved", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(`{"mode":"forbidden"}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[modeBody](w, req, logger)

		assert.False(t, ok)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", dErrors.New(dErrors.CodeNotFound, "account not found"), http.StatusNotFound, "not_found"},
		{"conflict", dErrors.New(dErrors.CodeConflict, "account already deleted"), http.StatusConflict, "conflict"},
		{"unavailable", dErrors.New(dErrors.CodeUnavailable, "mail relay down"), http.StatusServiceUnavailable, "unavailable"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decodeError(t, w)["error"])
		})
	}
}
